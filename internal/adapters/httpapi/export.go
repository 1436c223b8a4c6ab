package httpapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brunocuevas/nsdb/pkg/domain"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

// negotiateFormat prefers ?format= and falls back to the Accept header.
// Unsupported formats yield "".
func negotiateFormat(r *http.Request) string {
	wanted := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if wanted == "" {
		if strings.Contains(r.Header.Get(echo.HeaderAccept), "text/csv") {
			return formatCSV
		}
		return formatJSON
	}
	switch wanted {
	case formatJSON, formatCSV:
		return wanted
	}
	return ""
}

// streamCSV writes the filtered result grid with the ResultColumns header.
func streamCSV(c echo.Context, now time.Time, entries []domain.Entry) error {
	filename := fmt.Sprintf("nsdb-entries-%s.csv", now.UTC().Format("20060102T150405Z"))
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	res.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(res)
	if err := writer.Write(domain.ResultColumns); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writer.Write(e.Row()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
