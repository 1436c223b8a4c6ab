package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/brunocuevas/nsdb/pkg/domain"
)

const contentTypePDB = "chemical/x-pdb"

// Query parameter names of the category toggles.
var (
	typeParams = map[string]domain.NitrogenaseType{
		"nif": domain.TypeNif,
		"vnf": domain.TypeVnf,
		"anf": domain.TypeAnf,
		"anc": domain.TypeAnc,
	}
	tierParams = map[string]domain.Tier{
		"gold":   domain.TierGold,
		"silver": domain.TierSilver,
	}
)

type searchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Entries []domain.Entry `json:"entries"`
}

func (h *handler) searchEntries(c echo.Context) error {
	toggles, err := h.toggles(c)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err.Error())
	}
	format := negotiateFormat(c.Request())
	if format == "" {
		return writeError(c, http.StatusNotAcceptable, "requested format not supported")
	}
	q := c.QueryParam("q")
	entries, err := h.svc.Search(c.Request().Context(), q, toggles)
	if err != nil {
		return h.fail(c, err)
	}
	if format == formatCSV {
		return streamCSV(c, h.opts.Now(), entries)
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return c.JSON(http.StatusOK, searchResponse{Query: q, Count: len(entries), Entries: entries})
}

// toggles reads the category switches. Absent parameters are on.
func (h *handler) toggles(c echo.Context) (domain.Toggles, error) {
	t := domain.DefaultToggles()
	for name, nt := range typeParams {
		on, err := boolParam(c, name)
		if err != nil {
			return t, err
		}
		t.Types[nt] = on
	}
	if !h.opts.ExposeTiers {
		return t, nil
	}
	for name, tier := range tierParams {
		on, err := boolParam(c, name)
		if err != nil {
			return t, err
		}
		t.Tiers[tier] = on
	}
	return t, nil
}

func boolParam(c echo.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid value %q for %s", raw, name)
	}
	return v, nil
}

func (h *handler) entryDetail(c echo.Context) error {
	d, err := h.svc.Detail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *handler) entryChains(c echo.Context) error {
	e, err := h.svc.Select(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	chains, err := h.svc.Chains(c.Request().Context(), e.ID)
	if err != nil {
		return h.fail(c, err)
	}
	if chains == nil {
		chains = []domain.Chain{}
	}
	return c.JSON(http.StatusOK, map[string]any{"id": e.ID, "chains": chains})
}

func (h *handler) entryRelatives(c echo.Context) error {
	e, err := h.svc.Select(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	relatives, err := h.svc.Relatives(c.Request().Context(), e)
	if err != nil {
		return h.fail(c, err)
	}
	if relatives == nil {
		relatives = []domain.Relative{}
	}
	return c.JSON(http.StatusOK, map[string]any{"id": e.ID, "key": domain.RelativeKey(e), "relatives": relatives})
}

func (h *handler) entryStructure(c echo.Context) error {
	e, err := h.svc.Select(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	s, err := h.svc.Structure(c.Request().Context(), e.ID)
	if err != nil {
		return h.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", s.Filename))
	return c.Blob(http.StatusOK, contentTypePDB, []byte(s.Text))
}

func (h *handler) entryTree(c echo.Context) error {
	e, err := h.svc.Select(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, h.svc.Tree(e))
}

func (h *handler) entryTreeSVG(c echo.Context) error {
	e, err := h.svc.Select(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	var buf bytes.Buffer
	if err := h.svc.TreeSVG(&buf, e); err != nil {
		return h.fail(c, err)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}
