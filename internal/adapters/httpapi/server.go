// Package httpapi exposes the catalog browser over HTTP using echo.
package httpapi

import (
	"context"
	"errors"
	"expvar"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brunocuevas/nsdb/internal/core"
	"github.com/brunocuevas/nsdb/internal/phylo"
	"github.com/brunocuevas/nsdb/internal/structure"
	"github.com/brunocuevas/nsdb/pkg/domain"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = echo.HeaderXRequestID

// Service is the browser surface served by the API. *core.Browser
// implements it.
type Service interface {
	Search(ctx context.Context, text string, toggles domain.Toggles) ([]domain.Entry, error)
	Select(ctx context.Context, id string) (domain.Entry, error)
	Chains(ctx context.Context, id string) ([]domain.Chain, error)
	Relatives(ctx context.Context, e domain.Entry) ([]domain.Relative, error)
	Structure(ctx context.Context, id string) (structure.Structure, error)
	Tree(e domain.Entry) phylo.Annotation
	TreeSVG(w io.Writer, e domain.Entry) error
	Detail(ctx context.Context, id string) (core.Detail, error)
}

// Options configures the HTTP surface.
type Options struct {
	Logger *slog.Logger
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// DebugVars serves expvar under /debug/vars.
	DebugVars bool
	// ExposeTiers enables the gold/silver query parameters. When false every
	// tier is shown.
	ExposeTiers bool
	// Now stamps CSV export file names. Defaults to time.Now.
	Now func() time.Time
}

type handler struct {
	svc    Service
	opts   Options
	logger *slog.Logger
}

// New builds the echo instance with every route registered.
func New(svc Service, opts Options) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &handler{svc: svc, opts: opts, logger: opts.Logger}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = h.handleHTTPError
	e.Use(middleware.Recover())
	e.Use(requestID())
	e.Use(h.logRequests())

	e.GET("/healthz", h.healthz)
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{
			ErrorHandling: promhttp.HTTPErrorOnError,
		})))
	}

	if opts.DebugVars {
		e.GET("/debug/vars", echo.WrapHandler(expvar.Handler()))
	}

	api := e.Group("/api/v1")
	api.GET("/entries", h.searchEntries)
	api.GET("/entries/:id", h.entryDetail)
	api.GET("/entries/:id/chains", h.entryChains)
	api.GET("/entries/:id/relatives", h.entryRelatives)
	api.GET("/entries/:id/structure", h.entryStructure)
	api.GET("/entries/:id/tree", h.entryTree)
	api.GET("/entries/:id/tree.svg", h.entryTreeSVG)
	return e
}

// requestID reuses an inbound X-Request-ID or mints a uuid, echoes it on the
// response and stores it on the request context.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(RequestIDHeader, id)
			c.SetRequest(req.WithContext(core.ContextWithRequestID(req.Context(), id)))
			return next(c)
		}
	}
}

func (h *handler) logRequests() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("query", req.URL.RawQuery),
				slog.Int("status", c.Response().Status),
				slog.String("request_id", core.RequestID(req.Context())),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			h.logger.LogAttrs(req.Context(), slog.LevelInfo, "http request", attrs...)
			return nil
		}
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// handleHTTPError renders router and handler errors as JSON bodies.
func (h *handler) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}
	_ = writeError(c, status, msg)
}

func writeError(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Error: message, RequestID: core.RequestID(c.Request().Context())})
}

// fail maps a service error onto an HTTP status.
func (h *handler) fail(c echo.Context, err error) error {
	switch {
	case core.IsNotFound(err):
		return writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("request timed out", "path", c.Request().URL.Path, "error", err)
		return writeError(c, http.StatusGatewayTimeout, "upstream timeout")
	default:
		h.logger.Error("request failed", "path", c.Request().URL.Path, "error", err)
		return writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *handler) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
