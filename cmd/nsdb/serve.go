package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/brunocuevas/nsdb/internal/adapters/httpapi"
	"github.com/brunocuevas/nsdb/internal/core"
	"github.com/brunocuevas/nsdb/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog browser HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("listen", a.v.GetString("server.listen"), "listen address")
	cmd.Flags().Bool("metrics", a.v.GetBool("server.metrics"), "expose prometheus metrics on /metrics")
	cmd.Flags().Bool("debug-vars", a.v.GetBool("server.debug_vars"), "record expvar metrics and expose /debug/vars")
	cmd.Flags().Bool("trace", a.v.GetBool("server.trace"), "write operation spans as JSON lines to stderr")
	for key, flag := range map[string]string{
		"server.listen":     "listen",
		"server.metrics":    "metrics",
		"server.debug_vars": "debug-vars",
		"server.trace":      "trace",
	} {
		_ = a.v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	srv, cleanup, err := a.newServer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.logger.Info("listening", "addr", srv.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServer wires metrics, tracing and the browser behind the echo router.
func (a *app) newServer(ctx context.Context) (*http.Server, func(), error) {
	s := a.settings.Server
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return nil, nil, err
	}
	recorders := core.Recorders{prom}
	if s.DebugVars {
		recorders = append(recorders, core.NewStatsRecorder(""))
	}
	opts := []core.Option{core.WithMetricsRecorder(recorders)}
	if s.Trace {
		opts = append(opts, core.WithTracer(core.NewSpanLog(a.stderr)))
	}

	browser, err := a.browser(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	apiOpts := httpapi.Options{
		Logger:      logging.Module(a.logger, "http"),
		DebugVars:   s.DebugVars,
		ExposeTiers: a.settings.Filters.ExposeTiers,
	}
	if s.Metrics {
		apiOpts.Gatherer = reg
	}
	srv := &http.Server{
		Addr:              s.Listen,
		Handler:           httpapi.New(browser, apiOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, func() { _ = browser.Close() }, nil
}
