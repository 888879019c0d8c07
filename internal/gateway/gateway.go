// Package gateway serves context assembly over HTTP.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/ctxwin/internal/security"
	"github.com/flemzord/ctxwin/internal/telemetry"
	"github.com/flemzord/ctxwin/pkg/message"
)

// Measurer fills in missing token counts of history entries.
type Measurer interface {
	MeasureEntries(entries []message.HistoryEntry, speakerName string) []message.HistoryEntry
}

// Options carries the gateway's collaborators.
type Options struct {
	// Builder assembles contexts. Required.
	Builder telemetry.Builder

	// Measurer serves /v1/measure. Nil leaves the route unmounted.
	Measurer Measurer

	// Recorder instruments assemblies. Nil records nothing.
	Recorder *telemetry.Recorder

	// Registerer receives the HTTP metrics. Nil disables them.
	Registerer prometheus.Registerer

	// Gatherer is exposed on /metrics. Nil leaves the route unmounted.
	Gatherer prometheus.Gatherer

	// Limiter applies per-client limits to the /v1 routes. Nil disables them.
	Limiter *security.RateLimiter

	// Estimator names the token estimator on /health.
	Estimator string

	Logger *slog.Logger
}

// Gateway is the HTTP front end of the context engine.
type Gateway struct {
	config    Config
	opts      Options
	logger    *slog.Logger
	metrics   *httpMetrics
	handler   http.Handler
	server    *http.Server
	startedAt time.Time
}

// New creates a gateway. The router is built immediately so Handler can be
// used without Start.
func New(cfg Config, opts Options) (*Gateway, error) {
	if opts.Builder == nil {
		return nil, errors.New("gateway: builder is required")
	}
	cfg.defaults()
	if _, err := net.ResolveTCPAddr("tcp", cfg.Bind); err != nil {
		return nil, fmt.Errorf("gateway: invalid bind address %s: %w", cfg.Bind, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := &Gateway{
		config:    cfg,
		opts:      opts,
		logger:    logger,
		startedAt: time.Now(),
	}
	if opts.Registerer != nil {
		g.metrics = newHTTPMetrics(opts.Registerer)
	}
	g.handler = g.buildRouter()
	return g, nil
}

// Handler returns the gateway's root handler.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// Start listens on the configured address and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.handler,
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
