package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if g.metrics != nil {
		r.Use(g.metrics.middleware)
	}

	// Public.
	r.Get("/health", g.handleHealth())
	if g.opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// Assembly. Auth and rate limits apply when configured.
	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(authMiddleware(g.config.Auth, g.logger))
		}
		if g.opts.Limiter != nil {
			r.Use(rateLimitMiddleware(g.opts.Limiter, g.logger))
		}
		r.Post("/v1/context", g.handleAssemble())
		if g.opts.Measurer != nil {
			r.Post("/v1/measure", g.handleMeasure())
		}
	})

	return r
}
