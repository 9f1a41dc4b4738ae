// Package httpapi composes the HTTP surface: middleware chain, the estate
// endpoints, health and metrics. Transport stays thin; business logic lives
// in the module services.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	estatehandler "urithi/internal/estate/handler"
	platformmetrics "urithi/internal/platform/metrics"
	"urithi/pkg/platform/middleware/actor"
	"urithi/pkg/platform/middleware/requesttime"
)

// NewRouter wires all public endpoints behind the shared middleware chain.
func NewRouter(estates *estatehandler.Handler, httpMetrics *platformmetrics.HTTP) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(actor.Middleware)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		estates.Register(r)
	})
	return r
}
