package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the query endpoints, health check, and prometheus metrics.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/metrics", h.GetMetrics)
		r.Get("/growth", h.GetGrowth)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
