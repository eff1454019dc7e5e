package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"faremetrics-service/internal/domain/entity"
	"faremetrics-service/internal/usecase"
	"faremetrics-service/pkg/logger"
)

// Handlers serves the reconciliation query surface over HTTP.
type Handlers struct {
	reconciler *usecase.Reconciler
	location   *time.Location
	logger     logger.Logger
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(reconciler *usecase.Reconciler, location *time.Location, logger logger.Logger) *Handlers {
	return &Handlers{
		reconciler: reconciler,
		location:   location,
		logger:     logger,
	}
}

type metricsResponse struct {
	Snapshot *entity.MetricsSnapshot `json:"snapshot"`
	Warnings []entity.Warning        `json:"warnings"`
}

type growthResponse struct {
	Report   *entity.GrowthReport `json:"report"`
	Warnings []entity.Warning     `json:"warnings"`
}

// GetMetrics handles GET /api/v1/metrics.
func (h *Handlers) GetMetrics(w http.ResponseWriter, r *http.Request) {
	q, err := h.queryFromRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	snapshot, warnings, err := h.reconciler.GetMetrics(r.Context(), q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	// The snapshot carries every non-empty demand bucket; trim for display
	snapshot.DemandByHour = usecase.TruncateHours(snapshot.DemandByHour, usecase.TopHourBuckets)
	snapshot.DemandByWeekday = usecase.TruncateWeekdays(snapshot.DemandByWeekday, usecase.TopWeekdayBuckets)
	writeJSON(w, http.StatusOK, metricsResponse{Snapshot: snapshot, Warnings: warnings})
}

// GetGrowth handles GET /api/v1/growth.
func (h *Handlers) GetGrowth(w http.ResponseWriter, r *http.Request) {
	q, err := h.queryFromRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	report, warnings, err := h.reconciler.GetGrowth(r.Context(), q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, growthResponse{Report: report, Warnings: warnings})
}

func (h *Handlers) queryFromRequest(r *http.Request) (usecase.Query, error) {
	params := r.URL.Query()
	window, err := usecase.ResolveWindow(
		params.Get("range"),
		params.Get("start"),
		params.Get("end"),
		h.location,
		time.Now(),
	)
	if err != nil {
		return usecase.Query{}, err
	}
	return usecase.Query{
		Window:         window,
		RouteFilter:    params.Get("route"),
		CategoryFilter: params.Get("category"),
	}, nil
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrInvalidWindow), errors.Is(err, usecase.ErrUnknownCategory):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrAllSourcesFailed):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
