package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/eventhub/internal/api/middleware"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// StatsService is the aggregation surface used by the handler
type StatsService interface {
	AttendanceCounts(ctx context.Context, id entities.Identity, eventID string) (entities.AttendanceCounts, error)
	AverageRating(ctx context.Context, id entities.Identity, eventID string) (entities.RatingSummary, error)
	Trends(ctx context.Context, id entities.Identity, startDate, endDate time.Time, metric entities.TrendMetric) ([]entities.TrendBucket, error)
}

// StatsHandler handles aggregate requests
type StatsHandler struct {
	service StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(service StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// TrendPoint is one day of a trend series on the wire
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// GetAttendance handles GET /api/events/{id}/attendance
func (h *StatsHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.AttendanceCounts(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, counts)
}

// GetRating handles GET /api/events/{id}/rating. average is null when the
// event has no reviews.
func (h *StatsHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.AverageRating(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// GetTrends handles GET /api/stats/trends?start=&end=&metric=
func (h *StatsHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	start, err := parseDate(query.Get("start"), "start")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	end, err := parseDate(query.Get("end"), "end")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	metric := entities.TrendMetric(query.Get("metric"))
	if metric == "" {
		metric = entities.TrendMetricEvents
	}

	buckets, err := h.service.Trends(r.Context(), middleware.IdentityFrom(r.Context()), start, end, metric)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	points := make([]TrendPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, TrendPoint{Date: b.DateKey(), Count: b.Count})
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"metric":  metric,
		"buckets": points,
	})
}

func parseDate(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperrors.NewValidationError(name + " is required")
	}
	t, err := time.Parse(entities.DateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(name + " must be a date in YYYY-MM-DD format")
	}
	return t, nil
}
