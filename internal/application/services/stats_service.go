package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/policy"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// DefaultMaxTrendDays bounds a trend request when no limit is configured
const DefaultMaxTrendDays = 366

const day = 24 * time.Hour

// StatsService computes aggregates on demand from stored rows
type StatsService struct {
	store        repositories.Store
	stats        repositories.StatsRepository
	metrics      *observability.Metrics
	maxTrendDays int
}

// NewStatsService creates a new stats service. stats may be a caching
// decorator of store.Stats(); nil uses the store directly.
func NewStatsService(store repositories.Store, stats repositories.StatsRepository, metrics *observability.Metrics, maxTrendDays int) *StatsService {
	if stats == nil {
		stats = store.Stats()
	}
	if maxTrendDays <= 0 {
		maxTrendDays = DefaultMaxTrendDays
	}
	return &StatsService{store: store, stats: stats, metrics: metrics, maxTrendDays: maxTrendDays}
}

// AttendanceCounts returns the grouped RSVP counts of a visible event
func (s *StatsService) AttendanceCounts(ctx context.Context, id entities.Identity, eventID string) (entities.AttendanceCounts, error) {
	if _, err := visibleEvent(ctx, s.store, id, eventID, policy.OpSelect); err != nil {
		return entities.AttendanceCounts{}, err
	}

	start := time.Now()
	counts, err := s.stats.CountRSVPsByStatus(ctx, eventID)
	observability.RecordDBMetric(ctx, s.metrics, "stats.attendance", time.Since(start))
	return counts, err
}

// AverageRating returns the mean rating of a visible event rounded to one
// decimal place. An event without reviews has a nil Average.
func (s *StatsService) AverageRating(ctx context.Context, id entities.Identity, eventID string) (entities.RatingSummary, error) {
	if _, err := visibleEvent(ctx, s.store, id, eventID, policy.OpSelect); err != nil {
		return entities.RatingSummary{}, err
	}

	start := time.Now()
	sum, count, err := s.stats.RatingTotals(ctx, eventID)
	observability.RecordDBMetric(ctx, s.metrics, "stats.rating", time.Since(start))
	if err != nil {
		return entities.RatingSummary{}, err
	}
	return averageOf(sum, count), nil
}

func averageOf(sum, count int) entities.RatingSummary {
	if count == 0 {
		return entities.RatingSummary{}
	}
	avg := math.Round(float64(sum)/float64(count)*10) / 10
	return entities.RatingSummary{Average: &avg, Count: count}
}

// Trends returns one bucket per UTC day in [startDate, endDate], ascending,
// including days without activity. Only rows the caller may see are counted.
func (s *StatsService) Trends(ctx context.Context, id entities.Identity, startDate, endDate time.Time, metric entities.TrendMetric) ([]entities.TrendBucket, error) {
	if !metric.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("metric must be one of: %s, %s", entities.TrendMetricEvents, entities.TrendMetricRSVPs))
	}
	from, to := truncateDay(startDate), truncateDay(endDate)
	if from.After(to) {
		return nil, apperrors.NewValidationError("start date must not be after end date")
	}
	days := int(to.Sub(from)/day) + 1
	if days > s.maxTrendDays {
		return nil, apperrors.NewValidationError(fmt.Sprintf("date range must not exceed %d days", s.maxTrendDays))
	}

	var (
		counts repositories.DayCounts
		err    error
	)
	start := time.Now()
	switch metric {
	case entities.TrendMetricEvents:
		counts, err = s.stats.CountEventsByDay(ctx, id, from, to.Add(day))
	case entities.TrendMetricRSVPs:
		counts, err = s.stats.CountRSVPsByDay(ctx, id, from, to.Add(day))
	}
	observability.RecordDBMetric(ctx, s.metrics, "stats.trends."+string(metric), time.Since(start))
	if err != nil {
		return nil, err
	}

	buckets := make([]entities.TrendBucket, 0, days)
	for d := from; !d.After(to); d = d.Add(day) {
		bucket := entities.TrendBucket{Date: d}
		bucket.Count = counts[bucket.DateKey()]
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
