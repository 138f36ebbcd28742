package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// DayCounts maps a UTC day (YYYY-MM-DD) to a count.
type DayCounts map[string]int

// StatsRepository computes aggregates from authoritative rows. Each method
// reads a single consistent row set.
type StatsRepository interface {
	CountRSVPsByStatus(ctx context.Context, eventID string) (entities.AttendanceCounts, error)

	// RatingTotals returns the rating sum and number of reviews of an event
	RatingTotals(ctx context.Context, eventID string) (sum int, count int, err error)

	// CountEventsByDay buckets visible events by start_time within [from, to)
	CountEventsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (DayCounts, error)

	// CountRSVPsByDay buckets RSVPs of visible events by created_at within [from, to)
	CountRSVPsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (DayCounts, error)
}
