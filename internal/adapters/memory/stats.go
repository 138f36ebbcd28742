package memory

import (
	"context"
	"time"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
)

// statsRepo scans rows under a single read lock so every aggregate sees one
// committed state.
type statsRepo struct{ s *Store }

func (r *statsRepo) CountRSVPsByStatus(ctx context.Context, eventID string) (entities.AttendanceCounts, error) {
	var counts entities.AttendanceCounts
	err := r.s.read(ctx, func(st *state) error {
		for _, rsvp := range st.rsvps {
			if rsvp.EventID == eventID {
				counts.Add(rsvp.Status, 1)
			}
		}
		return nil
	})
	return counts, err
}

func (r *statsRepo) RatingTotals(ctx context.Context, eventID string) (int, int, error) {
	var sum, count int
	err := r.s.read(ctx, func(st *state) error {
		for _, review := range st.reviews {
			if review.EventID == eventID {
				sum += review.Rating
				count++
			}
		}
		return nil
	})
	return sum, count, err
}

func (r *statsRepo) CountEventsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (repositories.DayCounts, error) {
	counts := repositories.DayCounts{}
	err := r.s.read(ctx, func(st *state) error {
		for _, ev := range st.events {
			if ev.VisibleTo(viewer) && inRange(ev.StartTime, from, to) {
				counts[ev.StartTime.UTC().Format(entities.DateLayout)]++
			}
		}
		return nil
	})
	return counts, err
}

func (r *statsRepo) CountRSVPsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (repositories.DayCounts, error) {
	counts := repositories.DayCounts{}
	err := r.s.read(ctx, func(st *state) error {
		for _, rsvp := range st.rsvps {
			ev, ok := st.events[rsvp.EventID]
			if !ok || !ev.VisibleTo(viewer) || !inRange(rsvp.CreatedAt, from, to) {
				continue
			}
			counts[rsvp.CreatedAt.UTC().Format(entities.DateLayout)]++
		}
		return nil
	})
	return counts, err
}

// inRange reports whether t falls within [from, to).
func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
