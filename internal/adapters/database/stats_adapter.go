package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// StatsAdapter computes aggregates with one statement each, so every count
// reads a single snapshot.
type StatsAdapter struct {
	db sqlx.ExtContext
}

type statusCount struct {
	Status entities.RSVPStatus `db:"status"`
	Count  int                 `db:"count"`
}

type dayCount struct {
	Day   string `db:"day"`
	Count int    `db:"count"`
}

// CountRSVPsByStatus groups an event's RSVPs by status
func (a *StatsAdapter) CountRSVPsByStatus(ctx context.Context, eventID string) (entities.AttendanceCounts, error) {
	var counts entities.AttendanceCounts

	query, args, err := dialect.From("rsvps").
		Select(goqu.C("status"), goqu.COUNT("*").As("count")).
		Where(goqu.Ex{"event_id": eventID}).
		GroupBy("status").ToSQL()
	if err != nil {
		return counts, apperrors.NewInternalError("failed to build attendance query", err)
	}

	var rows []statusCount
	if err := sqlx.SelectContext(ctx, a.db, &rows, query, args...); err != nil {
		return counts, translateError(err, "rsvp")
	}
	for _, row := range rows {
		counts.Add(row.Status, row.Count)
	}
	return counts, nil
}

// RatingTotals returns the rating sum and review count of an event
func (a *StatsAdapter) RatingTotals(ctx context.Context, eventID string) (int, int, error) {
	query, args, err := dialect.From("reviews").
		Select(
			goqu.COALESCE(goqu.SUM("rating"), 0).As("sum"),
			goqu.COUNT("*").As("count"),
		).
		Where(goqu.Ex{"event_id": eventID}).ToSQL()
	if err != nil {
		return 0, 0, apperrors.NewInternalError("failed to build rating query", err)
	}

	var row struct {
		Sum   int `db:"sum"`
		Count int `db:"count"`
	}
	if err := sqlx.GetContext(ctx, a.db, &row, query, args...); err != nil {
		return 0, 0, translateError(err, "review")
	}
	return row.Sum, row.Count, nil
}

// CountEventsByDay buckets visible events by UTC start day within [from, to)
func (a *StatsAdapter) CountEventsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (repositories.DayCounts, error) {
	ds := dialect.From("events").
		Select(utcDay("start_time").As("day"), goqu.COUNT("*").As("count")).
		Where(
			visibleTo(viewer, ""),
			goqu.I("start_time").Gte(from.UTC()),
			goqu.I("start_time").Lt(to.UTC()),
		).
		GroupBy(goqu.I("day"))

	return a.dayCounts(ctx, ds, "event")
}

// CountRSVPsByDay buckets RSVPs of visible events by UTC creation day within [from, to)
func (a *StatsAdapter) CountRSVPsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (repositories.DayCounts, error) {
	ds := dialect.From(goqu.T("rsvps").As("r")).
		Join(goqu.T("events").As("e"), goqu.On(goqu.I("e.id").Eq(goqu.I("r.event_id")))).
		Select(utcDay("r.created_at").As("day"), goqu.COUNT("*").As("count")).
		Where(
			visibleTo(viewer, "e."),
			goqu.I("r.created_at").Gte(from.UTC()),
			goqu.I("r.created_at").Lt(to.UTC()),
		).
		GroupBy(goqu.I("day"))

	return a.dayCounts(ctx, ds, "rsvp")
}

func (a *StatsAdapter) dayCounts(ctx context.Context, ds *goqu.SelectDataset, entity string) (repositories.DayCounts, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build trend query", err)
	}

	var rows []dayCount
	if err := sqlx.SelectContext(ctx, a.db, &rows, query, args...); err != nil {
		return nil, translateError(err, entity)
	}

	counts := make(repositories.DayCounts, len(rows))
	for _, row := range rows {
		counts[row.Day] = row.Count
	}
	return counts, nil
}

func utcDay(column string) exp.LiteralExpression {
	return goqu.L("to_char(? AT TIME ZONE 'UTC', 'YYYY-MM-DD')", goqu.I(column))
}
