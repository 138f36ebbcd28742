package database

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

var eventColumns = columns("id", "title", "description", "organizer_id", "location",
	"start_time", "end_time", "is_public", "created_at", "updated_at")

// EventAdapter implements EventRepository using PostgreSQL
type EventAdapter struct {
	db sqlx.ExtContext
}

// Create inserts an event
func (a *EventAdapter) Create(ctx context.Context, event *entities.Event) error {
	if err := event.CheckInvariants(); err != nil {
		return err
	}
	event.ID = newID(event.ID)

	query, args, err := dialect.Insert("events").Rows(goqu.Record{
		"id":           event.ID,
		"title":        event.Title,
		"description":  event.Description,
		"organizer_id": event.OrganizerID,
		"location":     event.Location,
		"start_time":   event.StartTime.UTC(),
		"end_time":     event.EndTime.UTC(),
		"is_public":    event.IsPublic,
	}).Returning("created_at", "updated_at").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build event insert query", err)
	}

	var st stamps
	if err := sqlx.GetContext(ctx, a.db, &st, query, args...); err != nil {
		return translateError(err, "event")
	}
	event.CreatedAt, event.UpdatedAt = st.CreatedAt, st.UpdatedAt
	return nil
}

// GetByID retrieves an event by ID
func (a *EventAdapter) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	query, args, err := dialect.From("events").Select(eventColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build event query", err)
	}

	var event entities.Event
	if err := sqlx.GetContext(ctx, a.db, &event, query, args...); err != nil {
		return nil, translateError(err, "event")
	}
	return &event, nil
}

// Update replaces the mutable event fields. The organizer is part of the
// match so a reassignment attempt updates nothing.
func (a *EventAdapter) Update(ctx context.Context, event *entities.Event) error {
	if err := event.CheckInvariants(); err != nil {
		return err
	}

	query, args, err := dialect.Update("events").Set(goqu.Record{
		"title":       event.Title,
		"description": event.Description,
		"location":    event.Location,
		"start_time":  event.StartTime.UTC(),
		"end_time":    event.EndTime.UTC(),
		"is_public":   event.IsPublic,
		"updated_at":  bumpUpdatedAt,
	}).Where(goqu.Ex{"id": event.ID, "organizer_id": event.OrganizerID}).
		Returning("created_at", "updated_at").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build event update query", err)
	}

	var st stamps
	if err := sqlx.GetContext(ctx, a.db, &st, query, args...); err != nil {
		err = translateError(err, "event")
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			if _, getErr := a.GetByID(ctx, event.ID); getErr == nil {
				return apperrors.NewConstraintViolation(apperrors.RuleOrganizerImmutable, "organizer_id cannot be changed")
			}
		}
		return err
	}
	event.CreatedAt, event.UpdatedAt = st.CreatedAt, st.UpdatedAt
	return nil
}

// Delete removes an event; RSVPs and reviews cascade
func (a *EventAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := dialect.Delete("events").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build event delete query", err)
	}
	return execAffectingOne(ctx, a.db, "event", query, args...)
}

// ListUpcoming returns the events visible to the viewer starting at or after
// filter.From, ascending by start_time
func (a *EventAdapter) ListUpcoming(ctx context.Context, filter repositories.EventFilter) ([]*entities.Event, error) {
	text := strings.TrimSpace(filter.Text)
	own := !filter.Viewer.IsAnonymous() && text != ""
	if filter.IDs != nil && len(filter.IDs) == 0 && !own {
		return []*entities.Event{}, nil
	}

	ds := dialect.From("events").Select(eventColumns...).
		Where(
			visibleTo(filter.Viewer, ""),
			goqu.I("start_time").Gte(filter.From.UTC()),
		)

	switch {
	case filter.IDs != nil && own:
		ownMatches := goqu.And(goqu.I("organizer_id").Eq(filter.Viewer.UserID), textMatch(text))
		if len(filter.IDs) == 0 {
			ds = ds.Where(ownMatches)
		} else {
			ds = ds.Where(goqu.Or(goqu.I("id").In(filter.IDs), ownMatches))
		}
	case filter.IDs != nil:
		ds = ds.Where(goqu.I("id").In(filter.IDs))
	case text != "":
		ds = ds.Where(textMatch(text))
	}

	ds = ds.Order(goqu.I("start_time").Asc(), goqu.I("id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build events query", err)
	}

	events := []*entities.Event{}
	if err := sqlx.SelectContext(ctx, a.db, &events, query, args...); err != nil {
		return nil, translateError(err, "event")
	}
	return events, nil
}

// ListIDsByOrganizer returns the ids of every event the organizer owns
func (a *EventAdapter) ListIDsByOrganizer(ctx context.Context, organizerID string) ([]string, error) {
	query, args, err := dialect.From("events").Select("id").
		Where(goqu.I("organizer_id").Eq(organizerID)).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build events query", err)
	}

	ids := []string{}
	if err := sqlx.SelectContext(ctx, a.db, &ids, query, args...); err != nil {
		return nil, translateError(err, "event")
	}
	return ids, nil
}

// visibleTo is the event visibility predicate. prefix qualifies the columns
// when the events table is aliased.
func visibleTo(viewer entities.Identity, prefix string) exp.Expression {
	public := goqu.I(prefix + "is_public").IsTrue()
	if viewer.IsAnonymous() {
		return public
	}
	return goqu.Or(public, goqu.I(prefix+"organizer_id").Eq(viewer.UserID))
}

// textMatch is a case-insensitive substring match on the searchable columns
func textMatch(text string) exp.Expression {
	pattern := "%" + escapeLike(text) + "%"
	return goqu.Or(
		goqu.I("title").ILike(pattern),
		goqu.I("description").ILike(pattern),
		goqu.I("location").ILike(pattern),
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
