package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

var rsvpColumns = columns("id", "event_id", "user_id", "status", "created_at", "updated_at")

// RSVPAdapter implements RSVPRepository using PostgreSQL
type RSVPAdapter struct {
	db sqlx.ExtContext
}

// Upsert inserts the RSVP or updates the status of the existing one for the
// same (event_id, user_id) in a single statement
func (a *RSVPAdapter) Upsert(ctx context.Context, rsvp *entities.RSVP) error {
	if err := rsvp.CheckInvariants(); err != nil {
		return err
	}

	query, args, err := dialect.Insert("rsvps").Rows(goqu.Record{
		"id":       newID(rsvp.ID),
		"event_id": rsvp.EventID,
		"user_id":  rsvp.UserID,
		"status":   string(rsvp.Status),
	}).OnConflict(goqu.DoUpdate("event_id, user_id", goqu.Record{
		"status":     goqu.L("EXCLUDED.status"),
		"updated_at": goqu.L("GREATEST(NOW(), rsvps.updated_at + INTERVAL '1 microsecond')"),
	})).Returning(rsvpColumns...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build rsvp upsert query", err)
	}

	var stored entities.RSVP
	if err := sqlx.GetContext(ctx, a.db, &stored, query, args...); err != nil {
		return translateError(err, "rsvp")
	}
	*rsvp = stored
	return nil
}

// Get retrieves one user's RSVP for an event
func (a *RSVPAdapter) Get(ctx context.Context, eventID, userID string) (*entities.RSVP, error) {
	query, args, err := dialect.From("rsvps").Select(rsvpColumns...).
		Where(goqu.Ex{"event_id": eventID, "user_id": userID}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build rsvp query", err)
	}

	var rsvp entities.RSVP
	if err := sqlx.GetContext(ctx, a.db, &rsvp, query, args...); err != nil {
		return nil, translateError(err, "rsvp")
	}
	return &rsvp, nil
}

// ListByEvent retrieves the RSVPs of an event, oldest first
func (a *RSVPAdapter) ListByEvent(ctx context.Context, eventID string) ([]*entities.RSVP, error) {
	query, args, err := dialect.From("rsvps").Select(rsvpColumns...).
		Where(goqu.Ex{"event_id": eventID}).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build rsvps query", err)
	}

	rsvps := []*entities.RSVP{}
	if err := sqlx.SelectContext(ctx, a.db, &rsvps, query, args...); err != nil {
		return nil, translateError(err, "rsvp")
	}
	return rsvps, nil
}

// Delete removes one user's RSVP for an event
func (a *RSVPAdapter) Delete(ctx context.Context, eventID, userID string) error {
	query, args, err := dialect.Delete("rsvps").Where(goqu.Ex{"event_id": eventID, "user_id": userID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build rsvp delete query", err)
	}
	return execAffectingOne(ctx, a.db, "rsvp", query, args...)
}
