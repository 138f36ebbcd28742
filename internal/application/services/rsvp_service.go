package services

import (
	"context"

	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/policy"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// RSVPService records attendance answers
type RSVPService struct {
	store  repositories.Store
	collab Collaborators
}

// NewRSVPService creates a new RSVP service
func NewRSVPService(store repositories.Store, collab Collaborators) *RSVPService {
	return &RSVPService{store: store, collab: collab}
}

// UpsertRSVP sets the caller's status for an event. Answering again updates
// the existing row instead of adding one.
func (s *RSVPService) UpsertRSVP(ctx context.Context, id entities.Identity, eventID string, input rules.RSVPInput) (*entities.RSVP, error) {
	if id.IsAnonymous() {
		return nil, apperrors.NewUnauthorizedError("sign in to RSVP")
	}
	if err := rules.Validate(input); err != nil {
		return nil, err
	}

	rsvp := &entities.RSVP{
		EventID: eventID,
		UserID:  id.UserID,
		Status:  entities.RSVPStatus(input.Status),
	}
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		if _, err := visibleEvent(ctx, tx, id, eventID, policy.OpSelect); err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.KindRSVP, policy.OpInsert, rsvp); err != nil {
			return err
		}
		return tx.RSVPs().Upsert(ctx, rsvp)
	})
	if err != nil {
		return nil, err
	}

	s.collab.afterWrite(ctx, eventID, entities.ActivityRSVPUpserted, id, "rsvp", "upsert")
	return rsvp, nil
}

// DeleteRSVP withdraws the caller's answer for an event
func (s *RSVPService) DeleteRSVP(ctx context.Context, id entities.Identity, eventID string) error {
	if id.IsAnonymous() {
		return apperrors.NewUnauthorizedError("sign in to withdraw an RSVP")
	}

	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		rsvp, err := tx.RSVPs().Get(ctx, eventID, id.UserID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.KindRSVP, policy.OpDelete, rsvp); err != nil {
			return err
		}
		return tx.RSVPs().Delete(ctx, eventID, id.UserID)
	})
	if err != nil {
		return err
	}

	s.collab.afterWrite(ctx, eventID, entities.ActivityRSVPDeleted, id, "rsvp", "delete")
	return nil
}
