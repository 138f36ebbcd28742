package repositories

import (
	"context"

	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// RSVPRepository defines the interface for RSVP data operations
type RSVPRepository interface {
	// Upsert inserts the RSVP or, when one exists for (event_id, user_id),
	// updates its status. The stored row is written back into rsvp.
	Upsert(ctx context.Context, rsvp *entities.RSVP) error

	Get(ctx context.Context, eventID, userID string) (*entities.RSVP, error)
	ListByEvent(ctx context.Context, eventID string) ([]*entities.RSVP, error)
	Delete(ctx context.Context, eventID, userID string) error
}
