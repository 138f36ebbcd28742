package repositories

import (
	"context"

	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// ReviewRepository defines the interface for review operations
type ReviewRepository interface {
	// Create inserts a review; a second review for (event_id, user_id)
	// fails with a constraint violation
	Create(ctx context.Context, review *entities.Review) error

	// GetByID retrieves a review by ID
	GetByID(ctx context.Context, id string) (*entities.Review, error)

	// GetByEventAndUser retrieves the author's review of an event
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*entities.Review, error)

	// ListByEvent retrieves reviews for an event, newest first
	ListByEvent(ctx context.Context, eventID string) ([]*entities.Review, error)

	// Update updates rating and comment
	Update(ctx context.Context, review *entities.Review) error

	// Delete deletes a review
	Delete(ctx context.Context, id string) error
}
