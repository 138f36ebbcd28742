package repositories

import (
	"context"

	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	// Create inserts a profile; the store stamps created_at and updated_at
	Create(ctx context.Context, profile *entities.Profile) error

	// GetByID retrieves a profile by ID
	GetByID(ctx context.Context, id string) (*entities.Profile, error)

	// GetByIDs retrieves the profiles that exist among ids
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Profile, error)

	// Update replaces the mutable fields; the store stamps updated_at
	Update(ctx context.Context, profile *entities.Profile) error

	// Delete removes the profile and every row it owns
	Delete(ctx context.Context, id string) error
}
