package providers

import (
	"context"

	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// EventSearchProvider is a full-text index over public events. It returns
// candidate IDs only; callers re-read rows from the store.
type EventSearchProvider interface {
	Index(ctx context.Context, event *entities.Event) error
	Remove(ctx context.Context, eventID string) error
	SearchIDs(ctx context.Context, text string, limit int) ([]string, error)
}
