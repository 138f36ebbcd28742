package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// EventFilter narrows an upcoming events listing.
type EventFilter struct {
	// Viewer sees public events plus the private events they organize.
	Viewer entities.Identity
	// From is the earliest start_time included.
	From time.Time
	// Text is a case-insensitive substring of title, description or location.
	Text string
	// IDs restricts the listing to the given events when non-nil. When Text
	// is set as well, the viewer's own events matching Text are added to the
	// IDs rather than the IDs being narrowed by Text.
	IDs    []string
	Limit  int
	Offset int
}

// EventRepository defines the interface for event data operations
type EventRepository interface {
	Create(ctx context.Context, event *entities.Event) error
	GetByID(ctx context.Context, id string) (*entities.Event, error)
	Update(ctx context.Context, event *entities.Event) error

	// Delete removes the event with its RSVPs and reviews
	Delete(ctx context.Context, id string) error

	// ListUpcoming returns visible events ascending by start_time
	ListUpcoming(ctx context.Context, filter EventFilter) ([]*entities.Event, error)

	// ListIDsByOrganizer returns the ids of every event organizerID organizes,
	// past or upcoming, public or private
	ListIDsByOrganizer(ctx context.Context, organizerID string) ([]string, error)
}
