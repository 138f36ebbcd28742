package providers

import (
	"context"

	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to activity
type EventBus interface {
	// Publish publishes an activity event to all subscribers of channel
	Publish(ctx context.Context, channel string, event *entities.ActivityEvent) error

	// Subscribe subscribes to a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ActivityEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// ChannelActivity carries every committed write
	ChannelActivity = "activity"

	// ChannelEventPrefix is the prefix for per-event channels
	ChannelEventPrefix = "event:"
)

// EventChannel returns the channel name for a specific event
func EventChannel(eventID string) string {
	return ChannelEventPrefix + eventID
}
