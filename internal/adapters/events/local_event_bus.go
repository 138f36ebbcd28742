package events

import (
	"context"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
)

// LocalEventBus fans activity out to subscribers of the same process. It is
// used when Redis is disabled.
type LocalEventBus struct {
	hub *fanout
}

// NewLocalEventBus creates an in-process event bus
func NewLocalEventBus() providers.EventBus {
	return &LocalEventBus{hub: newFanout()}
}

// Publish delivers event to current subscribers of channel without blocking
func (b *LocalEventBus) Publish(ctx context.Context, channel string, event *entities.ActivityEvent) error {
	b.hub.deliver(channel, event)
	return nil
}

// Subscribe registers a subscriber that is removed when ctx is done
func (b *LocalEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ActivityEvent, error) {
	ch, _ := b.hub.add(channel)
	go func() {
		<-ctx.Done()
		b.hub.remove(channel, ch)
	}()
	return ch, nil
}

// Close closes every subscription
func (b *LocalEventBus) Close() error {
	b.hub.closeAll()
	return nil
}
