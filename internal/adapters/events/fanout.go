package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// subscriberBuffer bounds each subscriber's queue; slow readers drop events.
const subscriberBuffer = 100

// fanout tracks local subscribers per channel. Delivery never blocks.
type fanout struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.ActivityEvent]struct{}
	closed      bool
}

func newFanout() *fanout {
	return &fanout{subscribers: make(map[string]map[chan *entities.ActivityEvent]struct{})}
}

// add registers a subscriber. first reports whether the channel had none.
// A closed fanout returns an already closed channel.
func (f *fanout) add(channel string) (ch chan *entities.ActivityEvent, first bool) {
	ch = make(chan *entities.ActivityEvent, subscriberBuffer)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch, false
	}
	if f.subscribers[channel] == nil {
		f.subscribers[channel] = make(map[chan *entities.ActivityEvent]struct{})
		first = true
	}
	f.subscribers[channel][ch] = struct{}{}
	return ch, first
}

// remove closes ch. last reports whether the channel has no subscribers left.
func (f *fanout) remove(channel string, ch chan *entities.ActivityEvent) (last bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	subscribers := f.subscribers[channel]
	if _, ok := subscribers[ch]; !ok {
		return false
	}
	delete(subscribers, ch)
	close(ch)
	if len(subscribers) == 0 {
		delete(f.subscribers, channel)
		return true
	}
	return false
}

func (f *fanout) deliver(channel string, event *entities.ActivityEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for subscriber := range f.subscribers[channel] {
		ev := *event
		select {
		case subscriber <- &ev:
		default:
			log.Warn().Str("channel", channel).Str("activity_id", event.ID).Msg("Subscriber channel full, skipping activity")
		}
	}
}

func (f *fanout) count(channel string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers[channel])
}

// closeAll closes every subscriber and refuses new ones
func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for channel, subscribers := range f.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(f.subscribers, channel)
	}
	f.closed = true
}
