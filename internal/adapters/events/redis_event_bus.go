package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
	redisclient "github.com/zatekoja/eventhub/internal/infrastructure/clients/redis"
)

// DefaultChannelPrefix namespaces Redis channels per deployment
const DefaultChannelPrefix = "eventhub:"

// RedisEventBus implements EventBus on Redis Pub/Sub. All channels share one
// PubSub connection; each Redis channel is subscribed while at least one
// local subscriber wants it.
type RedisEventBus struct {
	client *redisclient.Client
	prefix string
	hub    *fanout

	mu     sync.Mutex
	pubsub *redis.PubSub
	ctx    context.Context
	cancel context.CancelFunc
}

// RedisBusOption configures a RedisEventBus
type RedisBusOption func(*RedisEventBus)

// WithChannelPrefix replaces DefaultChannelPrefix
func WithChannelPrefix(prefix string) RedisBusOption {
	return func(b *RedisEventBus) { b.prefix = prefix }
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client, opts ...RedisBusOption) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisEventBus{
		client: client,
		prefix: DefaultChannelPrefix,
		hub:    newFanout(),
		ctx:    ctx,
		cancel: cancel,
	}
	if p := client.KeyPrefix(); p != "" {
		b.prefix = p
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish sends event to every process subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ActivityEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, b.prefix+channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish activity event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("activity_id", event.ID).Str("kind", string(event.Kind)).Msg("Published activity")
	return nil
}

// Subscribe subscribes to events on a channel until ctx is done
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ActivityEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ctx.Err() != nil {
		ch, _ := b.hub.add(channel)
		return ch, nil
	}

	ch, first := b.hub.add(channel)
	if first {
		if err := b.subscribeRedis(ctx, channel); err != nil {
			b.hub.remove(channel, ch)
			return nil, err
		}
	}
	log.Debug().Str("channel", channel).Int("subscribers", b.hub.count(channel)).Msg("Subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
			return
		}
		b.unsubscribe(channel, ch)
	}()
	return ch, nil
}

// subscribeRedis joins the Redis channel, opening the shared PubSub on first use
func (b *RedisEventBus) subscribeRedis(ctx context.Context, channel string) error {
	key := b.prefix + channel
	if b.pubsub == nil {
		pubsub := b.client.Client().Subscribe(b.ctx, key)
		// Wait for the confirmation so publishes right after Subscribe are seen
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		b.pubsub = pubsub
		go b.receive(pubsub.Channel())
		return nil
	}
	if err := b.pubsub.Subscribe(ctx, key); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	return nil
}

func (b *RedisEventBus) unsubscribe(channel string, ch chan *entities.ActivityEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hub.remove(channel, ch) || b.pubsub == nil {
		return
	}
	if err := b.pubsub.Unsubscribe(b.ctx, b.prefix+channel); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("Failed to unsubscribe")
		return
	}
	log.Debug().Str("channel", channel).Msg("Closed subscription")
}

// receive decodes messages from the shared PubSub and hands them to local subscribers
func (b *RedisEventBus) receive(messages <-chan *redis.Message) {
	for msg := range messages {
		channel, ok := strings.CutPrefix(msg.Channel, b.prefix)
		if !ok {
			continue
		}
		var event entities.ActivityEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("Dropping malformed activity payload")
			continue
		}
		b.hub.deliver(channel, &event)
	}
}

// Close ends the shared subscription and closes every subscriber channel
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.pubsub != nil {
		if cerr := b.pubsub.Close(); cerr != nil {
			err = fmt.Errorf("failed to close subscription: %w", cerr)
		}
		b.pubsub = nil
	}
	b.hub.closeAll()

	log.Info().Msg("Event bus closed")
	return err
}
