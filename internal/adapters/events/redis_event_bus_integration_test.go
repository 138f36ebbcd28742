//go:build integration

package events

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/redis"
	"github.com/zatekoja/eventhub/pkg/config"
)

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	host := os.Getenv("TEST_REDIS_HOST")
	if host == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}
	port, err := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if err != nil {
		port = 6379
	}

	client, err := redis.NewClient(context.Background(), &config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err, "Failed to create redis client")
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func waitForActivity(t *testing.T, ch <-chan *entities.ActivityEvent) *entities.ActivityEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for activity")
		return nil
	}
}

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	bus := NewRedisEventBus(newTestRedisClient(t))
	defer bus.Close()

	channel := providers.EventChannel("evt-redis-1")
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := bus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := bus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	activity := entities.NewActivityEvent("evt-redis-1", entities.ActivityReviewCreated, "bob")
	require.NoError(t, bus.Publish(context.Background(), channel, activity))

	received1 := waitForActivity(t, sub1)
	received2 := waitForActivity(t, sub2)
	assert.Equal(t, activity.ID, received1.ID)
	assert.Equal(t, activity.ID, received2.ID)
	assert.Equal(t, entities.ActivityReviewCreated, received1.Kind)
}

func TestRedisEventBusUnsubscribeOnCancelIntegration(t *testing.T) {
	bus := NewRedisEventBus(newTestRedisClient(t))
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bus.Subscribe(ctx, providers.ChannelActivity)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-sub:
		assert.False(t, ok, "subscription should close after cancel")
	case <-time.After(3 * time.Second):
		t.Fatal("subscription did not close")
	}
}

func TestRedisEventBusPrefixIsolationIntegration(t *testing.T) {
	client := newTestRedisClient(t)
	blue := NewRedisEventBus(client, WithChannelPrefix("blue:"))
	green := NewRedisEventBus(client, WithChannelPrefix("green:"))
	defer blue.Close()
	defer green.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blueSub, err := blue.Subscribe(ctx, providers.ChannelActivity)
	require.NoError(t, err)
	greenSub, err := green.Subscribe(ctx, providers.ChannelActivity)
	require.NoError(t, err)

	activity := entities.NewActivityEvent("evt-1", entities.ActivityEventCreated, "ann")
	require.NoError(t, blue.Publish(context.Background(), providers.ChannelActivity, activity))

	assert.Equal(t, activity.ID, waitForActivity(t, blueSub).ID)
	select {
	case got := <-greenSub:
		t.Fatalf("activity leaked across prefixes: %v", got)
	case <-time.After(200 * time.Millisecond):
	}
}
