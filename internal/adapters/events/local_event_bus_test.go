package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
)

func TestLocalEventBus_DeliversToChannelSubscribers(t *testing.T) {
	bus := NewLocalEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, providers.EventChannel("e1"))
	require.NoError(t, err)
	other, err := bus.Subscribe(ctx, providers.EventChannel("e2"))
	require.NoError(t, err)

	event := entities.NewActivityEvent("e1", entities.ActivityRSVPUpserted, "u1")
	require.NoError(t, bus.Publish(ctx, providers.EventChannel("e1"), event))

	select {
	case got := <-ch:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, entities.ActivityRSVPUpserted, got.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected activity on subscribed channel")
	}

	select {
	case got := <-other:
		t.Fatalf("unexpected activity on other channel: %v", got)
	default:
	}
}

func TestLocalEventBus_ClosesChannelWhenContextDone(t *testing.T) {
	bus := NewLocalEventBus()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, providers.ChannelActivity)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed")
	}
}
