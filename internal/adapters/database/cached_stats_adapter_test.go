package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type mockStatsRepository struct {
	mock.Mock
}

func (m *mockStatsRepository) CountRSVPsByStatus(ctx context.Context, eventID string) (entities.AttendanceCounts, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(entities.AttendanceCounts), args.Error(1)
}

func (m *mockStatsRepository) RatingTotals(ctx context.Context, eventID string) (int, int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *mockStatsRepository) CountEventsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (repositories.DayCounts, error) {
	args := m.Called(ctx, viewer, from, to)
	return args.Get(0).(repositories.DayCounts), args.Error(1)
}

func (m *mockStatsRepository) CountRSVPsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (repositories.DayCounts, error) {
	args := m.Called(ctx, viewer, from, to)
	return args.Get(0).(repositories.DayCounts), args.Error(1)
}

func TestCachedStatsAdapter_CachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	inner := &mockStatsRepository{}
	adapter := NewCachedStatsAdapter(inner, newMapCache(), time.Minute)

	var hits, misses int
	adapter.OnLookup(func(ctx context.Context, key string, hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	inner.On("CountRSVPsByStatus", mock.Anything, "evt-1").Return(entities.AttendanceCounts{Going: 2}, nil).Once()
	for i := 0; i < 3; i++ {
		counts, err := adapter.CountRSVPsByStatus(ctx, "evt-1")
		require.NoError(t, err)
		assert.Equal(t, 2, counts.Going)
	}
	assert.Equal(t, 1, misses)
	assert.Equal(t, 2, hits)

	require.NoError(t, adapter.Invalidate(ctx, "evt-1"))
	inner.On("CountRSVPsByStatus", mock.Anything, "evt-1").Return(entities.AttendanceCounts{Going: 3}, nil).Once()
	counts, err := adapter.CountRSVPsByStatus(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Going)

	inner.AssertExpectations(t)
}

func TestCachedStatsAdapter_FlushDropsEveryEvent(t *testing.T) {
	ctx := context.Background()
	inner := &mockStatsRepository{}
	adapter := NewCachedStatsAdapter(inner, newMapCache(), time.Minute)

	inner.On("RatingTotals", mock.Anything, "evt-1").Return(12, 3, nil).Once()
	inner.On("RatingTotals", mock.Anything, "evt-2").Return(5, 1, nil).Once()
	for _, id := range []string{"evt-1", "evt-2", "evt-1", "evt-2"} {
		_, _, err := adapter.RatingTotals(ctx, id)
		require.NoError(t, err)
	}

	require.NoError(t, adapter.Flush(ctx))

	inner.On("RatingTotals", mock.Anything, "evt-1").Return(0, 0, nil).Once()
	sum, count, err := adapter.RatingTotals(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
	assert.Equal(t, 0, count)

	inner.AssertExpectations(t)
}

func TestCachedStatsAdapter_WriteDuringMissIsNotCachedStale(t *testing.T) {
	ctx := context.Background()
	inner := &mockStatsRepository{}
	adapter := NewCachedStatsAdapter(inner, newMapCache(), time.Minute)

	// The RSVP commits and invalidates while the first reader holds the
	// pre-write counts but has not cached them yet.
	inner.On("CountRSVPsByStatus", mock.Anything, "evt-1").
		Run(func(args mock.Arguments) {
			require.NoError(t, adapter.Invalidate(ctx, "evt-1"))
		}).
		Return(entities.AttendanceCounts{Going: 0}, nil).Once()
	inner.On("CountRSVPsByStatus", mock.Anything, "evt-1").
		Return(entities.AttendanceCounts{Going: 1}, nil).Once()

	stale, err := adapter.CountRSVPsByStatus(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stale.Going)

	counts, err := adapter.CountRSVPsByStatus(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Going)

	inner.On("RatingTotals", mock.Anything, "evt-1").
		Run(func(args mock.Arguments) {
			require.NoError(t, adapter.Invalidate(ctx, "evt-1"))
		}).
		Return(4, 1, nil).Once()
	inner.On("RatingTotals", mock.Anything, "evt-1").Return(9, 2, nil).Once()

	_, _, err = adapter.RatingTotals(ctx, "evt-1")
	require.NoError(t, err)
	sum, count, err := adapter.RatingTotals(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 9, sum)
	assert.Equal(t, 2, count)

	inner.AssertExpectations(t)
}

func TestCachedStatsAdapter_InvalidateLeavesOtherEventsCached(t *testing.T) {
	ctx := context.Background()
	inner := &mockStatsRepository{}
	adapter := NewCachedStatsAdapter(inner, newMapCache(), time.Minute)

	inner.On("CountRSVPsByStatus", mock.Anything, "evt-2").Return(entities.AttendanceCounts{Maybe: 4}, nil).Once()
	_, err := adapter.CountRSVPsByStatus(ctx, "evt-2")
	require.NoError(t, err)

	require.NoError(t, adapter.Invalidate(ctx, "evt-1"))
	counts, err := adapter.CountRSVPsByStatus(ctx, "evt-2")
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Maybe)

	inner.AssertExpectations(t)
}

func TestCachedStatsAdapter_ReportsAggregateNames(t *testing.T) {
	ctx := context.Background()
	inner := &mockStatsRepository{}
	adapter := NewCachedStatsAdapter(inner, newMapCache(), time.Minute)

	var labels []string
	adapter.OnLookup(func(ctx context.Context, aggregate string, hit bool) {
		labels = append(labels, aggregate)
	})

	inner.On("CountRSVPsByStatus", mock.Anything, "9b2f6c1e-0000-4000-8000-000000000001").Return(entities.AttendanceCounts{}, nil).Once()
	inner.On("RatingTotals", mock.Anything, "9b2f6c1e-0000-4000-8000-000000000001").Return(0, 0, nil).Once()
	_, err := adapter.CountRSVPsByStatus(ctx, "9b2f6c1e-0000-4000-8000-000000000001")
	require.NoError(t, err)
	_, _, err = adapter.RatingTotals(ctx, "9b2f6c1e-0000-4000-8000-000000000001")
	require.NoError(t, err)

	assert.Equal(t, []string{"attendance", "rating"}, labels)
}
