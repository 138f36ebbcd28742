package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
)

// CachedStatsAdapter wraps a StatsRepository with per-event caching of the
// attendance and rating aggregates. Trend queries are not cached.
//
// Entries live under a per-event version read before the underlying query.
// Invalidate moves the version, so a reader that raced a write stores its
// result under a version nobody reads again.
type CachedStatsAdapter struct {
	adapter repositories.StatsRepository
	cache   providers.CacheProvider
	ttl     time.Duration
	onHit   func(ctx context.Context, aggregate string, hit bool)
}

// NewCachedStatsAdapter creates a new cached stats adapter
func NewCachedStatsAdapter(adapter repositories.StatsRepository, cache providers.CacheProvider, ttl time.Duration) *CachedStatsAdapter {
	return &CachedStatsAdapter{adapter: adapter, cache: cache, ttl: ttl}
}

// OnLookup registers a callback reporting hits and misses per aggregate
// ("attendance" or "rating").
func (a *CachedStatsAdapter) OnLookup(fn func(ctx context.Context, aggregate string, hit bool)) {
	a.onHit = fn
}

const (
	aggregateAttendance = "attendance"
	aggregateRating     = "rating"
)

// generationKey holds the namespace of every cached aggregate. Flush moves
// the namespace so all older entries become unreachable at once.
const generationKey = "stats:generation"

func versionKey(eventID string) string {
	return "stats:version:" + eventID
}

func aggregateCacheKey(generation, version, aggregate, eventID string) string {
	return fmt.Sprintf("stats:%s:%s:%s:%s", generation, aggregate, eventID, version)
}

func (a *CachedStatsAdapter) readMarker(ctx context.Context, key string) string {
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			log.Warn().Err(err).Str("key", key).Msg("Stats cache marker read failed")
		}
		return "0"
	}
	return string(data)
}

// cacheKey must be computed before the underlying query runs
func (a *CachedStatsAdapter) cacheKey(ctx context.Context, aggregate, eventID string) string {
	return aggregateCacheKey(a.readMarker(ctx, generationKey), a.readMarker(ctx, versionKey(eventID)), aggregate, eventID)
}

// versionTTL outlives every entry written under the previous version, so an
// expired version never resurrects an older entry.
func (a *CachedStatsAdapter) versionTTL() time.Duration {
	if a.ttl <= 0 {
		return 0
	}
	return 2*a.ttl + time.Minute
}

type cachedRating struct {
	Sum   int `json:"sum"`
	Count int `json:"count"`
}

// CountRSVPsByStatus returns cached counts or computes and caches them
func (a *CachedStatsAdapter) CountRSVPsByStatus(ctx context.Context, eventID string) (entities.AttendanceCounts, error) {
	key := a.cacheKey(ctx, aggregateAttendance, eventID)

	var counts entities.AttendanceCounts
	if a.lookup(ctx, aggregateAttendance, key, &counts) {
		return counts, nil
	}

	counts, err := a.adapter.CountRSVPsByStatus(ctx, eventID)
	if err != nil {
		return counts, err
	}
	a.store(ctx, key, counts)
	return counts, nil
}

// RatingTotals returns cached totals or computes and caches them
func (a *CachedStatsAdapter) RatingTotals(ctx context.Context, eventID string) (int, int, error) {
	key := a.cacheKey(ctx, aggregateRating, eventID)

	var cached cachedRating
	if a.lookup(ctx, aggregateRating, key, &cached) {
		return cached.Sum, cached.Count, nil
	}

	sum, count, err := a.adapter.RatingTotals(ctx, eventID)
	if err != nil {
		return 0, 0, err
	}
	a.store(ctx, key, cachedRating{Sum: sum, Count: count})
	return sum, count, nil
}

// CountEventsByDay is not cached
func (a *CachedStatsAdapter) CountEventsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (repositories.DayCounts, error) {
	return a.adapter.CountEventsByDay(ctx, viewer, from, to)
}

// CountRSVPsByDay is not cached
func (a *CachedStatsAdapter) CountRSVPsByDay(ctx context.Context, viewer entities.Identity, from, to time.Time) (repositories.DayCounts, error) {
	return a.adapter.CountRSVPsByDay(ctx, viewer, from, to)
}

// Invalidate moves the event's version so every cached aggregate of it,
// including one a concurrent reader is about to store, is unreachable.
func (a *CachedStatsAdapter) Invalidate(ctx context.Context, eventID string) error {
	return a.cache.Set(ctx, versionKey(eventID), []byte(uuid.NewString()), a.versionTTL())
}

// Flush drops every cached aggregate. Used after cascades that touch an
// unknown set of events.
func (a *CachedStatsAdapter) Flush(ctx context.Context) error {
	return a.cache.Set(ctx, generationKey, []byte(uuid.NewString()), 0)
}

func (a *CachedStatsAdapter) lookup(ctx context.Context, aggregate, key string, dest interface{}) bool {
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			log.Warn().Err(err).Str("key", key).Msg("Stats cache read failed")
		}
		a.report(ctx, aggregate, false)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached stats")
		a.report(ctx, aggregate, false)
		return false
	}
	a.report(ctx, aggregate, true)
	return true
}

func (a *CachedStatsAdapter) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache stats")
	}
}

func (a *CachedStatsAdapter) report(ctx context.Context, aggregate string, hit bool) {
	if a.onHit != nil {
		a.onHit(ctx, aggregate, hit)
	}
}
