package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
)

// CacheInvalidationService drops cached aggregates when any instance
// publishes a write. The writing instance has already invalidated its own
// view; this keeps peers sharing the bus from serving stale counts.
type CacheInvalidationService struct {
	stats    StatsInvalidator
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(stats StatsInvalidator, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		stats:    stats,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for activity and invalidating cached stats
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.ChannelActivity)
	if err != nil {
		return fmt.Errorf("failed to subscribe to activity: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the listener to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ActivityEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.ActivityEvent) {
	if !invalidatesStats(event.Kind) {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	if err := s.stats.Invalidate(ctx, event.EventID); err != nil {
		log.Warn().Err(err).Str("event_id", event.EventID).Str("kind", string(event.Kind)).Msg("Failed to invalidate stats cache")
		return
	}
	log.Debug().Str("event_id", event.EventID).Str("kind", string(event.Kind)).Msg("Invalidated stats cache")
}
