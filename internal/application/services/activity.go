package services

import (
	"context"
	"time"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/policy"
	"github.com/zatekoja/eventhub/internal/domain/providers"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// StatsInvalidator drops cached aggregates after writes.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, eventID string) error
	Flush(ctx context.Context) error
}

// Collaborators are the optional side-effect dependencies shared by the
// write services. Nil fields disable the matching side effect.
type Collaborators struct {
	EventBus providers.EventBus
	Search   providers.EventSearchProvider
	Stats    StatsInvalidator
	Metrics  *observability.Metrics
	Now      func() time.Time
}

func (c Collaborators) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// afterWrite runs the best-effort side effects of a committed write. None of
// them can fail the write.
func (c Collaborators) afterWrite(ctx context.Context, eventID string, kind entities.ActivityKind, actor entities.Identity, entity, op string) {
	logger := observability.LoggerFromContext(ctx)
	observability.RecordWrite(ctx, c.Metrics, entity, op)

	if c.Stats != nil && invalidatesStats(kind) {
		if err := c.Stats.Invalidate(ctx, eventID); err != nil {
			logger.Warn().Err(err).Str("event_id", eventID).Msg("Failed to invalidate stats cache")
		}
	}

	if c.EventBus == nil {
		return
	}
	activity := entities.NewActivityEvent(eventID, kind, actor.UserID)
	for _, channel := range []string{providers.EventChannel(eventID), providers.ChannelActivity} {
		if err := c.EventBus.Publish(ctx, channel, activity); err != nil {
			logger.Warn().Err(err).Str("channel", channel).Str("kind", string(kind)).Msg("Failed to publish activity")
		}
	}
}

func invalidatesStats(kind entities.ActivityKind) bool {
	switch kind {
	case entities.ActivityEventCreated, entities.ActivityEventUpdated:
		return false
	}
	return true
}

// visibleEvent loads an event and checks that id may apply op to it. A
// hidden event is reported as not found to anonymous callers and as
// unauthorized to everyone else.
func visibleEvent(ctx context.Context, store repositories.Store, id entities.Identity, eventID string, op policy.Operation) (*entities.Event, error) {
	event, err := store.Events().GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.VisibleTo(id) && id.IsAnonymous() {
		return nil, apperrors.NewNotFoundError("event not found")
	}
	if err := policy.Authorize(id, policy.KindEvent, op, event); err != nil {
		return nil, err
	}
	return event, nil
}
