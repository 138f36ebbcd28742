package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zatekoja/eventhub/internal/application/loaders"
	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/policy"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// Listing page bounds
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
	// MaxSearchWindow bounds offset+limit of a text search
	MaxSearchWindow = 1000
)

// ListEventsQuery narrows the upcoming events listing
type ListEventsQuery struct {
	Text   string
	Limit  int
	Offset int
}

// EventService handles event lifecycle and lookups
type EventService struct {
	store  repositories.Store
	collab Collaborators
}

// NewEventService creates a new event service
func NewEventService(store repositories.Store, collab Collaborators) *EventService {
	return &EventService{store: store, collab: collab}
}

// CreateEvent stores a new event organized by the caller
func (s *EventService) CreateEvent(ctx context.Context, id entities.Identity, input rules.CreateEventInput) (*entities.Event, error) {
	ctx, span := observability.StartSpan(ctx, "EventService.CreateEvent")
	defer span.End()

	event, err := rules.NewEvent(uuid.NewString(), id.UserID, input)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.KindEvent, policy.OpInsert, event); err != nil {
		return nil, err
	}
	if err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		return tx.Events().Create(ctx, event)
	}); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	s.index(ctx, event)
	s.collab.afterWrite(ctx, event.ID, entities.ActivityEventCreated, id, "event", "insert")
	observability.LoggerFromContext(ctx).Debug().Str("event_id", event.ID).Msg("Created event")
	return event, nil
}

// GetEvent returns the event with its organizer, RSVPs and reviews
func (s *EventService) GetEvent(ctx context.Context, id entities.Identity, eventID string) (*entities.EventDetails, error) {
	ctx, span := observability.StartSpan(ctx, "EventService.GetEvent")
	defer span.End()

	event, err := visibleEvent(ctx, s.store, id, eventID, policy.OpSelect)
	if err != nil {
		return nil, err
	}

	organizers, err := s.loadersFor(ctx).LoadProfiles(ctx, []string{event.OrganizerID})
	if err != nil {
		return nil, err
	}
	rsvps, err := s.store.RSVPs().ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.store.Reviews().ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if rsvps == nil {
		rsvps = []*entities.RSVP{}
	}
	if reviews == nil {
		reviews = []*entities.Review{}
	}

	return &entities.EventDetails{
		Event:     event,
		Organizer: organizers[event.OrganizerID].Summary(),
		RSVPs:     rsvps,
		Reviews:   reviews,
	}, nil
}

// VisibleEvent returns the event when the caller may see it
func (s *EventService) VisibleEvent(ctx context.Context, id entities.Identity, eventID string) (*entities.Event, error) {
	return visibleEvent(ctx, s.store, id, eventID, policy.OpSelect)
}

// UpdateEvent applies a partial update to an event the caller organizes
func (s *EventService) UpdateEvent(ctx context.Context, id entities.Identity, eventID string, input rules.UpdateEventInput) (*entities.Event, error) {
	var updated *entities.Event
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		current, err := visibleEvent(ctx, tx, id, eventID, policy.OpUpdate)
		if err != nil {
			return err
		}
		next, err := rules.ApplyEventUpdate(current, input)
		if err != nil {
			return err
		}
		if err := tx.Events().Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, updated)
	s.collab.afterWrite(ctx, updated.ID, entities.ActivityEventUpdated, id, "event", "update")
	return updated, nil
}

// DeleteEvent removes an event the caller organizes along with its RSVPs
// and reviews
func (s *EventService) DeleteEvent(ctx context.Context, id entities.Identity, eventID string) error {
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		if _, err := visibleEvent(ctx, tx, id, eventID, policy.OpDelete); err != nil {
			return err
		}
		return tx.Events().Delete(ctx, eventID)
	})
	if err != nil {
		return err
	}

	if s.collab.Search != nil {
		if err := s.collab.Search.Remove(ctx, eventID); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_id", eventID).Msg("Failed to remove event from search index")
		}
	}
	s.collab.afterWrite(ctx, eventID, entities.ActivityEventDeleted, id, "event", "delete")
	return nil
}

// ListPublicUpcomingEvents returns the events visible to the caller that have
// not started yet, ascending by start time. Private events appear only to
// their organizer.
func (s *EventService) ListPublicUpcomingEvents(ctx context.Context, id entities.Identity, query ListEventsQuery) ([]*entities.EventSummary, error) {
	ctx, span := observability.StartSpan(ctx, "EventService.ListPublicUpcomingEvents")
	defer span.End()

	filter := repositories.EventFilter{
		Viewer: id,
		From:   s.collab.now(),
		Text:   strings.TrimSpace(query.Text),
		Limit:  clampLimit(query.Limit),
		Offset: max(query.Offset, 0),
	}
	if filter.Text != "" && filter.Offset+filter.Limit > MaxSearchWindow {
		return nil, apperrors.NewValidationError(fmt.Sprintf("text search pages end at result %d", MaxSearchWindow))
	}
	if filter.Text != "" && s.collab.Search != nil {
		ids, err := s.collab.Search.SearchIDs(ctx, filter.Text, filter.Offset+filter.Limit)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Search index unavailable, filtering in store")
		} else {
			// The index holds public events only. Keeping Text makes the
			// store add the viewer's own private matches, and it re-checks
			// visibility and start time for every candidate.
			filter.IDs = ids
			if filter.IDs == nil {
				filter.IDs = []string{}
			}
		}
	}

	events, err := s.store.Events().ListUpcoming(ctx, filter)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	organizerIDs := make([]string, 0, len(events))
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if !seen[e.OrganizerID] {
			seen[e.OrganizerID] = true
			organizerIDs = append(organizerIDs, e.OrganizerID)
		}
	}
	organizers, err := s.loadersFor(ctx).LoadProfiles(ctx, organizerIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]*entities.EventSummary, 0, len(events))
	for _, e := range events {
		summaries = append(summaries, &entities.EventSummary{
			ID:        e.ID,
			Title:     e.Title,
			Location:  e.Location,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			IsPublic:  e.IsPublic,
			Organizer: organizers[e.OrganizerID].Summary(),
		})
	}
	return summaries, nil
}

// Reindex pushes every public upcoming event into the search index, page by
// page. It returns the number of events indexed.
func (s *EventService) Reindex(ctx context.Context) (int, error) {
	ctx, span := observability.StartSpan(ctx, "EventService.Reindex")
	defer span.End()

	if s.collab.Search == nil {
		return 0, nil
	}

	from := s.collab.now()
	indexed := 0
	for offset := 0; ; offset += MaxListLimit {
		page, err := s.store.Events().ListUpcoming(ctx, repositories.EventFilter{
			Viewer: entities.Anonymous,
			From:   from,
			Limit:  MaxListLimit,
			Offset: offset,
		})
		if err != nil {
			observability.RecordError(span, err)
			return indexed, err
		}
		for _, event := range page {
			if err := s.collab.Search.Index(ctx, event); err != nil {
				observability.RecordError(span, err)
				return indexed, err
			}
			indexed++
		}
		if len(page) < MaxListLimit {
			return indexed, nil
		}
	}
}

// index keeps the search index in step with a committed event. Private
// events are removed so they never surface in text search.
func (s *EventService) index(ctx context.Context, event *entities.Event) {
	if s.collab.Search == nil {
		return
	}
	if err := s.collab.Search.Index(ctx, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_id", event.ID).Msg("Failed to index event")
	}
}

func (s *EventService) loadersFor(ctx context.Context) *loaders.Loaders {
	if l := loaders.For(ctx); l != nil {
		return l
	}
	return loaders.NewLoaders(s.store)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
