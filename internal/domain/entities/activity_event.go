package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActivityKind names a committed write.
type ActivityKind string

const (
	ActivityEventCreated  ActivityKind = "event.created"
	ActivityEventUpdated  ActivityKind = "event.updated"
	ActivityEventDeleted  ActivityKind = "event.deleted"
	ActivityRSVPUpserted  ActivityKind = "rsvp.upserted"
	ActivityRSVPDeleted   ActivityKind = "rsvp.deleted"
	ActivityReviewCreated ActivityKind = "review.created"
	ActivityReviewUpdated ActivityKind = "review.updated"
	ActivityReviewDeleted ActivityKind = "review.deleted"
)

// ActivityEvent notifies subscribers that something about an event changed.
type ActivityEvent struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	Kind      ActivityKind `json:"kind"`
	ActorID   string       `json:"actor_id"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewActivityEvent creates an activity event stamped now.
func NewActivityEvent(eventID string, kind ActivityKind, actorID string) *ActivityEvent {
	return &ActivityEvent{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Kind:      kind,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	}
}
