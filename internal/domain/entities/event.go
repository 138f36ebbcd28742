package entities

import (
	"strings"
	"time"

	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// Event is a scheduled community gathering owned by its organizer.
type Event struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	OrganizerID string    `json:"organizer_id" db:"organizer_id"`
	Location    string    `json:"location" db:"location"`
	StartTime   time.Time `json:"start_time" db:"start_time"`
	EndTime     time.Time `json:"end_time" db:"end_time"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CheckInvariants validates the row before it is written.
func (e *Event) CheckInvariants() error {
	if strings.TrimSpace(e.Title) == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleRequiredText, "title must not be empty")
	}
	if strings.TrimSpace(e.Description) == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleRequiredText, "description must not be empty")
	}
	if strings.TrimSpace(e.OrganizerID) == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleProfileExists, "organizer_id is required")
	}
	if !e.EndTime.After(e.StartTime) {
		return apperrors.NewInvalidTimeRangeError()
	}
	return nil
}

// HasEnded reports whether the event's end time is strictly before now.
func (e *Event) HasEnded(now time.Time) bool {
	return e.EndTime.Before(now)
}

// VisibleTo reports whether the identity may see the event at all.
func (e *Event) VisibleTo(id Identity) bool {
	return e.IsPublic || id.Is(e.OrganizerID)
}

// EventSummary is a row of the upcoming events listing.
type EventSummary struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Location  string          `json:"location"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	IsPublic  bool            `json:"is_public"`
	Organizer *ProfileSummary `json:"organizer,omitempty"`
}

// EventDetails is the full view returned by a direct lookup.
type EventDetails struct {
	Event     *Event          `json:"event"`
	Organizer *ProfileSummary `json:"organizer,omitempty"`
	RSVPs     []*RSVP         `json:"rsvps"`
	Reviews   []*Review       `json:"reviews"`
}
