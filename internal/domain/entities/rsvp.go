package entities

import (
	"time"

	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// RSVPStatus is an attendance commitment.
type RSVPStatus string

const (
	RSVPStatusGoing    RSVPStatus = "going"
	RSVPStatusMaybe    RSVPStatus = "maybe"
	RSVPStatusNotGoing RSVPStatus = "not_going"
)

// RSVPStatuses lists the valid statuses in reporting order.
var RSVPStatuses = []RSVPStatus{RSVPStatusGoing, RSVPStatusMaybe, RSVPStatusNotGoing}

// Valid reports whether s is a known status.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPStatusGoing, RSVPStatusMaybe, RSVPStatusNotGoing:
		return true
	}
	return false
}

// RSVP is one user's attendance answer for one event.
type RSVP struct {
	ID        string     `json:"id" db:"id"`
	EventID   string     `json:"event_id" db:"event_id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Status    RSVPStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// CheckInvariants validates the row before it is written.
func (r *RSVP) CheckInvariants() error {
	if r.EventID == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleEventExists, "event_id is required")
	}
	if r.UserID == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleProfileExists, "user_id is required")
	}
	if !r.Status.Valid() {
		return apperrors.NewConstraintViolation(apperrors.RuleRSVPStatus, "status must be going, maybe or not_going")
	}
	return nil
}
