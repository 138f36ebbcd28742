package entities

import (
	"strings"
	"time"

	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a post-event rating by an attendee.
type Review struct {
	ID        string    `json:"id" db:"id"`
	EventID   string    `json:"event_id" db:"event_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"` // 1-5
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CheckInvariants validates the row before it is written.
func (r *Review) CheckInvariants() error {
	if r.EventID == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleEventExists, "event_id is required")
	}
	if r.UserID == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleProfileExists, "user_id is required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return apperrors.NewConstraintViolation(apperrors.RuleReviewRatingRange, "rating must be between 1 and 5")
	}
	if strings.TrimSpace(r.Comment) == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleRequiredText, "comment must not be empty")
	}
	return nil
}
