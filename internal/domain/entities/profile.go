package entities

import (
	"strings"
	"time"

	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// DefaultFullName is used when registration metadata carries no name.
const DefaultFullName = "New Member"

// Profile is the public record linked 1:1 with an external account.
type Profile struct {
	ID             string    `json:"id" db:"id"`
	FullName       string    `json:"full_name" db:"full_name"`
	Bio            string    `json:"bio" db:"bio"`
	Location       *string   `json:"location,omitempty" db:"location"`
	ProfilePicture *string   `json:"profile_picture,omitempty" db:"profile_picture"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CheckInvariants validates the row before it is written.
func (p *Profile) CheckInvariants() error {
	if strings.TrimSpace(p.ID) == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleProfileExists, "profile id is required")
	}
	if strings.TrimSpace(p.FullName) == "" {
		return apperrors.NewConstraintViolation(apperrors.RuleRequiredText, "full_name must not be empty")
	}
	return nil
}

// ProfileSummary is the organizer projection embedded in event listings.
type ProfileSummary struct {
	ID             string  `json:"id"`
	FullName       string  `json:"full_name"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// Summary returns the listing projection of the profile.
func (p *Profile) Summary() *ProfileSummary {
	if p == nil {
		return nil
	}
	return &ProfileSummary{ID: p.ID, FullName: p.FullName, ProfilePicture: p.ProfilePicture}
}
