// Package rules holds the lifecycle rules applied to writes before they
// reach the store: input validation, default fields and eligibility checks.
package rules

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// RegisterIdentityInput carries optional signup metadata.
type RegisterIdentityInput struct {
	FullName       string  `json:"full_name"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,len=0|url"`
}

// UpdateProfileInput is a partial profile update; nil fields are unchanged.
type UpdateProfileInput struct {
	FullName       *string `json:"full_name" validate:"omitempty,notblank,max=200"`
	Bio            *string `json:"bio" validate:"omitempty,max=2000"`
	Location       *string `json:"location" validate:"omitempty,max=200"`
	ProfilePicture *string `json:"profile_picture" validate:"omitempty,len=0|url"`
}

// CreateEventInput is the payload of a new event.
type CreateEventInput struct {
	Title       string    `json:"title" validate:"required,notblank,max=200"`
	Description string    `json:"description" validate:"required,notblank"`
	Location    string    `json:"location" validate:"max=200"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	IsPublic    *bool     `json:"is_public"`
}

// UpdateEventInput is a partial event update; nil fields are unchanged.
// OrganizerID is accepted only to reject attempts to reassign ownership.
type UpdateEventInput struct {
	Title       *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string    `json:"description" validate:"omitempty,notblank"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	IsPublic    *bool      `json:"is_public"`
	OrganizerID *string    `json:"organizer_id"`
}

// RSVPInput is the payload of an RSVP upsert.
type RSVPInput struct {
	Status string `json:"status" validate:"required,oneof=going maybe not_going"`
}

// ReviewInput is the payload of a new review.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"required,notblank,max=4000"`
}

// UpdateReviewInput is a partial review update.
type UpdateReviewInput struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,notblank,max=4000"`
}

// Validate checks input against its validate tags and returns a VALIDATION
// error describing the first failing field.
func Validate(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError(err.Error())
	}
	return apperrors.NewValidationError(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "notblank":
		return fmt.Sprintf("%s must not be empty", field)
	case "min", "max":
		if field == "rating" {
			return fmt.Sprintf("rating must be between %d and %d", entities.MinRating, entities.MaxRating)
		}
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url", "len=0|url":
		return fmt.Sprintf("%s must be a valid URL", field)
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

// DisplayName returns the trimmed name or DefaultFullName when blank.
func DisplayName(fullName string) string {
	if name := strings.TrimSpace(fullName); name != "" {
		return name
	}
	return entities.DefaultFullName
}

// CheckTimeRange rejects events whose end is not strictly after the start.
func CheckTimeRange(start, end time.Time) error {
	if !end.After(start) {
		return apperrors.NewInvalidTimeRangeError()
	}
	return nil
}

// CheckReviewEligible rejects reviews of events that have not ended at now.
func CheckReviewEligible(event *entities.Event, now time.Time) error {
	if !event.HasEnded(now) {
		return apperrors.NewIneligibleReviewError()
	}
	return nil
}

// NewEvent builds the event row for input. Events are public unless the
// caller asks otherwise.
func NewEvent(id string, organizerID string, input CreateEventInput) (*entities.Event, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	if err := CheckTimeRange(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}
	return &entities.Event{
		ID:          id,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		OrganizerID: organizerID,
		Location:    strings.TrimSpace(input.Location),
		StartTime:   input.StartTime.UTC(),
		EndTime:     input.EndTime.UTC(),
		IsPublic:    isPublic,
	}, nil
}

// ApplyEventUpdate merges input into a copy of current.
func ApplyEventUpdate(current *entities.Event, input UpdateEventInput) (*entities.Event, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	if input.OrganizerID != nil && *input.OrganizerID != current.OrganizerID {
		return nil, apperrors.NewConstraintViolation(apperrors.RuleOrganizerImmutable, "organizer_id cannot be changed")
	}
	next := *current
	if input.Title != nil {
		next.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		next.Description = strings.TrimSpace(*input.Description)
	}
	if input.Location != nil {
		next.Location = strings.TrimSpace(*input.Location)
	}
	if input.StartTime != nil {
		next.StartTime = input.StartTime.UTC()
	}
	if input.EndTime != nil {
		next.EndTime = input.EndTime.UTC()
	}
	if input.IsPublic != nil {
		next.IsPublic = *input.IsPublic
	}
	if err := CheckTimeRange(next.StartTime, next.EndTime); err != nil {
		return nil, err
	}
	return &next, nil
}

// ApplyProfileUpdate merges input into a copy of current.
func ApplyProfileUpdate(current *entities.Profile, input UpdateProfileInput) (*entities.Profile, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	next := *current
	if input.FullName != nil {
		next.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Bio != nil {
		next.Bio = *input.Bio
	}
	if input.Location != nil {
		next.Location = optional(*input.Location)
	}
	if input.ProfilePicture != nil {
		next.ProfilePicture = optional(*input.ProfilePicture)
	}
	return &next, nil
}

// ApplyReviewUpdate merges input into a copy of current.
func ApplyReviewUpdate(current *entities.Review, input UpdateReviewInput) (*entities.Review, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	next := *current
	if input.Rating != nil {
		next.Rating = *input.Rating
	}
	if input.Comment != nil {
		next.Comment = strings.TrimSpace(*input.Comment)
	}
	return &next, nil
}

// optional maps an empty string to nil so clearing a field stores NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
