package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found or is hidden from the caller
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates malformed or out-of-range input
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConstraintViolation indicates a uniqueness or referential integrity failure at commit time
	ErrorTypeConstraintViolation ErrorType = "CONSTRAINT_VIOLATION"

	// ErrorTypeUnauthorized indicates the identity lacks rights for the requested operation
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeUnauthenticated indicates the request carried an invalid credential
	ErrorTypeUnauthenticated ErrorType = "UNAUTHENTICATED"

	// ErrorTypeIneligibleReview indicates a review was submitted before the event ended
	ErrorTypeIneligibleReview ErrorType = "INELIGIBLE_REVIEW"

	// ErrorTypeInvalidTimeRange indicates an event whose end is not after its start
	ErrorTypeInvalidTimeRange ErrorType = "INVALID_TIME_RANGE"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// Rule names identify the invariant a constraint error refers to.
const (
	RuleRSVPUnique         = "rsvp_unique"
	RuleReviewUnique       = "review_unique"
	RuleEventTimeRange     = "event_time_range"
	RuleReviewRatingRange  = "review_rating_range"
	RuleRSVPStatus         = "rsvp_status"
	RuleRequiredText       = "required_text"
	RuleEventExists        = "event_exists"
	RuleProfileExists      = "profile_exists"
	RuleOrganizerImmutable = "organizer_immutable"
	RuleReviewAfterEnd     = "review_after_end"
	RuleProfileUnique      = "profile_unique"
	RulePrimaryKey         = "primary_key"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Rule    string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Rule != "" {
		msg = fmt.Sprintf("%s: %s [%s]", e.Type, e.Message, e.Rule)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConstraintViolation creates an error naming the violated storage rule
func NewConstraintViolation(rule, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConstraintViolation,
		Message: message,
		Rule:    rule,
	}
}

// NewDuplicateReviewError is returned when the author already reviewed the event.
func NewDuplicateReviewError() *AppError {
	return NewConstraintViolation(RuleReviewUnique, "a review for this event already exists")
}

// NewInvalidTimeRangeError is returned when end_time <= start_time.
func NewInvalidTimeRangeError() *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidTimeRange,
		Message: "end_time must be after start_time",
		Rule:    RuleEventTimeRange,
	}
}

// NewIneligibleReviewError is returned when the event has not ended yet.
func NewIneligibleReviewError() *AppError {
	return &AppError{
		Type:    ErrorTypeIneligibleReview,
		Message: "reviews are accepted only after the event has ended",
		Rule:    RuleReviewAfterEnd,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewUnauthenticatedError creates an error for rejected credentials
func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthenticated,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeInternal when err
// is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	return TypeOf(err) == t
}

// RuleOf returns the rule name carried by err, if any.
func RuleOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Rule
	}
	return ""
}
