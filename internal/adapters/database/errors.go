package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// constraintRules maps schema constraint names to invariant rule names.
var constraintRules = map[string]string{
	"profiles_pkey":               apperrors.RuleProfileUnique,
	"events_pkey":                 apperrors.RulePrimaryKey,
	"rsvps_pkey":                  apperrors.RulePrimaryKey,
	"reviews_pkey":                apperrors.RulePrimaryKey,
	"rsvps_event_user_key":        apperrors.RuleRSVPUnique,
	"reviews_event_user_key":      apperrors.RuleReviewUnique,
	"events_time_range":           apperrors.RuleEventTimeRange,
	"reviews_rating_range":        apperrors.RuleReviewRatingRange,
	"rsvps_status_check":          apperrors.RuleRSVPStatus,
	"profiles_full_name_required": apperrors.RuleRequiredText,
	"events_title_required":       apperrors.RuleRequiredText,
	"events_description_required": apperrors.RuleRequiredText,
	"reviews_comment_required":    apperrors.RuleRequiredText,
	"events_organizer_fk":         apperrors.RuleProfileExists,
	"rsvps_event_fk":              apperrors.RuleEventExists,
	"rsvps_user_fk":               apperrors.RuleProfileExists,
	"reviews_event_fk":            apperrors.RuleEventExists,
	"reviews_user_fk":             apperrors.RuleProfileExists,
}

// SQLSTATE classes handled as constraint violations.
const (
	codeNotNull    = "23502"
	codeForeignKey = "23503"
	codeUnique     = "23505"
	codeCheck      = "23514"
)

// translateError maps driver errors to AppErrors. entity names the row kind
// for not-found messages.
func translateError(err error, entity string) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError(entity + " not found")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUnique, codeForeignKey, codeCheck, codeNotNull:
			rule := constraintRules[pqErr.Constraint]
			switch rule {
			case apperrors.RuleReviewUnique:
				out := apperrors.NewDuplicateReviewError()
				out.Err = err
				return out
			case apperrors.RuleEventTimeRange:
				out := apperrors.NewInvalidTimeRangeError()
				out.Err = err
				return out
			}
			if rule == "" && pqErr.Code == codeNotNull {
				rule = apperrors.RuleRequiredText
			}
			out := apperrors.NewConstraintViolation(rule, pqErr.Message)
			out.Err = err
			return out
		}
	}

	return apperrors.NewInternalError("failed to access "+entity, err)
}
