package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
	Rule  string `json:"rule,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// statusFor maps an error type to its HTTP status
func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeValidation, apperrors.ErrorTypeInvalidTimeRange:
		return http.StatusBadRequest
	case apperrors.ErrorTypeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusForbidden
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConstraintViolation:
		return http.StatusConflict
	case apperrors.ErrorTypeIneligibleReview:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondWithAppError writes err with the status of its type. Internal
// details are logged, never returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("unexpected error", err)
	}

	status := statusFor(appErr.Type)
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		message = "internal server error"
	}

	respondWithJSON(w, status, ErrorResponse{
		Error: message,
		Type:  string(appErr.Type),
		Rule:  appErr.Rule,
	})
}

// decodeJSON reads the request body into dst. An empty body leaves dst at
// its zero value when allowEmpty is set.
func decodeJSON(r *http.Request, dst interface{}, allowEmpty bool) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return apperrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}
