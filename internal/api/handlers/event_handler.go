package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/zatekoja/eventhub/internal/api/middleware"
	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/application/services"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// EventService is the event use case surface used by the handlers
type EventService interface {
	CreateEvent(ctx context.Context, id entities.Identity, input rules.CreateEventInput) (*entities.Event, error)
	GetEvent(ctx context.Context, id entities.Identity, eventID string) (*entities.EventDetails, error)
	VisibleEvent(ctx context.Context, id entities.Identity, eventID string) (*entities.Event, error)
	UpdateEvent(ctx context.Context, id entities.Identity, eventID string, input rules.UpdateEventInput) (*entities.Event, error)
	DeleteEvent(ctx context.Context, id entities.Identity, eventID string) error
	ListPublicUpcomingEvents(ctx context.Context, id entities.Identity, query services.ListEventsQuery) ([]*entities.EventSummary, error)
}

// EventHandler handles event requests
type EventHandler struct {
	service EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(service EventService) *EventHandler {
	return &EventHandler{service: service}
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input rules.CreateEventInput
	if err := decodeJSON(r, &input, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	event, err := h.service.CreateEvent(r.Context(), middleware.IdentityFrom(r.Context()), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /api/events?q=&limit=&offset=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := optionalInt(query.Get("limit"), "limit")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	offset, err := optionalInt(query.Get("offset"), "offset")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	events, err := h.service.ListPublicUpcomingEvents(r.Context(), middleware.IdentityFrom(r.Context()), services.ListEventsQuery{
		Text:   query.Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.GetEvent(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, details)
}

// UpdateEvent handles PATCH /api/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var input rules.UpdateEventInput
	if err := decodeJSON(r, &input, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	event, err := h.service.UpdateEvent(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /api/events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEvent(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func optionalInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError(name + " must be a non-negative integer")
	}
	return n, nil
}
