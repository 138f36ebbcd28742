package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/eventhub/internal/api/middleware"
	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// RSVPService is the RSVP use case surface used by the handler
type RSVPService interface {
	UpsertRSVP(ctx context.Context, id entities.Identity, eventID string, input rules.RSVPInput) (*entities.RSVP, error)
	DeleteRSVP(ctx context.Context, id entities.Identity, eventID string) error
}

// RSVPHandler handles attendance requests
type RSVPHandler struct {
	service RSVPService
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(service RSVPService) *RSVPHandler {
	return &RSVPHandler{service: service}
}

// UpsertRSVP handles PUT /api/events/{id}/rsvp
func (h *RSVPHandler) UpsertRSVP(w http.ResponseWriter, r *http.Request) {
	var input rules.RSVPInput
	if err := decodeJSON(r, &input, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	rsvp, err := h.service.UpsertRSVP(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rsvp)
}

// DeleteRSVP handles DELETE /api/events/{id}/rsvp
func (h *RSVPHandler) DeleteRSVP(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRSVP(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
