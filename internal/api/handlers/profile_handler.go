package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/eventhub/internal/api/middleware"
	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// ProfileService is the profile use case surface used by the handler
type ProfileService interface {
	RegisterIdentity(ctx context.Context, id entities.Identity, input rules.RegisterIdentityInput) (*entities.Profile, bool, error)
	GetProfile(ctx context.Context, id entities.Identity, profileID string) (*entities.Profile, error)
	UpdateProfile(ctx context.Context, id entities.Identity, input rules.UpdateProfileInput) (*entities.Profile, error)
	RemoveIdentity(ctx context.Context, userID string) error
}

// ProfileHandler handles identity and profile requests
type ProfileHandler struct {
	service ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Register handles POST /api/identities/register
func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input rules.RegisterIdentityInput
	if err := decodeJSON(r, &input, true); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	profile, created, err := h.service.RegisterIdentity(r.Context(), middleware.IdentityFrom(r.Context()), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, profile)
}

// GetProfile handles GET /api/profiles/{id}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PATCH /api/profiles/me
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var input rules.UpdateProfileInput
	if err := decodeJSON(r, &input, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), middleware.IdentityFrom(r.Context()), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// RemoveIdentity handles DELETE /internal/identities/{id}
func (h *ProfileHandler) RemoveIdentity(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveIdentity(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
