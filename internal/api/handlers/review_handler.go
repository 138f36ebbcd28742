package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/eventhub/internal/api/middleware"
	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/domain/entities"
)

// ReviewService is the review use case surface used by the handler
type ReviewService interface {
	SubmitReview(ctx context.Context, id entities.Identity, eventID string, input rules.ReviewInput) (*entities.Review, error)
	UpdateReview(ctx context.Context, id entities.Identity, reviewID string, input rules.UpdateReviewInput) (*entities.Review, error)
	DeleteReview(ctx context.Context, id entities.Identity, reviewID string) error
}

// ReviewHandler handles review requests
type ReviewHandler struct {
	service ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// SubmitReview handles POST /api/events/{id}/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var input rules.ReviewInput
	if err := decodeJSON(r, &input, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	review, err := h.service.SubmitReview(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, review)
}

// UpdateReview handles PATCH /api/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	var input rules.UpdateReviewInput
	if err := decodeJSON(r, &input, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id"), input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteReview(r.Context(), middleware.IdentityFrom(r.Context()), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
