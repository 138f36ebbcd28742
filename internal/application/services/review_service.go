package services

import (
	"context"
	"strings"

	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/policy"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// ReviewService handles post-event reviews
type ReviewService struct {
	store  repositories.Store
	collab Collaborators
}

// NewReviewService creates a new review service
func NewReviewService(store repositories.Store, collab Collaborators) *ReviewService {
	return &ReviewService{store: store, collab: collab}
}

// SubmitReview stores the caller's single review of an event that has ended
func (s *ReviewService) SubmitReview(ctx context.Context, id entities.Identity, eventID string, input rules.ReviewInput) (*entities.Review, error) {
	if id.IsAnonymous() {
		return nil, apperrors.NewUnauthorizedError("sign in to review an event")
	}
	if err := rules.Validate(input); err != nil {
		return nil, err
	}

	review := &entities.Review{
		EventID: eventID,
		UserID:  id.UserID,
		Rating:  input.Rating,
		Comment: strings.TrimSpace(input.Comment),
	}
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		event, err := visibleEvent(ctx, tx, id, eventID, policy.OpSelect)
		if err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.KindReview, policy.OpInsert, review); err != nil {
			return err
		}
		if _, err := tx.Reviews().GetByEventAndUser(ctx, eventID, id.UserID); err == nil {
			return apperrors.NewDuplicateReviewError()
		} else if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return err
		}
		if err := rules.CheckReviewEligible(event, s.collab.now()); err != nil {
			return err
		}
		// A concurrent submission that passed the check above still loses
		// on the unique constraint.
		return tx.Reviews().Create(ctx, review)
	})
	if err != nil {
		return nil, err
	}

	s.collab.afterWrite(ctx, eventID, entities.ActivityReviewCreated, id, "review", "insert")
	return review, nil
}

// UpdateReview changes the rating or comment of the caller's review
func (s *ReviewService) UpdateReview(ctx context.Context, id entities.Identity, reviewID string, input rules.UpdateReviewInput) (*entities.Review, error) {
	if id.IsAnonymous() {
		return nil, apperrors.NewUnauthorizedError("sign in to edit a review")
	}

	var updated *entities.Review
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		current, err := tx.Reviews().GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.KindReview, policy.OpUpdate, current); err != nil {
			return err
		}
		next, err := rules.ApplyReviewUpdate(current, input)
		if err != nil {
			return err
		}
		if err := tx.Reviews().Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.collab.afterWrite(ctx, updated.EventID, entities.ActivityReviewUpdated, id, "review", "update")
	return updated, nil
}

// DeleteReview removes the caller's review
func (s *ReviewService) DeleteReview(ctx context.Context, id entities.Identity, reviewID string) error {
	if id.IsAnonymous() {
		return apperrors.NewUnauthorizedError("sign in to delete a review")
	}

	var eventID string
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		current, err := tx.Reviews().GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.KindReview, policy.OpDelete, current); err != nil {
			return err
		}
		eventID = current.EventID
		return tx.Reviews().Delete(ctx, reviewID)
	})
	if err != nil {
		return err
	}

	s.collab.afterWrite(ctx, eventID, entities.ActivityReviewDeleted, id, "review", "delete")
	return nil
}
