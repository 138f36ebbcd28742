package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

var reviewColumns = columns("id", "event_id", "user_id", "rating", "comment", "created_at", "updated_at")

// ReviewAdapter implements ReviewRepository using PostgreSQL
type ReviewAdapter struct {
	db sqlx.ExtContext
}

// Create inserts a review. The (event_id, user_id) unique constraint turns a
// concurrent second insert into a duplicate review error.
func (a *ReviewAdapter) Create(ctx context.Context, review *entities.Review) error {
	if err := review.CheckInvariants(); err != nil {
		return err
	}
	review.ID = newID(review.ID)

	query, args, err := dialect.Insert("reviews").Rows(goqu.Record{
		"id":       review.ID,
		"event_id": review.EventID,
		"user_id":  review.UserID,
		"rating":   review.Rating,
		"comment":  review.Comment,
	}).Returning("created_at", "updated_at").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review insert query", err)
	}

	var st stamps
	if err := sqlx.GetContext(ctx, a.db, &st, query, args...); err != nil {
		return translateError(err, "review")
	}
	review.CreatedAt, review.UpdatedAt = st.CreatedAt, st.UpdatedAt
	return nil
}

// GetByID retrieves a review by ID
func (a *ReviewAdapter) GetByID(ctx context.Context, id string) (*entities.Review, error) {
	return a.getOne(ctx, goqu.Ex{"id": id})
}

// GetByEventAndUser retrieves the author's review of an event
func (a *ReviewAdapter) GetByEventAndUser(ctx context.Context, eventID, userID string) (*entities.Review, error) {
	return a.getOne(ctx, goqu.Ex{"event_id": eventID, "user_id": userID})
}

func (a *ReviewAdapter) getOne(ctx context.Context, where goqu.Ex) (*entities.Review, error) {
	query, args, err := dialect.From("reviews").Select(reviewColumns...).Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build review query", err)
	}

	var review entities.Review
	if err := sqlx.GetContext(ctx, a.db, &review, query, args...); err != nil {
		return nil, translateError(err, "review")
	}
	return &review, nil
}

// ListByEvent retrieves reviews for an event, newest first
func (a *ReviewAdapter) ListByEvent(ctx context.Context, eventID string) ([]*entities.Review, error) {
	query, args, err := dialect.From("reviews").Select(reviewColumns...).
		Where(goqu.Ex{"event_id": eventID}).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build reviews query", err)
	}

	reviews := []*entities.Review{}
	if err := sqlx.SelectContext(ctx, a.db, &reviews, query, args...); err != nil {
		return nil, translateError(err, "review")
	}
	return reviews, nil
}

// Update updates rating and comment
func (a *ReviewAdapter) Update(ctx context.Context, review *entities.Review) error {
	if err := review.CheckInvariants(); err != nil {
		return err
	}

	query, args, err := dialect.Update("reviews").Set(goqu.Record{
		"rating":     review.Rating,
		"comment":    review.Comment,
		"updated_at": bumpUpdatedAt,
	}).Where(goqu.Ex{"id": review.ID}).Returning(reviewColumns...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review update query", err)
	}

	var stored entities.Review
	if err := sqlx.GetContext(ctx, a.db, &stored, query, args...); err != nil {
		return translateError(err, "review")
	}
	*review = stored
	return nil
}

// Delete deletes a review
func (a *ReviewAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := dialect.Delete("reviews").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review delete query", err)
	}
	return execAffectingOne(ctx, a.db, "review", query, args...)
}
