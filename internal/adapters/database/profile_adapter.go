package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

var profileColumns = columns("id", "full_name", "bio", "location", "profile_picture", "created_at", "updated_at")

// ProfileAdapter implements ProfileRepository using PostgreSQL
type ProfileAdapter struct {
	db sqlx.ExtContext
}

// Create inserts a profile; created_at and updated_at come from the database
func (a *ProfileAdapter) Create(ctx context.Context, profile *entities.Profile) error {
	if err := profile.CheckInvariants(); err != nil {
		return err
	}

	query, args, err := dialect.Insert("profiles").Rows(goqu.Record{
		"id":              profile.ID,
		"full_name":       profile.FullName,
		"bio":             profile.Bio,
		"location":        nullString(profile.Location),
		"profile_picture": nullString(profile.ProfilePicture),
	}).Returning("created_at", "updated_at").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build profile insert query", err)
	}

	var st stamps
	if err := sqlx.GetContext(ctx, a.db, &st, query, args...); err != nil {
		return translateError(err, "profile")
	}
	profile.CreatedAt, profile.UpdatedAt = st.CreatedAt, st.UpdatedAt
	return nil
}

// GetByID retrieves a profile by ID
func (a *ProfileAdapter) GetByID(ctx context.Context, id string) (*entities.Profile, error) {
	query, args, err := dialect.From("profiles").Select(profileColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build profile query", err)
	}

	var profile entities.Profile
	if err := sqlx.GetContext(ctx, a.db, &profile, query, args...); err != nil {
		return nil, translateError(err, "profile")
	}
	return &profile, nil
}

// GetByIDs retrieves the profiles that exist among ids, in the order given
func (a *ProfileAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Profile, error) {
	if len(ids) == 0 {
		return []*entities.Profile{}, nil
	}

	query, args, err := dialect.From("profiles").Select(profileColumns...).Where(goqu.Ex{"id": ids}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build profiles query", err)
	}

	var rows []*entities.Profile
	if err := sqlx.SelectContext(ctx, a.db, &rows, query, args...); err != nil {
		return nil, translateError(err, "profile")
	}

	byID := make(map[string]*entities.Profile, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	out := make([]*entities.Profile, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

// Update replaces the mutable profile fields
func (a *ProfileAdapter) Update(ctx context.Context, profile *entities.Profile) error {
	if err := profile.CheckInvariants(); err != nil {
		return err
	}

	query, args, err := dialect.Update("profiles").Set(goqu.Record{
		"full_name":       profile.FullName,
		"bio":             profile.Bio,
		"location":        nullString(profile.Location),
		"profile_picture": nullString(profile.ProfilePicture),
		"updated_at":      bumpUpdatedAt,
	}).Where(goqu.Ex{"id": profile.ID}).Returning("created_at", "updated_at").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build profile update query", err)
	}

	var st stamps
	if err := sqlx.GetContext(ctx, a.db, &st, query, args...); err != nil {
		return translateError(err, "profile")
	}
	profile.CreatedAt, profile.UpdatedAt = st.CreatedAt, st.UpdatedAt
	return nil
}

// Delete removes a profile; foreign keys cascade to events, RSVPs and reviews
func (a *ProfileAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := dialect.Delete("profiles").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build profile delete query", err)
	}
	return execAffectingOne(ctx, a.db, "profile", query, args...)
}

// execAffectingOne runs a write and reports NOT_FOUND when no row matched.
func execAffectingOne(ctx context.Context, db sqlx.ExtContext, entity, query string, args ...interface{}) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err, entity)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to read affected rows", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(entity + " not found")
	}
	return nil
}
