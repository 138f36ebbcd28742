package services

import (
	"context"
	"strings"

	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/policy"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	"github.com/zatekoja/eventhub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

// ProfileService handles identity registration and profile maintenance
type ProfileService struct {
	store  repositories.Store
	collab Collaborators
}

// NewProfileService creates a new profile service
func NewProfileService(store repositories.Store, collab Collaborators) *ProfileService {
	return &ProfileService{store: store, collab: collab}
}

// RegisterIdentity creates the profile of a newly registered account in the
// same transaction that checks for an existing one. Registering twice returns
// the existing profile with created=false.
func (s *ProfileService) RegisterIdentity(ctx context.Context, id entities.Identity, input rules.RegisterIdentityInput) (profile *entities.Profile, created bool, err error) {
	if id.IsAnonymous() {
		return nil, false, apperrors.NewUnauthenticatedError("an identity is required to register")
	}
	if err := rules.Validate(input); err != nil {
		return nil, false, err
	}

	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		existing, err := tx.Profiles().GetByID(ctx, id.UserID)
		if err == nil {
			profile = existing
			return nil
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return err
		}

		candidate := &entities.Profile{
			ID:       id.UserID,
			FullName: rules.DisplayName(input.FullName),
		}
		if input.ProfilePicture != nil && strings.TrimSpace(*input.ProfilePicture) != "" {
			pic := strings.TrimSpace(*input.ProfilePicture)
			candidate.ProfilePicture = &pic
		}
		if err := policy.Authorize(id, policy.KindProfile, policy.OpInsert, candidate); err != nil {
			return err
		}
		if err := tx.Profiles().Create(ctx, candidate); err != nil {
			return err
		}
		profile, created = candidate, true
		return nil
	})
	if apperrors.RuleOf(err) == apperrors.RuleProfileUnique {
		// A concurrent registration for the same account committed first
		existing, gerr := s.store.Profiles().GetByID(ctx, id.UserID)
		if gerr != nil {
			return nil, false, gerr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if created {
		observability.RecordWrite(ctx, s.collab.Metrics, "profile", "insert")
		observability.LoggerFromContext(ctx).Debug().Str("user_id", id.UserID).Msg("Registered identity")
	}
	return profile, created, nil
}

// GetProfile returns any profile; profiles are public
func (s *ProfileService) GetProfile(ctx context.Context, id entities.Identity, profileID string) (*entities.Profile, error) {
	profile, err := s.store.Profiles().GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(id, policy.KindProfile, policy.OpSelect, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile applies a partial update to the caller's own profile
func (s *ProfileService) UpdateProfile(ctx context.Context, id entities.Identity, input rules.UpdateProfileInput) (*entities.Profile, error) {
	if id.IsAnonymous() {
		return nil, apperrors.NewUnauthorizedError("sign in to update your profile")
	}

	var updated *entities.Profile
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		current, err := tx.Profiles().GetByID(ctx, id.UserID)
		if err != nil {
			return err
		}
		if err := policy.Authorize(id, policy.KindProfile, policy.OpUpdate, current); err != nil {
			return err
		}
		next, err := rules.ApplyProfileUpdate(current, input)
		if err != nil {
			return err
		}
		if err := tx.Profiles().Update(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RecordWrite(ctx, s.collab.Metrics, "profile", "update")
	return updated, nil
}

// RemoveIdentity deletes an account's profile and everything it owns. It is
// invoked by the identity provider, not by end users, so no row policy applies.
func (s *ProfileService) RemoveIdentity(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.NewValidationError("user id is required")
	}
	var organized []string
	err := s.store.WithinTx(ctx, func(tx repositories.Store) error {
		ids, err := tx.Events().ListIDsByOrganizer(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.Profiles().Delete(ctx, userID); err != nil {
			return err
		}
		organized = ids
		return nil
	})
	if err != nil {
		return err
	}

	observability.RecordWrite(ctx, s.collab.Metrics, "profile", "delete")
	actor := entities.NewIdentity(userID)
	for _, eventID := range organized {
		if s.collab.Search != nil {
			if err := s.collab.Search.Remove(ctx, eventID); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_id", eventID).Msg("Failed to remove event from search index")
			}
		}
		s.collab.afterWrite(ctx, eventID, entities.ActivityEventDeleted, actor, "event", "delete")
	}
	if s.collab.Stats != nil {
		if err := s.collab.Stats.Flush(ctx); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Failed to flush stats cache")
		}
	}
	observability.LoggerFromContext(ctx).Info().Str("user_id", userID).Int("events", len(organized)).Msg("Removed identity")
	return nil
}
