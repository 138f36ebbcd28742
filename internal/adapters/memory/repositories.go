package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

type profileRepo struct{ s *Store }

func (r *profileRepo) Create(ctx context.Context, profile *entities.Profile) error {
	if err := profile.CheckInvariants(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.profiles[profile.ID]; ok {
			return apperrors.NewConstraintViolation(apperrors.RuleProfileUnique, "profile already exists")
		}
		now := r.s.stamp(time.Time{})
		profile.CreatedAt = now
		profile.UpdatedAt = now
		st.profiles[profile.ID] = *profile
		return nil
	})
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*entities.Profile, error) {
	var out *entities.Profile
	err := r.s.read(ctx, func(st *state) error {
		p, ok := st.profiles[id]
		if !ok {
			return apperrors.NewNotFoundError("profile not found")
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *profileRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Profile, error) {
	out := make([]*entities.Profile, 0, len(ids))
	err := r.s.read(ctx, func(st *state) error {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if p, ok := st.profiles[id]; ok {
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

func (r *profileRepo) Update(ctx context.Context, profile *entities.Profile) error {
	if err := profile.CheckInvariants(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.profiles[profile.ID]
		if !ok {
			return apperrors.NewNotFoundError("profile not found")
		}
		profile.CreatedAt = current.CreatedAt
		profile.UpdatedAt = r.s.stamp(current.UpdatedAt)
		st.profiles[profile.ID] = *profile
		return nil
	})
}

func (r *profileRepo) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.profiles[id]; !ok {
			return apperrors.NewNotFoundError("profile not found")
		}
		for eventID, ev := range st.events {
			if ev.OrganizerID == id {
				deleteEventCascade(st, eventID)
			}
		}
		for rsvpID, rsvp := range st.rsvps {
			if rsvp.UserID == id {
				delete(st.rsvps, rsvpID)
			}
		}
		for reviewID, review := range st.reviews {
			if review.UserID == id {
				delete(st.reviews, reviewID)
			}
		}
		delete(st.profiles, id)
		return nil
	})
}

func deleteEventCascade(st *state, eventID string) {
	for rsvpID, rsvp := range st.rsvps {
		if rsvp.EventID == eventID {
			delete(st.rsvps, rsvpID)
		}
	}
	for reviewID, review := range st.reviews {
		if review.EventID == eventID {
			delete(st.reviews, reviewID)
		}
	}
	delete(st.events, eventID)
}

type eventRepo struct{ s *Store }

func (r *eventRepo) Create(ctx context.Context, event *entities.Event) error {
	if err := event.CheckInvariants(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.profiles[event.OrganizerID]; !ok {
			return apperrors.NewConstraintViolation(apperrors.RuleProfileExists, "organizer profile does not exist")
		}
		event.ID = newID(event.ID)
		if _, ok := st.events[event.ID]; ok {
			return apperrors.NewConstraintViolation(apperrors.RulePrimaryKey, "event id already exists")
		}
		now := r.s.stamp(time.Time{})
		event.CreatedAt = now
		event.UpdatedAt = now
		st.events[event.ID] = *event
		return nil
	})
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*entities.Event, error) {
	var out *entities.Event
	err := r.s.read(ctx, func(st *state) error {
		ev, ok := st.events[id]
		if !ok {
			return apperrors.NewNotFoundError("event not found")
		}
		out = &ev
		return nil
	})
	return out, err
}

func (r *eventRepo) Update(ctx context.Context, event *entities.Event) error {
	if err := event.CheckInvariants(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.events[event.ID]
		if !ok {
			return apperrors.NewNotFoundError("event not found")
		}
		if current.OrganizerID != event.OrganizerID {
			return apperrors.NewConstraintViolation(apperrors.RuleOrganizerImmutable, "organizer_id cannot be changed")
		}
		event.CreatedAt = current.CreatedAt
		event.UpdatedAt = r.s.stamp(current.UpdatedAt)
		st.events[event.ID] = *event
		return nil
	})
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.events[id]; !ok {
			return apperrors.NewNotFoundError("event not found")
		}
		deleteEventCascade(st, id)
		return nil
	})
}

func (r *eventRepo) ListIDsByOrganizer(ctx context.Context, organizerID string) ([]string, error) {
	ids := []string{}
	err := r.s.read(ctx, func(st *state) error {
		for id, ev := range st.events {
			if ev.OrganizerID == organizerID {
				ids = append(ids, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *eventRepo) ListUpcoming(ctx context.Context, filter repositories.EventFilter) ([]*entities.Event, error) {
	var matched []*entities.Event
	err := r.s.read(ctx, func(st *state) error {
		var only map[string]bool
		if filter.IDs != nil {
			only = make(map[string]bool, len(filter.IDs))
			for _, id := range filter.IDs {
				only[id] = true
			}
		}
		text := strings.ToLower(strings.TrimSpace(filter.Text))

		for _, ev := range st.events {
			if !ev.VisibleTo(filter.Viewer) || ev.StartTime.Before(filter.From) {
				continue
			}
			if !filterMatches(filter.Viewer, &ev, only, text) {
				continue
			}
			ev := ev
			matched = append(matched, &ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartTime.Equal(matched[j].StartTime) {
			return matched[i].StartTime.Before(matched[j].StartTime)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, filter.Offset, filter.Limit), nil
}

// filterMatches applies the IDs and Text parts of an EventFilter
func filterMatches(viewer entities.Identity, ev *entities.Event, only map[string]bool, text string) bool {
	switch {
	case only != nil && text != "":
		own := !viewer.IsAnonymous() && ev.OrganizerID == viewer.UserID
		return only[ev.ID] || (own && matchesText(ev, text))
	case only != nil:
		return only[ev.ID]
	case text != "":
		return matchesText(ev, text)
	}
	return true
}

func matchesText(ev *entities.Event, text string) bool {
	return strings.Contains(strings.ToLower(ev.Title), text) ||
		strings.Contains(strings.ToLower(ev.Description), text) ||
		strings.Contains(strings.ToLower(ev.Location), text)
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	if items == nil {
		return []T{}
	}
	return items
}

type rsvpRepo struct{ s *Store }

func (r *rsvpRepo) Upsert(ctx context.Context, rsvp *entities.RSVP) error {
	if err := rsvp.CheckInvariants(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		if err := checkParents(st, rsvp.EventID, rsvp.UserID); err != nil {
			return err
		}
		if current, ok := findRSVP(st, rsvp.EventID, rsvp.UserID); ok {
			current.Status = rsvp.Status
			current.UpdatedAt = r.s.stamp(current.UpdatedAt)
			st.rsvps[current.ID] = current
			*rsvp = current
			return nil
		}
		rsvp.ID = newID(rsvp.ID)
		if _, ok := st.rsvps[rsvp.ID]; ok {
			return apperrors.NewConstraintViolation(apperrors.RulePrimaryKey, "rsvp id already exists")
		}
		now := r.s.stamp(time.Time{})
		rsvp.CreatedAt = now
		rsvp.UpdatedAt = now
		st.rsvps[rsvp.ID] = *rsvp
		return nil
	})
}

func (r *rsvpRepo) Get(ctx context.Context, eventID, userID string) (*entities.RSVP, error) {
	var out *entities.RSVP
	err := r.s.read(ctx, func(st *state) error {
		rsvp, ok := findRSVP(st, eventID, userID)
		if !ok {
			return apperrors.NewNotFoundError("rsvp not found")
		}
		out = &rsvp
		return nil
	})
	return out, err
}

func (r *rsvpRepo) ListByEvent(ctx context.Context, eventID string) ([]*entities.RSVP, error) {
	out := []*entities.RSVP{}
	err := r.s.read(ctx, func(st *state) error {
		for _, rsvp := range st.rsvps {
			if rsvp.EventID == eventID {
				rsvp := rsvp
				out = append(out, &rsvp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *rsvpRepo) Delete(ctx context.Context, eventID, userID string) error {
	return r.s.write(ctx, func(st *state) error {
		rsvp, ok := findRSVP(st, eventID, userID)
		if !ok {
			return apperrors.NewNotFoundError("rsvp not found")
		}
		delete(st.rsvps, rsvp.ID)
		return nil
	})
}

func findRSVP(st *state, eventID, userID string) (entities.RSVP, bool) {
	for _, rsvp := range st.rsvps {
		if rsvp.EventID == eventID && rsvp.UserID == userID {
			return rsvp, true
		}
	}
	return entities.RSVP{}, false
}

func checkParents(st *state, eventID, userID string) error {
	if _, ok := st.events[eventID]; !ok {
		return apperrors.NewConstraintViolation(apperrors.RuleEventExists, "event does not exist")
	}
	if _, ok := st.profiles[userID]; !ok {
		return apperrors.NewConstraintViolation(apperrors.RuleProfileExists, "profile does not exist")
	}
	return nil
}

type reviewRepo struct{ s *Store }

func (r *reviewRepo) Create(ctx context.Context, review *entities.Review) error {
	if err := review.CheckInvariants(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		if err := checkParents(st, review.EventID, review.UserID); err != nil {
			return err
		}
		if _, ok := findReview(st, review.EventID, review.UserID); ok {
			return apperrors.NewDuplicateReviewError()
		}
		review.ID = newID(review.ID)
		if _, ok := st.reviews[review.ID]; ok {
			return apperrors.NewConstraintViolation(apperrors.RulePrimaryKey, "review id already exists")
		}
		now := r.s.stamp(time.Time{})
		review.CreatedAt = now
		review.UpdatedAt = now
		st.reviews[review.ID] = *review
		return nil
	})
}

func (r *reviewRepo) GetByID(ctx context.Context, id string) (*entities.Review, error) {
	var out *entities.Review
	err := r.s.read(ctx, func(st *state) error {
		review, ok := st.reviews[id]
		if !ok {
			return apperrors.NewNotFoundError("review not found")
		}
		out = &review
		return nil
	})
	return out, err
}

func (r *reviewRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*entities.Review, error) {
	var out *entities.Review
	err := r.s.read(ctx, func(st *state) error {
		review, ok := findReview(st, eventID, userID)
		if !ok {
			return apperrors.NewNotFoundError("review not found")
		}
		out = &review
		return nil
	})
	return out, err
}

func (r *reviewRepo) ListByEvent(ctx context.Context, eventID string) ([]*entities.Review, error) {
	out := []*entities.Review{}
	err := r.s.read(ctx, func(st *state) error {
		for _, review := range st.reviews {
			if review.EventID == eventID {
				review := review
				out = append(out, &review)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *reviewRepo) Update(ctx context.Context, review *entities.Review) error {
	if err := review.CheckInvariants(); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.reviews[review.ID]
		if !ok {
			return apperrors.NewNotFoundError("review not found")
		}
		current.Rating = review.Rating
		current.Comment = review.Comment
		current.UpdatedAt = r.s.stamp(current.UpdatedAt)
		st.reviews[current.ID] = current
		*review = current
		return nil
	})
}

func (r *reviewRepo) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.reviews[id]; !ok {
			return apperrors.NewNotFoundError("review not found")
		}
		delete(st.reviews, id)
		return nil
	})
}

func findReview(st *state, eventID, userID string) (entities.Review, bool) {
	for _, review := range st.reviews {
		if review.EventID == eventID && review.UserID == userID {
			return review, true
		}
	}
	return entities.Review{}, false
}
