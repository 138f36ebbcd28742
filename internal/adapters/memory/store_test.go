package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// frozenClock always returns the same instant.
func frozenClock() time.Time { return base }

func seed(t *testing.T, s *Store, profiles ...string) {
	t.Helper()
	for _, id := range profiles {
		require.NoError(t, s.Profiles().Create(context.Background(), &entities.Profile{ID: id, FullName: "User " + id}))
	}
}

func newEvent(id, organizer string, start time.Time, public bool) *entities.Event {
	return &entities.Event{
		ID:          id,
		Title:       "Event " + id,
		Description: "About " + id,
		OrganizerID: organizer,
		Location:    "Hall",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		IsPublic:    public,
	}
}

func TestEventCreate_RejectsInvalidTimeRange(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "org")

	ev := newEvent("e1", "org", base, true)
	ev.EndTime = ev.StartTime

	err := s.Events().Create(ctx, ev)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTimeRange))

	_, err = s.Events().GetByID(ctx, "e1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestEventCreate_RequiresOrganizerProfile(t *testing.T) {
	s := NewStore()

	err := s.Events().Create(context.Background(), newEvent("e1", "ghost", base, true))
	assert.Equal(t, apperrors.RuleProfileExists, apperrors.RuleOf(err))
}

func TestUpdatedAt_StrictlyAdvancesWithFrozenClock(t *testing.T) {
	ctx := context.Background()
	s := NewStore(WithClock(frozenClock))
	seed(t, s, "u1")

	p, err := s.Profiles().GetByID(ctx, "u1")
	require.NoError(t, err)
	created := p.CreatedAt
	prev := p.UpdatedAt

	for i := 0; i < 3; i++ {
		p.Bio = "bio"
		require.NoError(t, s.Profiles().Update(ctx, p))
		assert.True(t, p.UpdatedAt.After(prev))
		assert.Equal(t, created, p.CreatedAt)
		prev = p.UpdatedAt
	}
}

func TestRSVPUpsert_IsIdempotentPerUser(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "org", "u1")
	require.NoError(t, s.Events().Create(ctx, newEvent("e1", "org", base, true)))

	first := &entities.RSVP{EventID: "e1", UserID: "u1", Status: entities.RSVPStatusGoing}
	require.NoError(t, s.RSVPs().Upsert(ctx, first))

	second := &entities.RSVP{EventID: "e1", UserID: "u1", Status: entities.RSVPStatusMaybe}
	require.NoError(t, s.RSVPs().Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	rows, err := s.RSVPs().ListByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, entities.RSVPStatusMaybe, rows[0].Status)
}

func TestRSVPUpsert_ConcurrentRaceLeavesOneRow(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "org", "u1")
	require.NoError(t, s.Events().Create(ctx, newEvent("e1", "org", base, true)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := entities.RSVPStatuses[i%len(entities.RSVPStatuses)]
			assert.NoError(t, s.RSVPs().Upsert(ctx, &entities.RSVP{EventID: "e1", UserID: "u1", Status: status}))
		}(i)
	}
	wg.Wait()

	rows, err := s.RSVPs().ListByEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestReviewCreate_ConcurrentDuplicateYieldsOneViolation(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "org", "u1")
	require.NoError(t, s.Events().Create(ctx, newEvent("e1", "org", base, true)))

	const writers = 20
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Reviews().Create(ctx, &entities.Review{EventID: "e1", UserID: "u1", Rating: 4, Comment: "good"})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperrors.RuleReviewUnique, apperrors.RuleOf(err))
	}
	assert.Equal(t, 1, succeeded)

	rows, err := s.Reviews().ListByEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestDeleteProfile_Cascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "org", "u1")
	require.NoError(t, s.Events().Create(ctx, newEvent("e1", "org", base, true)))
	require.NoError(t, s.Events().Create(ctx, newEvent("e2", "u1", base, true)))
	require.NoError(t, s.RSVPs().Upsert(ctx, &entities.RSVP{EventID: "e1", UserID: "u1", Status: entities.RSVPStatusGoing}))
	require.NoError(t, s.RSVPs().Upsert(ctx, &entities.RSVP{EventID: "e2", UserID: "org", Status: entities.RSVPStatusGoing}))
	require.NoError(t, s.Reviews().Create(ctx, &entities.Review{EventID: "e1", UserID: "u1", Rating: 5, Comment: "great"}))

	require.NoError(t, s.Profiles().Delete(ctx, "org"))

	_, err := s.Events().GetByID(ctx, "e1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = s.RSVPs().Get(ctx, "e2", "org")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, count, err := s.Stats().RatingTotals(ctx, "e1")
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = s.Events().GetByID(ctx, "e2")
	assert.NoError(t, err)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repositories.Store) error {
		require.NoError(t, tx.Profiles().Create(ctx, &entities.Profile{ID: "u1", FullName: "A"}))
		_, err := tx.Profiles().GetByID(ctx, "u1")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Profiles().GetByID(ctx, "u1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.WithinTx(ctx, func(tx repositories.Store) error {
		return tx.Profiles().Create(ctx, &entities.Profile{ID: "u1", FullName: "A"})
	})
	require.NoError(t, err)

	_, err = s.Profiles().GetByID(ctx, "u1")
	assert.NoError(t, err)
}

func TestListUpcoming_VisibilityAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s, "org", "other")
	require.NoError(t, s.Events().Create(ctx, newEvent("late", "org", base.Add(48*time.Hour), true)))
	require.NoError(t, s.Events().Create(ctx, newEvent("early", "org", base.Add(24*time.Hour), true)))
	require.NoError(t, s.Events().Create(ctx, newEvent("private", "org", base.Add(36*time.Hour), false)))
	require.NoError(t, s.Events().Create(ctx, newEvent("past", "org", base.Add(-48*time.Hour), true)))

	ids := func(events []*entities.Event) []string {
		out := make([]string, 0, len(events))
		for _, ev := range events {
			out = append(out, ev.ID)
		}
		return out
	}

	anon, err := s.Events().ListUpcoming(ctx, repositories.EventFilter{From: base})
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, ids(anon))

	other, err := s.Events().ListUpcoming(ctx, repositories.EventFilter{Viewer: entities.NewIdentity("other"), From: base})
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, ids(other))

	owner, err := s.Events().ListUpcoming(ctx, repositories.EventFilter{Viewer: entities.NewIdentity("org"), From: base})
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "private", "late"}, ids(owner))

	text, err := s.Events().ListUpcoming(ctx, repositories.EventFilter{From: base, Text: "LATE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, ids(text))

	paged, err := s.Events().ListUpcoming(ctx, repositories.EventFilter{From: base, Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, ids(paged))
}

func TestStats_CountsAndBuckets(t *testing.T) {
	ctx := context.Background()
	s := NewStore(WithClock(frozenClock))
	seed(t, s, "org", "u1", "u2", "u3")
	require.NoError(t, s.Events().Create(ctx, newEvent("e1", "org", base, true)))
	require.NoError(t, s.Events().Create(ctx, newEvent("e2", "org", base.Add(24*time.Hour), false)))

	require.NoError(t, s.RSVPs().Upsert(ctx, &entities.RSVP{EventID: "e1", UserID: "u1", Status: entities.RSVPStatusGoing}))
	require.NoError(t, s.RSVPs().Upsert(ctx, &entities.RSVP{EventID: "e1", UserID: "u2", Status: entities.RSVPStatusGoing}))
	require.NoError(t, s.RSVPs().Upsert(ctx, &entities.RSVP{EventID: "e1", UserID: "u3", Status: entities.RSVPStatusNotGoing}))
	require.NoError(t, s.Reviews().Create(ctx, &entities.Review{EventID: "e1", UserID: "u1", Rating: 4, Comment: "ok"}))
	require.NoError(t, s.Reviews().Create(ctx, &entities.Review{EventID: "e1", UserID: "u2", Rating: 5, Comment: "great"}))

	counts, err := s.Stats().CountRSVPsByStatus(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, entities.AttendanceCounts{Going: 2, NotGoing: 1}, counts)

	sum, count, err := s.Stats().RatingTotals(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 9, sum)
	assert.Equal(t, 2, count)

	from := base.Truncate(24 * time.Hour)
	to := from.Add(72 * time.Hour)

	anon, err := s.Stats().CountEventsByDay(ctx, entities.Anonymous, from, to)
	require.NoError(t, err)
	assert.Equal(t, repositories.DayCounts{"2026-03-10": 1}, anon)

	owner, err := s.Stats().CountEventsByDay(ctx, entities.NewIdentity("org"), from, to)
	require.NoError(t, err)
	assert.Equal(t, repositories.DayCounts{"2026-03-10": 1, "2026-03-11": 1}, owner)

	rsvps, err := s.Stats().CountRSVPsByDay(ctx, entities.Anonymous, from, to)
	require.NoError(t, err)
	assert.Equal(t, repositories.DayCounts{"2026-03-10": 3}, rsvps)
}
