package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/application/services"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

func TestCreateEvent_RejectsInvalidTimeRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	start := f.clock.Now().Add(24 * time.Hour)

	for _, end := range []time.Time{start, start.Add(-time.Minute)} {
		_, err := f.events.CreateEvent(ctx, alice, rules.CreateEventInput{
			Title:       "Meetup",
			Description: "Monthly meetup",
			StartTime:   start,
			EndTime:     end,
		})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTimeRange))
	}

	listed, err := f.events.ListPublicUpcomingEvents(ctx, alice, services.ListEventsQuery{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCreateEvent_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	start := f.clock.Now().Add(time.Hour)

	_, err := f.events.CreateEvent(ctx, alice, rules.CreateEventInput{
		Title:       "  ",
		Description: "x",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = f.events.CreateEvent(ctx, entities.Anonymous, rules.CreateEventInput{
		Title:       "Meetup",
		Description: "x",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
	})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestCreateEvent_DefaultsToPublic(t *testing.T) {
	f := newFixture(t, nil)
	start := f.clock.Now().Add(time.Hour)

	event, err := f.events.CreateEvent(context.Background(), alice, rules.CreateEventInput{
		Title:       "Open Day",
		Description: "Everyone welcome",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, event.IsPublic)
	assert.Equal(t, "alice", event.OrganizerID)
}

func TestGetEvent_PrivateVisibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	private := f.createEvent(t, alice, "Board Meeting", f.clock.Now().Add(24*time.Hour), false)

	_, err := f.events.GetEvent(ctx, entities.Anonymous, private.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = f.events.GetEvent(ctx, bob, private.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	details, err := f.events.GetEvent(ctx, alice, private.ID)
	require.NoError(t, err)
	assert.Equal(t, private.ID, details.Event.ID)
	require.NotNil(t, details.Organizer)
	assert.Equal(t, "User alice", details.Organizer.FullName)
	assert.NotNil(t, details.RSVPs)
	assert.NotNil(t, details.Reviews)
}

func TestListPublicUpcomingEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	now := f.clock.Now()

	picnic := f.createEvent(t, alice, "Picnic", now.Add(24*time.Hour), true)
	board := f.createEvent(t, alice, "Board Meeting", now.Add(48*time.Hour), false)
	f.createEvent(t, bob, "Yesterday", now.Add(-24*time.Hour), true)
	jazz := f.createEvent(t, bob, "Jazz Night", now.Add(72*time.Hour), true)

	ids := func(list []*entities.EventSummary) []string {
		out := make([]string, 0, len(list))
		for _, e := range list {
			out = append(out, e.ID)
		}
		return out
	}

	for _, viewer := range []entities.Identity{entities.Anonymous, carol} {
		listed, err := f.events.ListPublicUpcomingEvents(ctx, viewer, services.ListEventsQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{picnic.ID, jazz.ID}, ids(listed))
	}

	listed, err := f.events.ListPublicUpcomingEvents(ctx, alice, services.ListEventsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{picnic.ID, board.ID, jazz.ID}, ids(listed))
	require.NotNil(t, listed[2].Organizer)
	assert.Equal(t, "User bob", listed[2].Organizer.FullName)

	listed, err = f.events.ListPublicUpcomingEvents(ctx, carol, services.ListEventsQuery{Text: "JAZZ"})
	require.NoError(t, err)
	assert.Equal(t, []string{jazz.ID}, ids(listed))

	listed, err = f.events.ListPublicUpcomingEvents(ctx, carol, services.ListEventsQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{jazz.ID}, ids(listed))
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	event := f.createEvent(t, alice, "Picnic", f.clock.Now().Add(24*time.Hour), true)

	_, err := f.events.UpdateEvent(ctx, bob, event.ID, rules.UpdateEventInput{Title: ptr("Hijacked")})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	_, err = f.events.UpdateEvent(ctx, alice, event.ID, rules.UpdateEventInput{OrganizerID: ptr("bob")})
	assert.Equal(t, apperrors.RuleOrganizerImmutable, apperrors.RuleOf(err))

	_, err = f.events.UpdateEvent(ctx, alice, event.ID, rules.UpdateEventInput{EndTime: ptr(event.StartTime)})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTimeRange))

	updated, err := f.events.UpdateEvent(ctx, alice, event.ID, rules.UpdateEventInput{Title: ptr("Big Picnic"), IsPublic: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Big Picnic", updated.Title)
	assert.False(t, updated.IsPublic)
	assert.Equal(t, event.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(event.UpdatedAt))

	_, err = f.events.GetEvent(ctx, bob, event.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	event := f.createEvent(t, alice, "Picnic", f.clock.Now().Add(24*time.Hour), true)
	_, err := f.rsvps.UpsertRSVP(ctx, bob, event.ID, rules.RSVPInput{Status: "going"})
	require.NoError(t, err)

	err = f.events.DeleteEvent(ctx, bob, event.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	require.NoError(t, f.events.DeleteEvent(ctx, alice, event.ID))
	_, err = f.events.GetEvent(ctx, alice, event.ID)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	_, err = f.store.RSVPs().Get(ctx, event.ID, "bob")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.Contains(t, f.stats.Invalidated(), event.ID)
}

func TestEventWrites_PublishActivity(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, nil)

	activity, err := f.bus.Subscribe(ctx, providers.ChannelActivity)
	require.NoError(t, err)

	event := f.createEvent(t, alice, "Picnic", f.clock.Now().Add(24*time.Hour), true)

	select {
	case got := <-activity:
		assert.Equal(t, event.ID, got.EventID)
		assert.Equal(t, entities.ActivityEventCreated, got.Kind)
		assert.Equal(t, "alice", got.ActorID)
	case <-time.After(time.Second):
		t.Fatal("no activity published")
	}
}

func TestListPublicUpcomingEvents_UsesSearchIndex(t *testing.T) {
	ctx := context.Background()
	search := &MockSearchProvider{}
	search.On("Index", mock.Anything, mock.AnythingOfType("*entities.Event")).Return(nil)
	f := newFixture(t, search)
	now := f.clock.Now()

	picnic := f.createEvent(t, alice, "Picnic", now.Add(24*time.Hour), true)
	jazz := f.createEvent(t, bob, "Jazz Night", now.Add(48*time.Hour), true)

	search.On("SearchIDs", mock.Anything, "jaz nite", services.DefaultListLimit).Return([]string{jazz.ID}, nil).Once()
	listed, err := f.events.ListPublicUpcomingEvents(ctx, carol, services.ListEventsQuery{Text: "jaz nite"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, jazz.ID, listed[0].ID)

	search.On("SearchIDs", mock.Anything, "picnic", services.DefaultListLimit).Return(nil, errors.New("unavailable")).Once()
	listed, err = f.events.ListPublicUpcomingEvents(ctx, carol, services.ListEventsQuery{Text: "picnic"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, picnic.ID, listed[0].ID)

	search.On("Remove", mock.Anything, jazz.ID).Return(nil).Once()
	require.NoError(t, f.events.DeleteEvent(ctx, bob, jazz.ID))

	search.AssertExpectations(t)
}

func TestListPublicUpcomingEvents_IndexedSearchKeepsOwnPrivateMatches(t *testing.T) {
	ctx := context.Background()
	search := &MockSearchProvider{}
	search.On("Index", mock.Anything, mock.AnythingOfType("*entities.Event")).Return(nil)
	f := newFixture(t, search)
	now := f.clock.Now()

	board := f.createEvent(t, alice, "Board Meeting", now.Add(24*time.Hour), false)
	games := f.createEvent(t, bob, "Board Games", now.Add(48*time.Hour), true)

	search.On("SearchIDs", mock.Anything, "board", services.DefaultListLimit).Return([]string{games.ID}, nil)

	listed, err := f.events.ListPublicUpcomingEvents(ctx, alice, services.ListEventsQuery{Text: "board"})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, board.ID, listed[0].ID)
	assert.Equal(t, games.ID, listed[1].ID)

	listed, err = f.events.ListPublicUpcomingEvents(ctx, bob, services.ListEventsQuery{Text: "board"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, games.ID, listed[0].ID)

	search.AssertExpectations(t)
}

func TestListPublicUpcomingEvents_IndexedSearchWithNoHitsStillFindsOwnEvents(t *testing.T) {
	ctx := context.Background()
	search := &MockSearchProvider{}
	search.On("Index", mock.Anything, mock.AnythingOfType("*entities.Event")).Return(nil)
	f := newFixture(t, search)
	now := f.clock.Now()

	board := f.createEvent(t, alice, "Board Meeting", now.Add(24*time.Hour), false)
	search.On("SearchIDs", mock.Anything, "board", services.DefaultListLimit).Return(nil, nil)

	listed, err := f.events.ListPublicUpcomingEvents(ctx, alice, services.ListEventsQuery{Text: "board"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, board.ID, listed[0].ID)

	listed, err = f.events.ListPublicUpcomingEvents(ctx, bob, services.ListEventsQuery{Text: "board"})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestListPublicUpcomingEvents_RejectsTextPagesPastSearchWindow(t *testing.T) {
	ctx := context.Background()
	search := &MockSearchProvider{}
	f := newFixture(t, search)

	_, err := f.events.ListPublicUpcomingEvents(ctx, carol, services.ListEventsQuery{Text: "board", Offset: 990, Limit: 50})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	search.AssertNotCalled(t, "SearchIDs", mock.Anything, mock.Anything, mock.Anything)

	_, err = f.events.ListPublicUpcomingEvents(ctx, carol, services.ListEventsQuery{Offset: 990, Limit: 50})
	require.NoError(t, err)
}

func TestReindex_IndexesPublicUpcomingOnly(t *testing.T) {
	search := &MockSearchProvider{}
	search.On("Index", mock.Anything, mock.Anything).Return(nil)
	f := newFixture(t, search)

	upcoming := f.createEvent(t, alice, "Book Club", f.clock.Now().Add(48*time.Hour), true)
	f.createEvent(t, alice, "Board Meeting", f.clock.Now().Add(72*time.Hour), false)
	f.createEvent(t, bob, "Morning Run", f.clock.Now().Add(time.Hour), true)
	f.clock.Set(f.clock.Now().Add(2 * time.Hour))

	search.Calls = nil
	n, err := f.events.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	search.AssertNumberOfCalls(t, "Index", 1)
	indexed := search.Calls[0].Arguments.Get(1).(*entities.Event)
	assert.Equal(t, upcoming.ID, indexed.ID)
}

func TestReindex_WithoutSearchIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	f.createEvent(t, alice, "Book Club", f.clock.Now().Add(48*time.Hour), true)

	n, err := f.events.Reindex(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
