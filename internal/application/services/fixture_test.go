package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/eventhub/internal/adapters/events"
	"github.com/zatekoja/eventhub/internal/adapters/memory"
	"github.com/zatekoja/eventhub/internal/application/rules"
	"github.com/zatekoja/eventhub/internal/application/services"
	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/providers"
)

var (
	alice = entities.NewIdentity("alice")
	bob   = entities.NewIdentity("bob")
	carol = entities.NewIdentity("carol")
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// MockSearchProvider is a testify mock of the search index
type MockSearchProvider struct {
	mock.Mock
}

func (m *MockSearchProvider) Index(ctx context.Context, event *entities.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockSearchProvider) Remove(ctx context.Context, eventID string) error {
	return m.Called(ctx, eventID).Error(0)
}

func (m *MockSearchProvider) SearchIDs(ctx context.Context, text string, limit int) ([]string, error) {
	args := m.Called(ctx, text, limit)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// recordingInvalidator remembers which events were invalidated
type recordingInvalidator struct {
	mu          sync.Mutex
	invalidated []string
	flushes     int
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, eventID)
	return nil
}

func (r *recordingInvalidator) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes++
	return nil
}

func (r *recordingInvalidator) Invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.invalidated...)
}

type fixture struct {
	clock    *testClock
	store    *memory.Store
	bus      providers.EventBus
	stats    *recordingInvalidator
	profiles *services.ProfileService
	events   *services.EventService
	rsvps    *services.RSVPService
	reviews  *services.ReviewService
	agg      *services.StatsService
}

func newFixture(t *testing.T, search providers.EventSearchProvider) *fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithClock(clock.Now))
	bus := events.NewLocalEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	stats := &recordingInvalidator{}
	collab := services.Collaborators{
		EventBus: bus,
		Search:   search,
		Stats:    stats,
		Now:      clock.Now,
	}
	f := &fixture{
		clock:    clock,
		store:    store,
		bus:      bus,
		stats:    stats,
		profiles: services.NewProfileService(store, collab),
		events:   services.NewEventService(store, collab),
		rsvps:    services.NewRSVPService(store, collab),
		reviews:  services.NewReviewService(store, collab),
		agg:      services.NewStatsService(store, nil, nil, 0),
	}
	for _, id := range []entities.Identity{alice, bob, carol} {
		_, _, err := f.profiles.RegisterIdentity(context.Background(), id, rules.RegisterIdentityInput{FullName: "User " + id.UserID})
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) createEvent(t *testing.T, organizer entities.Identity, title string, start time.Time, public bool) *entities.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), organizer, rules.CreateEventInput{
		Title:       title,
		Description: "About " + title,
		Location:    "Community Hall",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		IsPublic:    &public,
	})
	require.NoError(t, err)
	return event
}

func ptr[T any](v T) *T { return &v }
