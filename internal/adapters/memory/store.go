// Package memory is an in-process Store used for local development and tests.
// All rows live behind one RWMutex; WithinTx works on a copy of the state and
// swaps it in only when the callback succeeds.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/eventhub/internal/domain/entities"
	"github.com/zatekoja/eventhub/internal/domain/repositories"
)

type state struct {
	profiles map[string]entities.Profile
	events   map[string]entities.Event
	rsvps    map[string]entities.RSVP
	reviews  map[string]entities.Review
}

func newState() *state {
	return &state{
		profiles: make(map[string]entities.Profile),
		events:   make(map[string]entities.Event),
		rsvps:    make(map[string]entities.RSVP),
		reviews:  make(map[string]entities.Review),
	}
}

func (s *state) clone() *state {
	c := &state{
		profiles: make(map[string]entities.Profile, len(s.profiles)),
		events:   make(map[string]entities.Event, len(s.events)),
		rsvps:    make(map[string]entities.RSVP, len(s.rsvps)),
		reviews:  make(map[string]entities.Review, len(s.reviews)),
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.rsvps {
		c.rsvps[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	return c
}

type database struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time
}

// Store implements repositories.Store in memory.
type Store struct {
	db *database
	// tx is the working copy while inside WithinTx; the write lock is held.
	tx *state
}

// Option configures a Store.
type Option func(*database)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(d *database) {
		d.now = now
	}
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...Option) *Store {
	db := &database{state: newState(), now: time.Now}
	for _, opt := range opts {
		opt(db)
	}
	return &Store{db: db}
}

var _ repositories.Store = (*Store)(nil)

func (s *Store) Profiles() repositories.ProfileRepository { return &profileRepo{s} }
func (s *Store) Events() repositories.EventRepository     { return &eventRepo{s} }
func (s *Store) RSVPs() repositories.RSVPRepository       { return &rsvpRepo{s} }
func (s *Store) Reviews() repositories.ReviewRepository   { return &reviewRepo{s} }
func (s *Store) Stats() repositories.StatsRepository      { return &statsRepo{s} }

// WithinTx runs fn with the store locked for writing. Calls made through the
// outer store from inside fn would deadlock; fn must only use tx.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	tx := &Store{db: s.db, tx: s.db.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.db.state = tx.tx
	return nil
}

func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return fn(s.db.state)
}

// write runs fn under the write lock. fn must check every invariant before
// its first mutation so a failed write leaves the state untouched.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.state)
}

// stamp returns the write time for a row last written at prev. Timestamps
// strictly advance per row even when the clock does not.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.db.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
