package repositories

import "context"

// Store is the Entity Store: it exclusively owns persisted Profile, Event,
// RSVP and Review rows.
type Store interface {
	Profiles() ProfileRepository
	Events() EventRepository
	RSVPs() RSVPRepository
	Reviews() ReviewRepository
	Stats() StatsRepository

	// WithinTx runs fn against a store bound to a single transaction. The
	// writes made through tx are committed only if fn returns nil.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
