package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/eventhub/internal/domain/repositories"
	"github.com/zatekoja/eventhub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/eventhub/pkg/errors"
)

var dialect = goqu.Dialect("postgres")

// bumpUpdatedAt advances updated_at even when NOW() has not moved since the
// previous write in the same transaction.
var bumpUpdatedAt = goqu.L("GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')")

// Store implements repositories.Store on PostgreSQL.
type Store struct {
	client *postgres.Client
	db     sqlx.ExtContext
	inTx   bool
}

// NewStore creates a Postgres-backed store.
func NewStore(client *postgres.Client) *Store {
	return &Store{client: client, db: client.DB()}
}

var _ repositories.Store = (*Store)(nil)

func (s *Store) Profiles() repositories.ProfileRepository { return &ProfileAdapter{db: s.db} }
func (s *Store) Events() repositories.EventRepository     { return &EventAdapter{db: s.db} }
func (s *Store) RSVPs() repositories.RSVPRepository       { return &RSVPAdapter{db: s.db} }
func (s *Store) Reviews() repositories.ReviewRepository   { return &ReviewAdapter{db: s.db} }
func (s *Store) Stats() repositories.StatsRepository      { return &StatsAdapter{db: s.db} }

// WithinTx runs fn inside a database transaction. Nested calls join the
// outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.client.DB().BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	if err := fn(&Store{client: s.client, db: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.Warn().Err(rbErr).Msg("transaction rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateError(err, "transaction")
	}
	return nil
}

// stamps receives the store-managed timestamps of a written row.
type stamps struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func columns(names ...string) []interface{} {
	out := make([]interface{}, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
