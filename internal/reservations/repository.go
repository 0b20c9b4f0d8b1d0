package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound means no pending reservation exists for the key.
	ErrNotFound = errors.New("reservations: not found")

	// ErrDuplicateRef means a confirmed reservation with the same
	// payment_ref already exists; the unique index turned a replayed or
	// racing delivery into a detectable conflict.
	ErrDuplicateRef = errors.New("reservations: duplicate payment_ref")
)

const pgUniqueViolation = "23505"

// DB is the subset of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists pending and confirmed reservations in Postgres.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("reservations: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mocked connection for tests.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

// GetPending loads the pending reservation keyed by refCommand.
func (r *Repository) GetPending(ctx context.Context, refCommand string) (*PendingReservation, error) {
	const q = `SELECT ref_command, reservation_data, created_at FROM reservations_pending WHERE ref_command = $1`

	var (
		pending PendingReservation
		data    []byte
	)
	err := r.db.QueryRow(ctx, q, refCommand).Scan(&pending.RefCommand, &data, &pending.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, refCommand)
		}
		return nil, fmt.Errorf("reservations: load pending: %w", err)
	}
	if err := json.Unmarshal(data, &pending.ReservationData); err != nil {
		return nil, fmt.Errorf("reservations: decode reservation_data: %w", err)
	}
	return &pending, nil
}

// InsertConfirmed writes a confirmed reservation. A unique-violation on
// payment_ref maps to ErrDuplicateRef.
func (r *Repository) InsertConfirmed(ctx context.Context, confirmed *ConfirmedReservation) error {
	const q = `INSERT INTO reservations (payment_ref, record, confirmed_at) VALUES ($1, $2, $3)`

	record, err := json.Marshal(confirmed.Record)
	if err != nil {
		return fmt.Errorf("reservations: encode record: %w", err)
	}
	if _, err := r.db.Exec(ctx, q, confirmed.PaymentRef, record, confirmed.ConfirmedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateRef, confirmed.PaymentRef)
		}
		return fmt.Errorf("reservations: insert confirmed: %w", err)
	}
	return nil
}

// DeletePending removes the pending reservation keyed by refCommand.
// Deleting an already-absent row is not an error.
func (r *Repository) DeletePending(ctx context.Context, refCommand string) error {
	const q = `DELETE FROM reservations_pending WHERE ref_command = $1`

	if _, err := r.db.Exec(ctx, q, refCommand); err != nil {
		return fmt.Errorf("reservations: delete pending: %w", err)
	}
	return nil
}
