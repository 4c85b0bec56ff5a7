// Package store persists preparation attempts in Postgres.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vultisig/app-transfer/internal/transfer"
	"github.com/vultisig/app-transfer/internal/types"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema migrations against the DSN. Safe to
// run on every startup; an up-to-date schema is not an error.
func Migrate(dsn string) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// CreateAttempt inserts a freshly created attempt.
func (s *Store) CreateAttempt(ctx context.Context, attempt transfer.Attempt) error {
	intent, err := json.Marshal(attempt.Intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO transfer_attempts (id, chain, intent, state, fee_tier)
		VALUES ($1, $2, $3, $4, $5)`,
		attempt.ID,
		attempt.Intent.Chain,
		jsonbParam(intent),
		attempt.State,
		attempt.FeeTier,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

// GetAttempt loads one attempt by ID.
func (s *Store) GetAttempt(ctx context.Context, id uuid.UUID) (transfer.Attempt, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, intent, state, fee_tier, request, unsigned_tx, unspent_set,
		       failure_reason, created_at, updated_at
		FROM transfer_attempts
		WHERE id = $1`,
		id,
	)

	var (
		attempt    transfer.Attempt
		intentRaw  []byte
		unspentRaw []byte
	)
	err := row.Scan(
		&attempt.ID,
		&intentRaw,
		&attempt.State,
		&attempt.FeeTier,
		&attempt.Request,
		&attempt.UnsignedTx,
		&unspentRaw,
		&attempt.FailureReason,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return transfer.Attempt{}, transfer.ErrAttemptNotFound
	}
	if err != nil {
		return transfer.Attempt{}, fmt.Errorf("failed to scan attempt: %w", err)
	}

	if er := json.Unmarshal(intentRaw, &attempt.Intent); er != nil {
		return transfer.Attempt{}, fmt.Errorf("failed to unmarshal intent: %w", er)
	}
	if len(unspentRaw) > 0 {
		if er := json.Unmarshal(unspentRaw, &attempt.UnspentSet); er != nil {
			return transfer.Attempt{}, fmt.Errorf("failed to unmarshal unspent set: %w", er)
		}
	}
	return attempt, nil
}

// SetState moves an attempt to a new lifecycle state.
func (s *Store) SetState(ctx context.Context, id uuid.UUID, state types.AttemptState) error {
	return s.update(ctx, id, `
		UPDATE transfer_attempts
		SET state = $2, updated_at = now()
		WHERE id = $1`,
		state,
	)
}

// SetFeeTier records a new fee tier, in place; the matching re-estimation is
// enqueued by the caller.
func (s *Store) SetFeeTier(ctx context.Context, id uuid.UUID, tier types.FeeTier) error {
	return s.update(ctx, id, `
		UPDATE transfer_attempts
		SET fee_tier = $2, updated_at = now()
		WHERE id = $1`,
		tier,
	)
}

// MarkReady stores the finished request and clears any earlier failure. The
// unspent set is kept for Bitcoin fee-tier re-runs.
func (s *Store) MarkReady(ctx context.Context, id uuid.UUID, request, unsignedTx []byte, unspent []types.UnspentOutput) error {
	var unspentRaw []byte
	if len(unspent) > 0 {
		var err error
		unspentRaw, err = json.Marshal(unspent)
		if err != nil {
			return fmt.Errorf("failed to marshal unspent set: %w", err)
		}
	}

	return s.update(ctx, id, `
		UPDATE transfer_attempts
		SET state = $2, request = $3, unsigned_tx = $4, unspent_set = $5,
		    failure_reason = '', updated_at = now()
		WHERE id = $1`,
		types.StateReady,
		jsonbParam(request),
		unsignedTx,
		jsonbParam(unspentRaw),
	)
}

// MarkFailed stores the terminal failure reason. Any previous request stays
// superseded rather than readable: the request column is cleared.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return s.update(ctx, id, `
		UPDATE transfer_attempts
		SET state = $2, failure_reason = $3, request = NULL, unsigned_tx = NULL,
		    updated_at = now()
		WHERE id = $1`,
		types.StateFailed,
		reason,
	)
}

// jsonbParam renders JSON bytes as text so pgx binds them to jsonb columns;
// empty input becomes NULL.
func jsonbParam(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func (s *Store) update(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return transfer.ErrAttemptNotFound
	}
	return nil
}
