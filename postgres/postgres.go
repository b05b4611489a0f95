// Package postgres provides the pgx-backed AccountStore adapter the venue
// platform deploys behind the monitor. Lock and unlock are conditional
// UPDATEs so concurrent callers race safely on the idempotency guarantee.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenalab/ipsentinel/models"
)

// Connect opens and verifies a pgx connection pool.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Info("database connection established")
	return pool, nil
}

// AccountStore persists operator lock state in the operator_accounts table.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates an AccountStore over an existing pool.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// FindAccount fetches an account by its login identity.
func (s *AccountStore) FindAccount(ctx context.Context, identity string) (*models.Account, error) {
	query := `
		SELECT id, identity, is_locked, locked_reason, locked_at, created_at, updated_at
		FROM operator_accounts WHERE identity = $1
	`

	var acct models.Account
	var lockedReason *string
	var lockedAt *time.Time

	err := s.pool.QueryRow(ctx, query, identity).Scan(
		&acct.ID, &acct.Identity, &acct.IsLocked,
		&lockedReason, &lockedAt,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", identity, err)
	}

	if lockedReason != nil {
		acct.LockedReason = *lockedReason
	}
	acct.LockedAt = lockedAt
	return &acct, nil
}

// SetLocked locks an account. The WHERE clause makes the transition
// idempotent: an already-locked or unknown identity affects no rows and
// returns false without error.
func (s *AccountStore) SetLocked(ctx context.Context, identity, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE operator_accounts
		SET is_locked = true, locked_reason = $2, locked_at = $3, updated_at = CURRENT_TIMESTAMP
		WHERE identity = $1 AND is_locked = false
	`

	tag, err := s.pool.Exec(ctx, query, identity, reason, at)
	if err != nil {
		return false, fmt.Errorf("failed to lock account %s: %w", identity, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClearLocked unlocks an account. Returns false without error when the
// account is not locked or does not exist.
func (s *AccountStore) ClearLocked(ctx context.Context, identity string) (bool, error) {
	query := `
		UPDATE operator_accounts
		SET is_locked = false, locked_reason = NULL, locked_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE identity = $1 AND is_locked = true
	`

	tag, err := s.pool.Exec(ctx, query, identity)
	if err != nil {
		return false, fmt.Errorf("failed to unlock account %s: %w", identity, err)
	}
	return tag.RowsAffected() == 1, nil
}

// CreateAccount inserts a new unlocked account and returns it. Used by the
// platform's provisioning flow and by tests.
func (s *AccountStore) CreateAccount(ctx context.Context, identity string) (*models.Account, error) {
	query := `
		INSERT INTO operator_accounts (identity)
		VALUES ($1)
		RETURNING id, identity, is_locked, created_at, updated_at
	`

	var acct models.Account
	err := s.pool.QueryRow(ctx, query, identity).Scan(
		&acct.ID, &acct.Identity, &acct.IsLocked, &acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", identity, err)
	}
	return &acct, nil
}
