package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerline/paddle/internal/domain/quota"
)

// PostgresLedgerRepository implements quota.LedgerRepository using pgx.
// Counter mutations are conditional single statements so concurrent consumes
// for one user cannot take a counter below zero.
type PostgresLedgerRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLedgerRepository creates a new PostgreSQL ledger repository
func NewPostgresLedgerRepository(pool *pgxpool.Pool) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{pool: pool}
}

const entryColumns = `id, user_id, start_date, end_date, remaining_auctions, remaining_bids, status, created_at, updated_at`

func scanEntry(row pgx.Row) (*quota.Entry, error) {
	var e quota.Entry
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.StartDate,
		&e.EndDate,
		&e.RemainingAuctions,
		&e.RemainingBids,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetActiveEntry resolves the entry whose window contains now, falling back
// to the earliest future-dated active entry (created by plan upgrades).
func (r *PostgresLedgerRepository) GetActiveEntry(ctx context.Context, userID uuid.UUID, now time.Time) (*quota.Entry, error) {
	current := `
		SELECT ` + entryColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND start_date <= $2 AND end_date > $2
		LIMIT 1
	`
	entry, err := scanEntry(r.pool.QueryRow(ctx, current, userID, now))
	if err == nil {
		return entry, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	future := `
		SELECT ` + entryColumns + `
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND start_date > $2
		ORDER BY start_date ASC
		LIMIT 1
	`
	entry, err = scanEntry(r.pool.QueryRow(ctx, future, userID, now))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, quota.ErrNoActiveSubscription
		}
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return entry, nil
}

// DecrementCounter conditionally decrements the counter for kind. The WHERE
// clause re-checks positivity at write time; a NULL (unlimited) counter never
// matches and is never decremented.
func (r *PostgresLedgerRepository) DecrementCounter(ctx context.Context, entryID uuid.UUID, kind quota.Kind) (bool, error) {
	column, err := counterColumn(kind)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
		UPDATE subscriptions
		SET %s = %s - 1, updated_at = NOW()
		WHERE id = $1 AND %s > 0
	`, column, column, column)

	result, err := r.pool.Exec(ctx, query, entryID)
	if err != nil {
		return false, fmt.Errorf("failed to decrement %s: %w", column, err)
	}
	return result.RowsAffected() > 0, nil
}

// IncrementCounter restores one unit to a bounded counter
func (r *PostgresLedgerRepository) IncrementCounter(ctx context.Context, entryID uuid.UUID, kind quota.Kind) (bool, error) {
	column, err := counterColumn(kind)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`
		UPDATE subscriptions
		SET %s = %s + 1, updated_at = NOW()
		WHERE id = $1 AND %s IS NOT NULL
	`, column, column, column)

	result, err := r.pool.Exec(ctx, query, entryID)
	if err != nil {
		return false, fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return result.RowsAffected() > 0, nil
}

func counterColumn(kind quota.Kind) (string, error) {
	switch kind {
	case quota.KindAuction:
		return "remaining_auctions", nil
	case quota.KindBid:
		return "remaining_bids", nil
	default:
		return "", fmt.Errorf("unknown quota kind: %s", kind)
	}
}
