package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerline/paddle/pkg/errs"
)

// Eligibility errors
var (
	ErrUserNotFound    = errs.Sentinel("user not found", errs.KindNotFound)
	ErrAccountNotReady = errs.Sentinel("bidding is allowed only for approved accounts", errs.KindForbidden)
	ErrNotABuyer       = errs.Sentinel("only buyers can place bids", errs.KindForbidden)
)

// PostgresUserDirectory implements bidding.EligibilityChecker against the
// read-only users table. Identity lifecycle (registration, approval) is owned
// by an external system; this adapter only answers standing questions.
type PostgresUserDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresUserDirectory creates a new PostgreSQL user directory
func NewPostgresUserDirectory(pool *pgxpool.Pool) *PostgresUserDirectory {
	return &PostgresUserDirectory{pool: pool}
}

// CheckBidder verifies the user exists, is approved, and holds a
// buyer-capable account type.
func (d *PostgresUserDirectory) CheckBidder(ctx context.Context, userID uuid.UUID) error {
	query := `SELECT account_type, registration_status FROM users WHERE id = $1`

	var accountType, registrationStatus string
	err := d.pool.QueryRow(ctx, query, userID).Scan(&accountType, &registrationStatus)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrUserNotFound
		}
		return errs.Wrap(err, "failed to look up user")
	}

	if registrationStatus != "approved" {
		return ErrAccountNotReady
	}
	if accountType != "buyer" && accountType != "seller_buyer" {
		return ErrNotABuyer
	}
	return nil
}
