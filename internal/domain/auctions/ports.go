package auctions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hammerline/paddle/internal/domain/quota"
)

// Repository defines the interface for auction persistence. State changes go
// through the Mark* methods, which apply the new status conditionally on the
// expected prior status so concurrent manual and scheduled triggers cannot
// double-transition an auction.
type Repository interface {
	// CreateAuction persists a new auction
	CreateAuction(ctx context.Context, a *Auction) error

	// DeleteAuction removes an auction. Used only as the compensating action
	// when quota consumption fails right after creation.
	DeleteAuction(ctx context.Context, auctionID uuid.UUID) error

	// GetAuctionByID retrieves an auction by its ID
	GetAuctionByID(ctx context.Context, auctionID uuid.UUID) (*Auction, error)

	// MarkLive transitions upcoming -> live. Returns false if the auction was
	// not upcoming at write time.
	MarkLive(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (bool, error)

	// MarkCompleted transitions upcoming|live -> completed. Returns false if
	// the auction was already terminal.
	MarkCompleted(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (bool, error)

	// MarkCancelled transitions any non-terminal state -> cancelled.
	MarkCancelled(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (bool, error)

	// IncrementLotCount bumps the auction's lot counter within the
	// transaction that inserts the lot.
	IncrementLotCount(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) error

	// ListDueToStart returns upcoming auctions whose start guard holds at now
	ListDueToStart(ctx context.Context, now time.Time) ([]*Auction, error)

	// ListDueToEnd returns upcoming or live auctions whose end guard holds at now
	ListDueToEnd(ctx context.Context, now time.Time) ([]*Auction, error)
}

// QuotaLedger is the slice of the quota service the auction service consumes.
type QuotaLedger interface {
	HasQuota(ctx context.Context, userID uuid.UUID, kind quota.Kind) error
	Consume(ctx context.Context, userID uuid.UUID, kind quota.Kind) error
}
