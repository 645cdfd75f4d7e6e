package lots

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for lot persistence
type Repository interface {
	// CreateLot creates a new lot within a transaction, alongside the
	// owning auction's lot-count update.
	CreateLot(ctx context.Context, tx pgx.Tx, lot *Lot) error

	// GetLotByID retrieves a lot by its ID
	GetLotByID(ctx context.Context, lotID uuid.UUID) (*Lot, error)

	// ListByAuctionID retrieves all lots belonging to an auction
	ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*Lot, error)

	// ListActiveByAuctionID retrieves and locks the auction's still-active
	// lots within the settlement transaction, so no bid can move the price
	// fields between this read and the resolution update.
	ListActiveByAuctionID(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) ([]*Lot, error)

	// MarkResolved conditionally settles an active lot to sold or unsold.
	// Returns false if the lot was no longer active, so a concurrent
	// settlement is a no-op rather than a double transition.
	MarkResolved(ctx context.Context, tx pgx.Tx, lotID uuid.UUID, status Status) (bool, error)

	// MarkCancelled conditionally cancels a lot. The guard re-checks that the
	// lot is active and bidless at write time.
	MarkCancelled(ctx context.Context, lotID uuid.UUID) (bool, error)
}
