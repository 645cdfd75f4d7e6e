package bidding

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hammerline/paddle/internal/domain/auctions"
	"github.com/hammerline/paddle/internal/domain/lots"
	"github.com/hammerline/paddle/internal/domain/quota"
)

// BidRepository defines the interface for the append-only bid log
type BidRepository interface {
	// SaveBid appends a bid to the log within a transaction
	SaveBid(ctx context.Context, tx pgx.Tx, bid *Bid) error

	// MarkOutbid tags the lot's earlier valid entries as outbid, within the
	// same transaction that appends the winning entry. Informational only.
	MarkOutbid(ctx context.Context, tx pgx.Tx, lotID, winningBidID uuid.UUID) error

	// GetBidsByLotID retrieves the lot's bid history, newest first
	GetBidsByLotID(ctx context.Context, lotID uuid.UUID) ([]*Bid, error)
}

// LotRepository is the slice of lot persistence the protocol touches. The two
// mutating calls are conditional updates so concurrent bids on one lot are
// serialized without a lock.
type LotRepository interface {
	// GetLotByID retrieves a lot by its ID
	GetLotByID(ctx context.Context, lotID uuid.UUID) (*Lot, error)

	// ApplyBid conditionally installs a new highest bid: the update only
	// applies while the lot is active and its stored current bid still equals
	// snapshotBid. Returns false if another bid won the race in the interim.
	ApplyBid(ctx context.Context, lotID uuid.UUID, snapshotBid, amount int64, bidderID uuid.UUID) (bool, error)

	// RevertBid is the compensating update after a failed consume: it
	// restores the previous price fields, guarded by the same conditional
	// discipline (only while this bid is still the leading one).
	RevertBid(ctx context.Context, lotID uuid.UUID, prevBid int64, prevBidder *uuid.UUID, amount int64, bidderID uuid.UUID) (bool, error)
}

// Lot aliases the lots domain model for protocol callers.
type Lot = lots.Lot

// AuctionReader resolves the auction a lot belongs to.
type AuctionReader interface {
	GetAuctionByID(ctx context.Context, auctionID uuid.UUID) (*auctions.Auction, error)
}

// QuotaLedger is the slice of the quota service the protocol consumes.
type QuotaLedger interface {
	HasQuota(ctx context.Context, userID uuid.UUID, kind quota.Kind) error
	Consume(ctx context.Context, userID uuid.UUID, kind quota.Kind) error
	Refund(ctx context.Context, userID uuid.UUID, kind quota.Kind) error
}

// EligibilityChecker verifies the bidder's account standing. Backed by the
// user directory here; external identity systems can substitute their own.
type EligibilityChecker interface {
	CheckBidder(ctx context.Context, userID uuid.UUID) error
}

// Broadcaster pushes live bid updates to interested observers. Calls are
// fire-and-forget: failures never affect an accepted bid.
type Broadcaster interface {
	BroadcastBid(ctx context.Context, update LiveBidUpdate) error
}
