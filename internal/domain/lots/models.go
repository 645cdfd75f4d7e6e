package lots

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a lot. active is the only
// non-terminal state: sold, unsold and cancelled are final.
type Status string

const (
	StatusActive    Status = "active"
	StatusSold      Status = "sold"
	StatusUnsold    Status = "unsold"
	StatusCancelled Status = "cancelled"
)

// Lot is a single item within an auction that buyers bid on independently.
// CurrentBid and CurrentBidder are a materialized view of the append-only bid
// log, updated atomically alongside each accepted bid.
type Lot struct {
	ID            uuid.UUID  `db:"id"`
	AuctionID     uuid.UUID  `db:"auction_id"`
	SellerID      uuid.UUID  `db:"seller_id"`
	Name          string     `db:"name"`
	Description   string     `db:"description"`
	Category      string     `db:"category"`
	StartPrice    int64      `db:"start_price"`
	ReservePrice  int64      `db:"reserve_price"`
	MinIncrement  int64      `db:"min_increment"`
	CurrentBid    int64      `db:"current_bid"`
	CurrentBidder *uuid.UUID `db:"current_bidder"`
	BidCount      int32      `db:"bid_count"`
	Status        Status     `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// MinAllowedBid returns the lowest acceptable bid amount: the start price
// while no bid exists, otherwise the current bid plus the minimum increment.
// The reserve price never factors in.
func (l *Lot) MinAllowedBid() int64 {
	if l.BidCount == 0 {
		return l.StartPrice
	}
	return l.CurrentBid + l.MinIncrement
}

// ReserveMet reports whether the current bid satisfies the reserve price.
func (l *Lot) ReserveMet() bool {
	return l.CurrentBidder != nil && l.CurrentBid >= l.ReservePrice
}

// Resolve returns the terminal status the lot settles to when its auction
// completes: sold when the reserve is met by a leading bidder, unsold
// otherwise. Only meaningful for active lots.
func (l *Lot) Resolve() Status {
	if l.ReserveMet() {
		return StatusSold
	}
	return StatusUnsold
}

// CanBeCancelled reports whether the seller may still withdraw the lot.
// Cancellation is permitted only while the lot is active and bidless.
func (l *Lot) CanBeCancelled() bool {
	return l.Status == StatusActive && l.BidCount == 0
}

// IsOwnedBy checks lot ownership
func (l *Lot) IsOwnedBy(userID uuid.UUID) bool {
	return l.SellerID == userID
}
