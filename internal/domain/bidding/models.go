package bidding

import (
	"time"

	"github.com/google/uuid"
)

// BidStatus tags entries in the bid log. The tag is informational (history
// and analytics queries); invariant enforcement rides on the lot's
// conditionally updated price fields, never on these tags.
type BidStatus string

const (
	BidStatusValid     BidStatus = "valid"
	BidStatusOutbid    BidStatus = "outbid"
	BidStatusRetracted BidStatus = "retracted"
)

// Bid is one immutable entry in the append-only bid log, the durable source
// of truth a lot's current price is materialized from.
type Bid struct {
	ID        uuid.UUID `db:"id"`
	LotID     uuid.UUID `db:"lot_id"`
	AuctionID uuid.UUID `db:"auction_id"`
	BidderID  uuid.UUID `db:"bidder_id"`
	Amount    int64     `db:"amount"`
	Status    BidStatus `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// PlaceBidCommand represents the command to place a bid
type PlaceBidCommand struct {
	LotID    uuid.UUID
	BidderID uuid.UUID
	Amount   int64
}

// Placement is the successful outcome of a bid attempt.
type Placement struct {
	Bid        *Bid
	LotID      uuid.UUID
	CurrentBid int64
	ReserveMet bool
}

// LiveBidUpdate is the payload broadcast to observers watching a lot.
type LiveBidUpdate struct {
	LotID     uuid.UUID `json:"lot_id"`
	AuctionID uuid.UUID `json:"auction_id"`
	Amount    int64     `json:"amount"`
	BidderID  uuid.UUID `json:"bidder_id"`
	TotalBids int32     `json:"total_bids"`
	PlacedAt  time.Time `json:"placed_at"`
}
