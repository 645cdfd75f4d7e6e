package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type represents the type of domain event
type Type string

const (
	TypeBidPlaced      Type = "bid.placed"
	TypeAuctionStarted Type = "auction.started"
	TypeAuctionEnded   Type = "auction.ended"
	TypeLotResolved    Type = "lot.resolved"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is known
func (t Type) IsValid() bool {
	switch t {
	case TypeBidPlaced, TypeAuctionStarted, TypeAuctionEnded, TypeLotResolved:
		return true
	default:
		return false
	}
}

// BidPlaced is emitted after a bid has been accepted and durably recorded.
// Notification and stats consumers fan out from it.
type BidPlaced struct {
	BidID      uuid.UUID `json:"bid_id"`
	LotID      uuid.UUID `json:"lot_id"`
	AuctionID  uuid.UUID `json:"auction_id"`
	BidderID   uuid.UUID `json:"bidder_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	Amount     int64     `json:"amount"`
	ReserveMet bool      `json:"reserve_met"`
	PlacedAt   time.Time `json:"placed_at"`
}

// AuctionStatusChanged is emitted for auction.started and auction.ended.
type AuctionStatusChanged struct {
	AuctionID uuid.UUID `json:"auction_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// LotResolved is emitted when a lot settles to sold or unsold at auction end.
type LotResolved struct {
	LotID     uuid.UUID  `json:"lot_id"`
	AuctionID uuid.UUID  `json:"auction_id"`
	SellerID  uuid.UUID  `json:"seller_id"`
	Status    string     `json:"status"`
	FinalBid  int64      `json:"final_bid"`
	WinnerID  *uuid.UUID `json:"winner_id,omitempty"`
	At        time.Time  `json:"at"`
}

// NewOutboxEvent marshals payload to JSON and wraps it as a pending outbox row.
func NewOutboxEvent(eventType Type, payload any, now time.Time) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   body,
		Status:    OutboxStatusPending,
		CreatedAt: now,
	}, nil
}
