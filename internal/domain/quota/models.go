package quota

import (
	"time"

	"github.com/google/uuid"
)

// Kind selects which metered allowance an operation draws from.
type Kind string

const (
	KindAuction Kind = "auction"
	KindBid     Kind = "bid"
)

// EntryStatus represents the lifecycle state of a ledger entry.
// Entries are expired/cancelled/upgraded by the subscription purchase flow,
// never by this service.
type EntryStatus string

const (
	EntryStatusActive    EntryStatus = "active"
	EntryStatusExpired   EntryStatus = "expired"
	EntryStatusCancelled EntryStatus = "cancelled"
	EntryStatusUpgraded  EntryStatus = "upgraded"
)

// Entry is one subscription quota ledger entry. A nil counter is the
// unlimited sentinel and is immutable for the life of the entry.
type Entry struct {
	ID                uuid.UUID   `db:"id"`
	UserID            uuid.UUID   `db:"user_id"`
	StartDate         time.Time   `db:"start_date"`
	EndDate           time.Time   `db:"end_date"`
	RemainingAuctions *int64      `db:"remaining_auctions"`
	RemainingBids     *int64      `db:"remaining_bids"`
	Status            EntryStatus `db:"status"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
}

// Remaining returns the counter for the given kind, nil meaning unlimited.
func (e *Entry) Remaining(kind Kind) *int64 {
	if kind == KindAuction {
		return e.RemainingAuctions
	}
	return e.RemainingBids
}

// Unlimited reports whether the counter for the given kind is the
// unlimited sentinel.
func (e *Entry) Unlimited(kind Kind) bool {
	return e.Remaining(kind) == nil
}
