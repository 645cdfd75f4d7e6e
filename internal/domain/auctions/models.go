package auctions

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an auction. Status only advances
// forward through upcoming -> live -> completed; cancelled is a terminal exit
// reachable from any non-terminal state by seller action only.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Auction groups lots under one seller-scheduled bidding window.
type Auction struct {
	ID          uuid.UUID `db:"id"`
	SellerID    uuid.UUID `db:"seller_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	Status      Status    `db:"status"`
	TotalLots   int32     `db:"total_lots"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// IsOwnedBy checks auction ownership
func (a *Auction) IsOwnedBy(userID uuid.UUID) bool {
	return a.SellerID == userID
}

// IsBiddableAt reports whether bids may be placed: the auction must be live
// and now must lie within the scheduled window.
func (a *Auction) IsBiddableAt(now time.Time) bool {
	return a.Status == StatusLive && !now.Before(a.StartDate) && !now.After(a.EndDate)
}

// CanStart is the upcoming -> live guard, shared by the manual start call and
// the scheduler sweep so the two paths can never diverge.
func (a *Auction) CanStart(now time.Time) error {
	if a.Status != StatusUpcoming {
		return ErrNotUpcoming
	}
	if a.TotalLots == 0 {
		return ErrNoLots
	}
	if now.Before(a.StartDate) {
		return ErrBeforeStartTime
	}
	return nil
}

// CanComplete is the upcoming|live -> completed guard, shared by the manual
// end call and the scheduler sweep.
func (a *Auction) CanComplete(now time.Time) error {
	if a.Status.IsTerminal() {
		return ErrTerminalState
	}
	if !now.After(a.EndDate) {
		return ErrBeforeEndTime
	}
	return nil
}

// CanCancel guards the seller-initiated terminal exit. Cancellation is never
// time-driven.
func (a *Auction) CanCancel() error {
	if a.Status.IsTerminal() {
		return ErrTerminalState
	}
	return nil
}
