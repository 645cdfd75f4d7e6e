package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LedgerRepository defines the interface for ledger persistence.
type LedgerRepository interface {
	// GetActiveEntry resolves the user's active ledger entry: the one whose
	// validity window contains now, falling back to the earliest future-dated
	// active entry (created by plan upgrades). Returns ErrNoActiveSubscription
	// when neither exists.
	GetActiveEntry(ctx context.Context, userID uuid.UUID, now time.Time) (*Entry, error)

	// DecrementCounter conditionally decrements the counter for kind on the
	// given entry. The decrement only applies while the counter is strictly
	// positive; returns false if the condition did not hold at write time.
	DecrementCounter(ctx context.Context, entryID uuid.UUID, kind Kind) (bool, error)

	// IncrementCounter restores one unit to a bounded counter. Returns false
	// if the entry no longer exists or the counter is unlimited.
	IncrementCounter(ctx context.Context, entryID uuid.UUID, kind Kind) (bool, error)
}
