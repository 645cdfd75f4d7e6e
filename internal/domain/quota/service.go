package quota

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hammerline/paddle/pkg/clock"
	"github.com/hammerline/paddle/pkg/errs"
)

// Service errors
var (
	ErrNoActiveSubscription = errs.Sentinel("no active subscription", errs.KindNoSubscription)
	ErrQuotaExhausted       = errs.Sentinel("quota exhausted", errs.KindQuotaExhausted)
	ErrLedgerNotFound       = errs.Sentinel("ledger entry not found", errs.KindNotFound)
)

// Service meters auction creation and bid placement against the user's
// active subscription ledger entry.
type Service struct {
	repo   LedgerRepository
	clock  clock.Clock
	logger *slog.Logger
}

// NewService creates a new quota service
func NewService(repo LedgerRepository, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{repo: repo, clock: clk, logger: logger}
}

// HasQuota reports whether the user can draw one unit of the given kind.
// Read-only: the answer may be stale by the time the caller acts on it, so
// Consume re-checks at write time.
func (s *Service) HasQuota(ctx context.Context, userID uuid.UUID, kind Kind) error {
	entry, err := s.repo.GetActiveEntry(ctx, userID, s.clock.Now())
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return err
		}
		return errs.Wrap(err, "failed to resolve active ledger entry")
	}

	if entry.Unlimited(kind) {
		return nil
	}
	if *entry.Remaining(kind) > 0 {
		return nil
	}
	return ErrQuotaExhausted
}

// Consume atomically re-checks and decrements the matching counter on the
// active entry. Safe under concurrent callers for the same user: the decrement
// is conditioned on the counter still being positive at the moment of the
// write, so at most one racing caller crosses the point of exhaustion.
// Unlimited counters are never decremented.
func (s *Service) Consume(ctx context.Context, userID uuid.UUID, kind Kind) error {
	entry, err := s.repo.GetActiveEntry(ctx, userID, s.clock.Now())
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return err
		}
		return errs.Wrap(err, "failed to resolve active ledger entry")
	}

	if entry.Unlimited(kind) {
		return nil
	}

	ok, err := s.repo.DecrementCounter(ctx, entry.ID, kind)
	if err != nil {
		return errs.Wrap(err, "failed to decrement quota counter")
	}
	if !ok {
		// Lost the race against a concurrent consume: counter was already zero.
		return ErrQuotaExhausted
	}
	return nil
}

// Refund is the compensating increment used to undo a Consume after a
// subsequent step failed. Best-effort: if the entry can no longer be located
// (expired between consume and refund) it returns ErrLedgerNotFound and the
// caller logs the inconsistency instead of retrying.
func (s *Service) Refund(ctx context.Context, userID uuid.UUID, kind Kind) error {
	entry, err := s.repo.GetActiveEntry(ctx, userID, s.clock.Now())
	if err != nil {
		if errors.Is(err, ErrNoActiveSubscription) {
			return ErrLedgerNotFound
		}
		return errs.Wrap(err, "failed to resolve ledger entry for refund")
	}

	if entry.Unlimited(kind) {
		return nil
	}

	ok, err := s.repo.IncrementCounter(ctx, entry.ID, kind)
	if err != nil {
		return errs.Wrap(err, "failed to increment quota counter")
	}
	if !ok {
		return ErrLedgerNotFound
	}
	return nil
}
