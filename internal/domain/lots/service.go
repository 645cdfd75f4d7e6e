package lots

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hammerline/paddle/pkg/errs"
)

// Service errors
var (
	ErrLotNotFound  = errs.Sentinel("lot not found", errs.KindNotFound)
	ErrNotOwner     = errs.Sentinel("only the lot's seller can perform this action", errs.KindForbidden)
	ErrCannotCancel = errs.Sentinel("cannot cancel lot: lot has bids or is not active", errs.KindConflict)
)

// Service implements the core business logic for lots
type Service struct {
	repo Repository
}

// NewService creates a new lot service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetLot retrieves a lot by ID
func (s *Service) GetLot(ctx context.Context, lotID uuid.UUID) (*Lot, error) {
	lot, err := s.repo.GetLotByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, ErrLotNotFound) {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get lot")
	}
	return lot, nil
}

// ListAuctionLots retrieves all lots belonging to an auction
func (s *Service) ListAuctionLots(ctx context.Context, auctionID uuid.UUID) ([]*Lot, error) {
	list, err := s.repo.ListByAuctionID(ctx, auctionID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list auction lots")
	}
	return list, nil
}

// CancelLot withdraws a lot from its auction. Only the seller may cancel, and
// only while the lot is active with no bids. The no-bids guard is re-checked
// by the conditional update, so a bid racing the cancellation cannot be
// silently discarded.
func (s *Service) CancelLot(ctx context.Context, lotID, actorID uuid.UUID) (*Lot, error) {
	lot, err := s.repo.GetLotByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, ErrLotNotFound) {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get lot")
	}

	if !lot.IsOwnedBy(actorID) {
		return nil, ErrNotOwner
	}

	if !lot.CanBeCancelled() {
		return nil, ErrCannotCancel
	}

	ok, err := s.repo.MarkCancelled(ctx, lotID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to cancel lot")
	}
	if !ok {
		// A bid landed between the read and the update.
		return nil, ErrCannotCancel
	}

	lot.Status = StatusCancelled
	return lot, nil
}
