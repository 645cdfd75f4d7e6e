package bidding

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hammerline/paddle/internal/domain/auctions"
	"github.com/hammerline/paddle/internal/domain/lots"
	"github.com/hammerline/paddle/internal/domain/quota"
	"github.com/hammerline/paddle/pkg/clock"
	"github.com/hammerline/paddle/pkg/database"
	"github.com/hammerline/paddle/pkg/errs"
	"github.com/hammerline/paddle/pkg/events"
)

// Validation errors
var (
	ErrInvalidAmount   = errs.Sentinel("bid amount must be positive", errs.KindValidation)
	ErrSellerCannotBid = errs.Sentinel("sellers cannot bid on their own lots", errs.KindForbidden)
	ErrAuctionNotLive  = errs.Sentinel("bidding is allowed only while the auction is live and within its scheduled window", errs.KindForbidden)
	ErrLotNotActive    = errs.Sentinel("lot is not active, bidding not allowed", errs.KindForbidden)
	ErrBidTooLow       = errs.Sentinel("bid amount is below the minimum allowed", errs.KindValidation)

	// ErrOutbid means another bid won the race against our price snapshot.
	// The caller should re-fetch the lot and decide whether to retry.
	ErrOutbid = errs.Sentinel("you were outbid just now, fetch the latest bid and try again", errs.KindConflict)
)

// Service implements the race-safe bid placement protocol. Concurrent bids on
// one lot are serialized by a conditional update against the price snapshot
// each bidder read, never by a lock, so contention stays scoped to the lot.
type Service struct {
	lotRepo     LotRepository
	bidRepo     BidRepository
	auctionRepo AuctionReader
	outboxRepo  events.OutboxRepository
	txManager   database.TransactionManager
	ledger      QuotaLedger
	eligibility EligibilityChecker
	broadcaster Broadcaster
	clock       clock.Clock
	logger      *slog.Logger
}

// NewService creates a new bidding service
func NewService(
	lotRepo LotRepository,
	bidRepo BidRepository,
	auctionRepo AuctionReader,
	outboxRepo events.OutboxRepository,
	txManager database.TransactionManager,
	ledger QuotaLedger,
	eligibility EligibilityChecker,
	broadcaster Broadcaster,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		lotRepo:     lotRepo,
		bidRepo:     bidRepo,
		auctionRepo: auctionRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
		ledger:      ledger,
		eligibility: eligibility,
		broadcaster: broadcaster,
		clock:       clk,
		logger:      logger,
	}
}

// PlaceBid runs the full placement protocol: ordered precondition checks,
// conditional installation of the new highest bid, quota consumption with a
// compensating rollback, and the durable bid-log append. Either the bid is
// accepted and fully recorded, or the caller gets a specific rejection.
func (s *Service) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*Placement, error) {
	if cmd.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if err := s.eligibility.CheckBidder(ctx, cmd.BidderID); err != nil {
		return nil, err
	}

	lot, err := s.lotRepo.GetLotByID(ctx, cmd.LotID)
	if err != nil {
		if errors.Is(err, lots.ErrLotNotFound) {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get lot")
	}

	if lot.SellerID == cmd.BidderID {
		return nil, ErrSellerCannotBid
	}

	auction, err := s.auctionRepo.GetAuctionByID(ctx, lot.AuctionID)
	if err != nil {
		if errors.Is(err, auctions.ErrAuctionNotFound) {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get auction")
	}

	now := s.clock.Now()
	if !auction.IsBiddableAt(now) {
		return nil, ErrAuctionNotLive
	}

	if lot.Status != lots.StatusActive {
		return nil, ErrLotNotActive
	}

	if err := s.ledger.HasQuota(ctx, cmd.BidderID, quota.KindBid); err != nil {
		return nil, err
	}

	minAllowed := lot.MinAllowedBid()
	if cmd.Amount < minAllowed {
		return nil, errs.Wrapf(ErrBidTooLow, "minimum allowed is %d", minAllowed)
	}

	// Install the new highest bid, conditioned on the price snapshot we just
	// read. If the stored current bid moved in the interim, another bid won
	// the race and the caller must retry against fresh data.
	ok, err := s.lotRepo.ApplyBid(ctx, cmd.LotID, lot.CurrentBid, cmd.Amount, cmd.BidderID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to apply bid")
	}
	if !ok {
		return nil, ErrOutbid
	}

	// Consume quota after the lot mutation. A concurrent quota-exhausting
	// event can land between the precondition check and this point; when it
	// does, compensate by restoring the previous price fields.
	if err := s.ledger.Consume(ctx, cmd.BidderID, quota.KindBid); err != nil {
		s.revertLot(ctx, lot, cmd)
		return nil, err
	}

	bid := &Bid{
		ID:        uuid.New(),
		LotID:     lot.ID,
		AuctionID: lot.AuctionID,
		BidderID:  cmd.BidderID,
		Amount:    cmd.Amount,
		Status:    BidStatusValid,
		CreatedAt: now,
	}

	reserveMet := cmd.Amount >= lot.ReservePrice

	if err := s.recordBid(ctx, lot, bid, reserveMet, now); err != nil {
		// The bid never became durable: give the quota unit back and restore
		// the lot. Both compensations are best-effort.
		if refundErr := s.ledger.Refund(ctx, cmd.BidderID, quota.KindBid); refundErr != nil {
			s.logger.Error("quota refund failed after bid persistence error",
				"lot_id", lot.ID, "bidder_id", cmd.BidderID, "error", refundErr)
		}
		s.revertLot(ctx, lot, cmd)
		return nil, errs.Wrap(err, "failed to record bid")
	}

	// Live broadcast is fire-and-forget: it must never block or fail the
	// accepted bid.
	update := LiveBidUpdate{
		LotID:     lot.ID,
		AuctionID: lot.AuctionID,
		Amount:    cmd.Amount,
		BidderID:  cmd.BidderID,
		TotalBids: lot.BidCount + 1,
		PlacedAt:  now,
	}
	go func(ctx context.Context) {
		if err := s.broadcaster.BroadcastBid(ctx, update); err != nil {
			s.logger.Warn("live bid broadcast failed", "lot_id", update.LotID, "error", err)
		}
	}(context.WithoutCancel(ctx))

	return &Placement{
		Bid:        bid,
		LotID:      lot.ID,
		CurrentBid: cmd.Amount,
		ReserveMet: reserveMet,
	}, nil
}

// History returns the lot's bid log, newest first.
func (s *Service) History(ctx context.Context, lotID uuid.UUID) ([]*Bid, error) {
	history, err := s.bidRepo.GetBidsByLotID(ctx, lotID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to load bid history")
	}
	return history, nil
}

// recordBid appends the bid to the durable log and enqueues the bid.placed
// event in one transaction (transactional outbox).
func (s *Service) recordBid(ctx context.Context, lot *Lot, bid *Bid, reserveMet bool, now time.Time) error {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return errs.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.bidRepo.SaveBid(ctx, tx, bid); err != nil {
		return errs.Wrap(err, "failed to save bid")
	}

	if err := s.bidRepo.MarkOutbid(ctx, tx, lot.ID, bid.ID); err != nil {
		return errs.Wrap(err, "failed to tag outbid entries")
	}

	event, err := events.NewOutboxEvent(events.TypeBidPlaced, events.BidPlaced{
		BidID:      bid.ID,
		LotID:      lot.ID,
		AuctionID:  lot.AuctionID,
		BidderID:   bid.BidderID,
		SellerID:   lot.SellerID,
		Amount:     bid.Amount,
		ReserveMet: reserveMet,
		PlacedAt:   now,
	}, now)
	if err != nil {
		return errs.Wrap(err, "failed to build bid.placed event")
	}
	if err := s.outboxRepo.SaveEvent(ctx, tx, event); err != nil {
		return errs.Wrap(err, "failed to save outbox event")
	}

	return errs.Wrap(tx.Commit(ctx), "failed to commit transaction")
}

// revertLot undoes a conditionally installed bid after a later step failed.
// The revert uses the same conditional discipline: it only applies while this
// bid is still the leading one. If the revert itself fails, the lot shows a
// bid that was never billed against quota; that inconsistency is logged, not
// retried.
func (s *Service) revertLot(ctx context.Context, lot *Lot, cmd PlaceBidCommand) {
	ok, err := s.lotRepo.RevertBid(ctx, lot.ID, lot.CurrentBid, lot.CurrentBidder, cmd.Amount, cmd.BidderID)
	if err != nil || !ok {
		s.logger.Error("bid rollback failed, lot retains a bid that was never billed against quota",
			"lot_id", lot.ID, "bidder_id", cmd.BidderID, "amount", cmd.Amount, "error", err)
	}
}
