package auctions

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hammerline/paddle/internal/domain/lots"
	"github.com/hammerline/paddle/internal/domain/quota"
	"github.com/hammerline/paddle/pkg/clock"
	"github.com/hammerline/paddle/pkg/database"
	"github.com/hammerline/paddle/pkg/errs"
	"github.com/hammerline/paddle/pkg/events"
)

// Service errors
var (
	ErrAuctionNotFound = errs.Sentinel("auction not found", errs.KindNotFound)
	ErrNotSeller       = errs.Sentinel("only the auction's seller can perform this action", errs.KindForbidden)

	ErrInvalidWindow   = errs.Sentinel("end date must be after start date", errs.KindValidation)
	ErrNotUpcoming     = errs.Sentinel("auction is not upcoming", errs.KindConflict)
	ErrNoLots          = errs.Sentinel("cannot start auction without any lots", errs.KindValidation)
	ErrBeforeStartTime = errs.Sentinel("cannot start auction before scheduled start time", errs.KindValidation)
	ErrBeforeEndTime   = errs.Sentinel("cannot end auction before scheduled end time", errs.KindValidation)
	ErrTerminalState   = errs.Sentinel("auction is already completed or cancelled", errs.KindConflict)

	// ErrTransitionConflict means the conditional status update lost against a
	// concurrent transition (manual call racing the scheduler sweep).
	ErrTransitionConflict = errs.Sentinel("auction state changed concurrently", errs.KindConflict)

	ErrClosedForLots     = errs.Sentinel("cannot add lots to completed or cancelled auction", errs.KindConflict)
	ErrInvalidStartPrice = errs.Sentinel("start price must be greater than 0", errs.KindValidation)
	ErrInvalidIncrement  = errs.Sentinel("minimum increment must be greater than 0", errs.KindValidation)
	ErrInvalidReserve    = errs.Sentinel("reserve price cannot be below start price", errs.KindValidation)
)

// CreateAuctionCommand represents the command to create a new auction
type CreateAuctionCommand struct {
	SellerID    uuid.UUID
	Name        string
	Description string
	Category    string
	StartDate   time.Time
	EndDate     time.Time
}

// AddLotCommand represents the command to add a lot to an auction
type AddLotCommand struct {
	AuctionID    uuid.UUID
	SellerID     uuid.UUID
	Name         string
	Description  string
	Category     string
	StartPrice   int64
	ReservePrice int64
	MinIncrement int64
}

// SweepResult lists the auctions a scheduler tick transitioned.
type SweepResult struct {
	Started []uuid.UUID
	Ended   []uuid.UUID
}

// Service implements the auction lifecycle: creation metered by the quota
// ledger, the state machine transitions, and the lot settlement that runs at
// completion. Manual seller calls and the scheduler sweep share the same
// guard and transition code paths.
type Service struct {
	repo       Repository
	lotRepo    lots.Repository
	outboxRepo events.OutboxRepository
	txManager  database.TransactionManager
	ledger     QuotaLedger
	clock      clock.Clock
	logger     *slog.Logger
}

// NewService creates a new auction service
func NewService(
	repo Repository,
	lotRepo lots.Repository,
	outboxRepo events.OutboxRepository,
	txManager database.TransactionManager,
	ledger QuotaLedger,
	clk clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		lotRepo:    lotRepo,
		outboxRepo: outboxRepo,
		txManager:  txManager,
		ledger:     ledger,
		clock:      clk,
		logger:     logger,
	}
}

// CreateAuction creates a new auction for the seller, drawing one unit of
// auction quota. Quota is consumed after the insert; if consumption loses a
// concurrent-exhaustion race the auction is deleted again, keeping ledger and
// auction state consistent.
func (s *Service) CreateAuction(ctx context.Context, cmd CreateAuctionCommand) (*Auction, error) {
	now := s.clock.Now()

	if !cmd.EndDate.After(cmd.StartDate) {
		return nil, ErrInvalidWindow
	}

	if err := s.ledger.HasQuota(ctx, cmd.SellerID, quota.KindAuction); err != nil {
		return nil, err
	}

	auction := &Auction{
		ID:          uuid.New(),
		SellerID:    cmd.SellerID,
		Name:        cmd.Name,
		Description: cmd.Description,
		Category:    cmd.Category,
		StartDate:   cmd.StartDate,
		EndDate:     cmd.EndDate,
		Status:      StatusUpcoming,
		TotalLots:   0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return nil, errs.Wrap(err, "failed to create auction")
	}

	if err := s.ledger.Consume(ctx, cmd.SellerID, quota.KindAuction); err != nil {
		// Quota got exhausted between the check and the consume. Roll the
		// auction back so nothing exists that was never billed.
		if delErr := s.repo.DeleteAuction(ctx, auction.ID); delErr != nil {
			s.logger.Error("auction rollback failed after quota consume error",
				"auction_id", auction.ID, "error", delErr)
		}
		return nil, err
	}

	return auction, nil
}

// AddLot adds a lot to one of the seller's auctions. The lot insert and the
// auction's lot-count increment commit in one transaction.
func (s *Service) AddLot(ctx context.Context, cmd AddLotCommand) (*lots.Lot, error) {
	if cmd.StartPrice <= 0 {
		return nil, ErrInvalidStartPrice
	}
	if cmd.MinIncrement <= 0 {
		return nil, ErrInvalidIncrement
	}
	if cmd.ReservePrice < cmd.StartPrice {
		return nil, ErrInvalidReserve
	}

	auction, err := s.repo.GetAuctionByID(ctx, cmd.AuctionID)
	if err != nil {
		if errors.Is(err, ErrAuctionNotFound) {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get auction")
	}
	if !auction.IsOwnedBy(cmd.SellerID) {
		return nil, ErrNotSeller
	}
	if auction.Status.IsTerminal() {
		return nil, ErrClosedForLots
	}

	now := s.clock.Now()
	lot := &lots.Lot{
		ID:           uuid.New(),
		AuctionID:    cmd.AuctionID,
		SellerID:     cmd.SellerID,
		Name:         cmd.Name,
		Description:  cmd.Description,
		Category:     cmd.Category,
		StartPrice:   cmd.StartPrice,
		ReservePrice: cmd.ReservePrice,
		MinIncrement: cmd.MinIncrement,
		CurrentBid:   0,
		BidCount:     0,
		Status:       lots.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.lotRepo.CreateLot(ctx, tx, lot); err != nil {
		return nil, errs.Wrap(err, "failed to create lot")
	}
	if err := s.repo.IncrementLotCount(ctx, tx, cmd.AuctionID); err != nil {
		return nil, errs.Wrap(err, "failed to increment lot count")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Wrap(err, "failed to commit transaction")
	}

	return lot, nil
}

// GetAuction retrieves an auction by ID
func (s *Service) GetAuction(ctx context.Context, auctionID uuid.UUID) (*Auction, error) {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, ErrAuctionNotFound) {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get auction")
	}
	return auction, nil
}

// StartAuction is the manual seller-invoked upcoming -> live transition. It
// re-validates the same guards as the scheduler sweep.
func (s *Service) StartAuction(ctx context.Context, auctionID, actorID uuid.UUID) (*Auction, error) {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, ErrAuctionNotFound) {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get auction")
	}
	if !auction.IsOwnedBy(actorID) {
		return nil, ErrNotSeller
	}

	now := s.clock.Now()
	if err := auction.CanStart(now); err != nil {
		return nil, err
	}

	if err := s.start(ctx, auction, now); err != nil {
		return nil, err
	}
	auction.Status = StatusLive
	return auction, nil
}

// EndAuction is the manual seller-invoked transition to completed, including
// lot settlement. Guards match the scheduler sweep.
func (s *Service) EndAuction(ctx context.Context, auctionID, actorID uuid.UUID) (*Auction, error) {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, ErrAuctionNotFound) {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get auction")
	}
	if !auction.IsOwnedBy(actorID) {
		return nil, ErrNotSeller
	}

	now := s.clock.Now()
	if err := auction.CanComplete(now); err != nil {
		return nil, err
	}

	if err := s.complete(ctx, auction, now); err != nil {
		return nil, err
	}
	auction.Status = StatusCompleted
	return auction, nil
}

// CancelAuction is the seller-initiated terminal exit, valid from any
// non-terminal state. It is never triggered by time.
func (s *Service) CancelAuction(ctx context.Context, auctionID, actorID uuid.UUID) (*Auction, error) {
	auction, err := s.repo.GetAuctionByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, ErrAuctionNotFound) {
			return nil, err
		}
		return nil, errs.Internal(err, "failed to get auction")
	}
	if !auction.IsOwnedBy(actorID) {
		return nil, ErrNotSeller
	}
	if err := auction.CanCancel(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ok, err := s.repo.MarkCancelled(ctx, tx, auction.ID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to cancel auction")
	}
	if !ok {
		return nil, ErrTransitionConflict
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errs.Wrap(err, "failed to commit transaction")
	}

	auction.Status = StatusCancelled
	return auction, nil
}

// Sweep advances every auction whose time-driven guard now holds: due
// upcoming auctions go live, overdue live and upcoming auctions complete and
// settle their lots. Transitions that lose a race against a manual call are
// skipped, so re-running the sweep is a no-op.
func (s *Service) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	due, err := s.repo.ListDueToStart(ctx, now)
	if err != nil {
		return result, errs.Wrap(err, "failed to list auctions due to start")
	}
	for _, auction := range due {
		if err := auction.CanStart(now); err != nil {
			continue
		}
		if err := s.start(ctx, auction, now); err != nil {
			if errors.Is(err, ErrTransitionConflict) {
				continue
			}
			s.logger.Error("failed to start auction", "auction_id", auction.ID, "error", err)
			continue
		}
		result.Started = append(result.Started, auction.ID)
	}

	overdue, err := s.repo.ListDueToEnd(ctx, now)
	if err != nil {
		return result, errs.Wrap(err, "failed to list auctions due to end")
	}
	for _, auction := range overdue {
		if err := auction.CanComplete(now); err != nil {
			continue
		}
		if err := s.complete(ctx, auction, now); err != nil {
			if errors.Is(err, ErrTransitionConflict) {
				continue
			}
			s.logger.Error("failed to end auction", "auction_id", auction.ID, "error", err)
			continue
		}
		result.Ended = append(result.Ended, auction.ID)
	}

	return result, nil
}

// start applies the upcoming -> live transition and records the
// auction.started event atomically. Callers validate CanStart first.
func (s *Service) start(ctx context.Context, auction *Auction, now time.Time) error {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return errs.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ok, err := s.repo.MarkLive(ctx, tx, auction.ID)
	if err != nil {
		return errs.Wrap(err, "failed to mark auction live")
	}
	if !ok {
		return ErrTransitionConflict
	}

	event, err := events.NewOutboxEvent(events.TypeAuctionStarted, events.AuctionStatusChanged{
		AuctionID: auction.ID,
		SellerID:  auction.SellerID,
		Status:    string(StatusLive),
		At:        now,
	}, now)
	if err != nil {
		return errs.Wrap(err, "failed to build auction.started event")
	}
	if err := s.outboxRepo.SaveEvent(ctx, tx, event); err != nil {
		return errs.Wrap(err, "failed to save outbox event")
	}

	return errs.Wrap(tx.Commit(ctx), "failed to commit transaction")
}

// complete applies the transition to completed and settles every remaining
// active lot to sold or unsold, all in one transaction. Callers validate
// CanComplete first.
func (s *Service) complete(ctx context.Context, auction *Auction, now time.Time) error {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return errs.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ok, err := s.repo.MarkCompleted(ctx, tx, auction.ID)
	if err != nil {
		return errs.Wrap(err, "failed to mark auction completed")
	}
	if !ok {
		return ErrTransitionConflict
	}

	event, err := events.NewOutboxEvent(events.TypeAuctionEnded, events.AuctionStatusChanged{
		AuctionID: auction.ID,
		SellerID:  auction.SellerID,
		Status:    string(StatusCompleted),
		At:        now,
	}, now)
	if err != nil {
		return errs.Wrap(err, "failed to build auction.ended event")
	}
	if err := s.outboxRepo.SaveEvent(ctx, tx, event); err != nil {
		return errs.Wrap(err, "failed to save outbox event")
	}

	active, err := s.lotRepo.ListActiveByAuctionID(ctx, tx, auction.ID)
	if err != nil {
		return errs.Wrap(err, "failed to list active lots")
	}
	for _, lot := range active {
		final := lot.Resolve()
		settled, err := s.lotRepo.MarkResolved(ctx, tx, lot.ID, final)
		if err != nil {
			return errs.Wrapf(err, "failed to resolve lot %s", lot.ID)
		}
		if !settled {
			// Already settled by a concurrent completion path.
			continue
		}

		lotEvent, err := events.NewOutboxEvent(events.TypeLotResolved, events.LotResolved{
			LotID:     lot.ID,
			AuctionID: auction.ID,
			SellerID:  lot.SellerID,
			Status:    string(final),
			FinalBid:  lot.CurrentBid,
			WinnerID:  winnerOf(lot, final),
			At:        now,
		}, now)
		if err != nil {
			return errs.Wrap(err, "failed to build lot.resolved event")
		}
		if err := s.outboxRepo.SaveEvent(ctx, tx, lotEvent); err != nil {
			return errs.Wrap(err, "failed to save outbox event")
		}
	}

	return errs.Wrap(tx.Commit(ctx), "failed to commit transaction")
}

func winnerOf(lot *lots.Lot, final lots.Status) *uuid.UUID {
	if final != lots.StatusSold {
		return nil
	}
	return lot.CurrentBidder
}
