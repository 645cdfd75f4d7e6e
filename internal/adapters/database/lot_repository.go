package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerline/paddle/internal/domain/lots"
	pkgdb "github.com/hammerline/paddle/pkg/database"
)

// PostgresLotRepository implements lots.Repository and bidding.LotRepository
// using pgx. Bid-path mutations of the price fields and the status are single
// conditional statements so concurrent bids never take a lock. The settlement
// read locks its rows instead: a sold/unsold verdict computed from an unlocked
// snapshot could be invalidated by a bid landing before the status flips.
type PostgresLotRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLotRepository creates a new PostgreSQL lot repository
func NewPostgresLotRepository(pool *pgxpool.Pool) *PostgresLotRepository {
	return &PostgresLotRepository{pool: pool}
}

const lotColumns = `id, auction_id, seller_id, name, description, category, start_price, reserve_price, min_increment, current_bid, current_bidder, bid_count, status, created_at, updated_at`

func scanLot(row pgx.Row) (*lots.Lot, error) {
	var l lots.Lot
	err := row.Scan(
		&l.ID,
		&l.AuctionID,
		&l.SellerID,
		&l.Name,
		&l.Description,
		&l.Category,
		&l.StartPrice,
		&l.ReservePrice,
		&l.MinIncrement,
		&l.CurrentBid,
		&l.CurrentBidder,
		&l.BidCount,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLot creates a new lot within a transaction
func (r *PostgresLotRepository) CreateLot(ctx context.Context, tx pgx.Tx, lot *lots.Lot) error {
	query := `
		INSERT INTO lots (id, auction_id, seller_id, name, description, category, start_price, reserve_price, min_increment, current_bid, current_bidder, bid_count, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := tx.Exec(ctx, query,
		lot.ID,
		lot.AuctionID,
		lot.SellerID,
		lot.Name,
		lot.Description,
		lot.Category,
		lot.StartPrice,
		lot.ReservePrice,
		lot.MinIncrement,
		lot.CurrentBid,
		lot.CurrentBidder,
		lot.BidCount,
		lot.Status,
		lot.CreatedAt,
		lot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lot: %w", err)
	}
	return nil
}

// GetLotByID retrieves a lot by its ID
func (r *PostgresLotRepository) GetLotByID(ctx context.Context, lotID uuid.UUID) (*lots.Lot, error) {
	lot, err := scanLot(r.pool.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, lotID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, lots.ErrLotNotFound
		}
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}
	return lot, nil
}

// ListByAuctionID retrieves all lots belonging to an auction
func (r *PostgresLotRepository) ListByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*lots.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE auction_id = $1 ORDER BY created_at ASC`
	return r.listLots(ctx, r.pool, query, auctionID)
}

// ListActiveByAuctionID retrieves and locks the auction's still-active lots
// within the settlement transaction. The row locks hold off an in-flight
// ApplyBid until settlement commits, at which point its status guard fails,
// so every lot resolves from the price fields it actually settled with.
func (r *PostgresLotRepository) ListActiveByAuctionID(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) ([]*lots.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE auction_id = $1 AND status = 'active' ORDER BY created_at ASC FOR UPDATE`
	return r.listLots(ctx, tx, query, auctionID)
}

// MarkResolved conditionally settles an active lot to sold or unsold
func (r *PostgresLotRepository) MarkResolved(ctx context.Context, tx pgx.Tx, lotID uuid.UUID, status lots.Status) (bool, error) {
	query := `
		UPDATE lots
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'active'
	`
	result, err := tx.Exec(ctx, query, status, lotID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve lot: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkCancelled conditionally cancels an active, bidless lot
func (r *PostgresLotRepository) MarkCancelled(ctx context.Context, lotID uuid.UUID) (bool, error) {
	query := `
		UPDATE lots
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND bid_count = 0
	`
	result, err := r.pool.Exec(ctx, query, lotID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel lot: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ApplyBid installs a new highest bid, conditioned on the price snapshot the
// bidder read. Zero rows affected means another bid moved the price first.
func (r *PostgresLotRepository) ApplyBid(ctx context.Context, lotID uuid.UUID, snapshotBid, amount int64, bidderID uuid.UUID) (bool, error) {
	query := `
		UPDATE lots
		SET current_bid = $1, current_bidder = $2, bid_count = bid_count + 1, updated_at = NOW()
		WHERE id = $3 AND status = 'active' AND current_bid = $4
	`
	result, err := r.pool.Exec(ctx, query, amount, bidderID, lotID, snapshotBid)
	if err != nil {
		return false, fmt.Errorf("failed to apply bid: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// RevertBid restores the previous price fields after a failed consume,
// conditioned on this bid still being the leading one.
func (r *PostgresLotRepository) RevertBid(ctx context.Context, lotID uuid.UUID, prevBid int64, prevBidder *uuid.UUID, amount int64, bidderID uuid.UUID) (bool, error) {
	query := `
		UPDATE lots
		SET current_bid = $1, current_bidder = $2, bid_count = bid_count - 1, updated_at = NOW()
		WHERE id = $3 AND current_bid = $4 AND current_bidder = $5
	`
	result, err := r.pool.Exec(ctx, query, prevBid, prevBidder, lotID, amount, bidderID)
	if err != nil {
		return false, fmt.Errorf("failed to revert bid: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *PostgresLotRepository) listLots(ctx context.Context, db pkgdb.DBTX, query string, args ...any) ([]*lots.Lot, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots: %w", err)
	}
	defer rows.Close()

	var result []*lots.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		result = append(result, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}
	return result, nil
}
