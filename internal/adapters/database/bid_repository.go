package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerline/paddle/internal/domain/bidding"
)

// PostgresBidRepository implements bidding.BidRepository using pgx
type PostgresBidRepository struct {
	pool *pgxpool.Pool // Keep pool for read-only operations
}

// NewPostgresBidRepository creates a new PostgreSQL bid repository
func NewPostgresBidRepository(pool *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{pool: pool}
}

// SaveBid appends a bid to the log within a transaction
func (r *PostgresBidRepository) SaveBid(ctx context.Context, tx pgx.Tx, bid *bidding.Bid) error {
	query := `
		INSERT INTO bids (id, lot_id, auction_id, bidder_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		bid.ID,
		bid.LotID,
		bid.AuctionID,
		bid.BidderID,
		bid.Amount,
		bid.Status,
		bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// MarkOutbid tags the lot's earlier valid entries as outbid
func (r *PostgresBidRepository) MarkOutbid(ctx context.Context, tx pgx.Tx, lotID, winningBidID uuid.UUID) error {
	query := `
		UPDATE bids
		SET status = 'outbid'
		WHERE lot_id = $1 AND status = 'valid' AND id <> $2
	`
	_, err := tx.Exec(ctx, query, lotID, winningBidID)
	if err != nil {
		return fmt.Errorf("failed to tag outbid entries: %w", err)
	}
	return nil
}

// GetBidsByLotID retrieves the lot's bid history, newest first
func (r *PostgresBidRepository) GetBidsByLotID(ctx context.Context, lotID uuid.UUID) ([]*bidding.Bid, error) {
	query := `
		SELECT id, lot_id, auction_id, bidder_id, amount, status, created_at
		FROM bids
		WHERE lot_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var result []*bidding.Bid
	for rows.Next() {
		var bid bidding.Bid
		if err := rows.Scan(
			&bid.ID,
			&bid.LotID,
			&bid.AuctionID,
			&bid.BidderID,
			&bid.Amount,
			&bid.Status,
			&bid.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		result = append(result, &bid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return result, nil
}
