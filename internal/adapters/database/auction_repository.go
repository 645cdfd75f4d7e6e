package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hammerline/paddle/internal/domain/auctions"
)

// PostgresAuctionRepository implements auctions.Repository using pgx
type PostgresAuctionRepository struct {
	pool *pgxpool.Pool // Keep pool for non-transactional operations
}

// NewPostgresAuctionRepository creates a new PostgreSQL auction repository
func NewPostgresAuctionRepository(pool *pgxpool.Pool) *PostgresAuctionRepository {
	return &PostgresAuctionRepository{pool: pool}
}

const auctionColumns = `id, seller_id, name, description, category, start_date, end_date, status, total_lots, created_at, updated_at`

func scanAuction(row pgx.Row) (*auctions.Auction, error) {
	var a auctions.Auction
	err := row.Scan(
		&a.ID,
		&a.SellerID,
		&a.Name,
		&a.Description,
		&a.Category,
		&a.StartDate,
		&a.EndDate,
		&a.Status,
		&a.TotalLots,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAuction persists a new auction
func (r *PostgresAuctionRepository) CreateAuction(ctx context.Context, a *auctions.Auction) error {
	query := `
		INSERT INTO auctions (id, seller_id, name, description, category, start_date, end_date, status, total_lots, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.SellerID,
		a.Name,
		a.Description,
		a.Category,
		a.StartDate,
		a.EndDate,
		a.Status,
		a.TotalLots,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}
	return nil
}

// DeleteAuction removes an auction (compensating action after a quota race)
func (r *PostgresAuctionRepository) DeleteAuction(ctx context.Context, auctionID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, auctionID)
	if err != nil {
		return fmt.Errorf("failed to delete auction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("auction not found")
	}
	return nil
}

// GetAuctionByID retrieves an auction by its ID
func (r *PostgresAuctionRepository) GetAuctionByID(ctx context.Context, auctionID uuid.UUID) (*auctions.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	a, err := scanAuction(r.pool.QueryRow(ctx, query, auctionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, auctions.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return a, nil
}

// MarkLive transitions upcoming -> live, conditioned on the prior status
func (r *PostgresAuctionRepository) MarkLive(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (bool, error) {
	query := `
		UPDATE auctions
		SET status = 'live', updated_at = NOW()
		WHERE id = $1 AND status = 'upcoming'
	`
	result, err := tx.Exec(ctx, query, auctionID)
	if err != nil {
		return false, fmt.Errorf("failed to mark auction live: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkCompleted transitions upcoming|live -> completed, conditioned on the prior status
func (r *PostgresAuctionRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (bool, error) {
	query := `
		UPDATE auctions
		SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status IN ('upcoming', 'live')
	`
	result, err := tx.Exec(ctx, query, auctionID)
	if err != nil {
		return false, fmt.Errorf("failed to mark auction completed: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkCancelled transitions any non-terminal state -> cancelled
func (r *PostgresAuctionRepository) MarkCancelled(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (bool, error) {
	query := `
		UPDATE auctions
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('upcoming', 'live')
	`
	result, err := tx.Exec(ctx, query, auctionID)
	if err != nil {
		return false, fmt.Errorf("failed to mark auction cancelled: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// IncrementLotCount bumps the auction's lot counter within a transaction
func (r *PostgresAuctionRepository) IncrementLotCount(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) error {
	query := `
		UPDATE auctions
		SET total_lots = total_lots + 1, updated_at = NOW()
		WHERE id = $1
	`
	result, err := tx.Exec(ctx, query, auctionID)
	if err != nil {
		return fmt.Errorf("failed to increment lot count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("auction not found")
	}
	return nil
}

// ListDueToStart returns upcoming auctions whose start guard holds at now
func (r *PostgresAuctionRepository) ListDueToStart(ctx context.Context, now time.Time) ([]*auctions.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = 'upcoming' AND start_date <= $1 AND total_lots > 0
		ORDER BY start_date ASC
	`
	return r.listAuctions(ctx, query, now)
}

// ListDueToEnd returns upcoming or live auctions whose end guard holds at now
func (r *PostgresAuctionRepository) ListDueToEnd(ctx context.Context, now time.Time) ([]*auctions.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status IN ('upcoming', 'live') AND end_date < $1
		ORDER BY end_date ASC
	`
	return r.listAuctions(ctx, query, now)
}

func (r *PostgresAuctionRepository) listAuctions(ctx context.Context, query string, args ...any) ([]*auctions.Auction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query auctions: %w", err)
	}
	defer rows.Close()

	var result []*auctions.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}
	return result, nil
}
