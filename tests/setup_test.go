package tests

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	infradb "github.com/hammerline/paddle/internal/adapters/database"
	"github.com/hammerline/paddle/internal/domain/auctions"
	"github.com/hammerline/paddle/internal/domain/bidding"
	"github.com/hammerline/paddle/internal/domain/lots"
	"github.com/hammerline/paddle/internal/domain/quota"
	"github.com/hammerline/paddle/pkg/clock"
	"github.com/hammerline/paddle/pkg/database"
)

// recordingBroadcaster captures live bid updates in memory so tests can assert
// on them without a running Redis.
type recordingBroadcaster struct {
	mu      sync.Mutex
	updates []bidding.LiveBidUpdate
}

func (b *recordingBroadcaster) BroadcastBid(ctx context.Context, update bidding.LiveBidUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, update)
	return nil
}

func (b *recordingBroadcaster) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.updates)
}

// app wires the domain services against a real database, the way the worker
// and API entrypoints do, with an adjustable clock.
type app struct {
	pool        *pgxpool.Pool
	clk         *clock.MockClock
	quota       *quota.Service
	auctions    *auctions.Service
	lots        *lots.Service
	bidding     *bidding.Service
	broadcaster *recordingBroadcaster
}

func setupApp(t *testing.T, pool *pgxpool.Pool, now time.Time) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	clk := clock.NewMockClock(now)

	txManager := database.NewPostgresTransactionManager(pool, 5*time.Second)
	auctionRepo := infradb.NewPostgresAuctionRepository(pool)
	lotRepo := infradb.NewPostgresLotRepository(pool)
	bidRepo := infradb.NewPostgresBidRepository(pool)
	ledgerRepo := infradb.NewPostgresLedgerRepository(pool)
	outboxRepo := infradb.NewPostgresOutboxRepository(pool)
	directory := infradb.NewPostgresUserDirectory(pool)

	broadcaster := &recordingBroadcaster{}
	quotaService := quota.NewService(ledgerRepo, clk, logger)
	auctionService := auctions.NewService(auctionRepo, lotRepo, outboxRepo, txManager, quotaService, clk, logger)
	lotService := lots.NewService(lotRepo)
	biddingService := bidding.NewService(
		lotRepo, bidRepo, auctionRepo, outboxRepo, txManager,
		quotaService, directory, broadcaster, clk, logger,
	)

	return &app{
		pool:        pool,
		clk:         clk,
		quota:       quotaService,
		auctions:    auctionService,
		lots:        lotService,
		bidding:     biddingService,
		broadcaster: broadcaster,
	}
}

// seedUser inserts a user and returns its ID.
func seedUser(t *testing.T, pool *pgxpool.Pool, accountType, registrationStatus string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, name, email, account_type, registration_status)
		VALUES ($1, $2, $3, $4, $5)
	`, id, "Test User", id.String()+"@example.com", accountType, registrationStatus)
	require.NoError(t, err, "Failed to seed user")
	return id
}

func seedBuyer(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	return seedUser(t, pool, "buyer", "approved")
}

func seedSeller(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	return seedUser(t, pool, "seller_buyer", "approved")
}

// seedSubscription inserts an active ledger entry. Nil counters mean unlimited.
func seedSubscription(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, remainingAuctions, remainingBids *int64, start, end time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO subscriptions (id, user_id, start_date, end_date, remaining_auctions, remaining_bids, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'active')
	`, id, userID, start, end, remainingAuctions, remainingBids)
	require.NoError(t, err, "Failed to seed subscription")
	return id
}

func seedAuction(t *testing.T, pool *pgxpool.Pool, a *auctions.Auction) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO auctions (id, seller_id, name, description, category, start_date, end_date, status, total_lots)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.SellerID, a.Name, a.Description, a.Category, a.StartDate, a.EndDate, a.Status, a.TotalLots)
	require.NoError(t, err, "Failed to seed auction")
}

func seedLot(t *testing.T, pool *pgxpool.Pool, l *lots.Lot) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO lots (id, auction_id, seller_id, name, description, category,
			start_price, reserve_price, min_increment, current_bid, current_bidder, bid_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, l.ID, l.AuctionID, l.SellerID, l.Name, l.Description, l.Category,
		l.StartPrice, l.ReservePrice, l.MinIncrement, l.CurrentBid, l.CurrentBidder, l.BidCount, l.Status)
	require.NoError(t, err, "Failed to seed lot")
}

// liveAuctionWithLot seeds a live auction holding one active lot and returns both.
func liveAuctionWithLot(t *testing.T, pool *pgxpool.Pool, sellerID uuid.UUID, now time.Time) (*auctions.Auction, *lots.Lot) {
	t.Helper()
	auction := &auctions.Auction{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Name:      "Live Auction",
		StartDate: now.Add(-1 * time.Hour),
		EndDate:   now.Add(1 * time.Hour),
		Status:    auctions.StatusLive,
		TotalLots: 1,
	}
	seedAuction(t, pool, auction)

	lot := &lots.Lot{
		ID:           uuid.New(),
		AuctionID:    auction.ID,
		SellerID:     sellerID,
		Name:         "Lot 1",
		StartPrice:   100,
		ReservePrice: 150,
		MinIncrement: 10,
		Status:       lots.StatusActive,
	}
	seedLot(t, pool, lot)
	return auction, lot
}

// getLotRow reads the lot's materialized price fields for verification.
func getLotRow(t *testing.T, pool *pgxpool.Pool, lotID uuid.UUID) *lots.Lot {
	t.Helper()
	var l lots.Lot
	row := pool.QueryRow(context.Background(), `
		SELECT id, current_bid, current_bidder, bid_count, status FROM lots WHERE id = $1
	`, lotID)
	err := row.Scan(&l.ID, &l.CurrentBid, &l.CurrentBidder, &l.BidCount, &l.Status)
	require.NoError(t, err)
	return &l
}

func getAuctionStatus(t *testing.T, pool *pgxpool.Pool, auctionID uuid.UUID) auctions.Status {
	t.Helper()
	var status auctions.Status
	err := pool.QueryRow(context.Background(),
		"SELECT status FROM auctions WHERE id = $1", auctionID).Scan(&status)
	require.NoError(t, err)
	return status
}

func countBidsForLot(t *testing.T, pool *pgxpool.Pool, lotID uuid.UUID) int {
	t.Helper()
	var count int
	err := pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM bids WHERE lot_id = $1", lotID).Scan(&count)
	require.NoError(t, err)
	return count
}

func countOutboxEvents(t *testing.T, pool *pgxpool.Pool, eventType string) int {
	t.Helper()
	var count int
	err := pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM outbox_events WHERE event_type = $1", eventType).Scan(&count)
	require.NoError(t, err)
	return count
}

// remainingBids reads the ledger counter, nil meaning unlimited.
func remainingBids(t *testing.T, pool *pgxpool.Pool, subscriptionID uuid.UUID) *int64 {
	t.Helper()
	var remaining *int64
	err := pool.QueryRow(context.Background(),
		"SELECT remaining_bids FROM subscriptions WHERE id = $1", subscriptionID).Scan(&remaining)
	require.NoError(t, err)
	return remaining
}

func remainingAuctions(t *testing.T, pool *pgxpool.Pool, subscriptionID uuid.UUID) *int64 {
	t.Helper()
	var remaining *int64
	err := pool.QueryRow(context.Background(),
		"SELECT remaining_auctions FROM subscriptions WHERE id = $1", subscriptionID).Scan(&remaining)
	require.NoError(t, err)
	return remaining
}

func int64Ptr(v int64) *int64 { return &v }
