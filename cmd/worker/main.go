package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/hammerline/paddle/internal/adapters/database"
	"github.com/hammerline/paddle/internal/domain/auctions"
	"github.com/hammerline/paddle/internal/domain/quota"
	"github.com/hammerline/paddle/internal/scheduler"
	"github.com/hammerline/paddle/pkg/clock"
	"github.com/hammerline/paddle/pkg/config"
	pkgdb "github.com/hammerline/paddle/pkg/database"
	pkgevents "github.com/hammerline/paddle/pkg/events"
)

// The worker runs the two background loops of the marketplace core: the
// lifecycle sweep that advances auction state by wall-clock time, and the
// outbox relay that pushes recorded domain events to the broker.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Unable to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down worker...")
		cancel()
	}()

	// 1. Initialize Postgres Connection Pool
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Unable to parse database config", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		logger.Error("Unable to create connection pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Unable to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("Postgres Connected")

	// 2. Initialize RabbitMQ Publisher
	amqpConn, err := amqp091.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	rabbitPublisher, err := pkgevents.NewRabbitMQPublisher(amqpConn)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher", "error", err)
		os.Exit(1)
	}
	defer rabbitPublisher.Close()
	logger.Info("RabbitMQ Connected")

	// 3. Initialize Repositories and Services
	txManager := pkgdb.NewPostgresTransactionManager(pool, cfg.LockTimeout)
	auctionRepo := database.NewPostgresAuctionRepository(pool)
	lotRepo := database.NewPostgresLotRepository(pool)
	ledgerRepo := database.NewPostgresLedgerRepository(pool)
	outboxRepo := database.NewPostgresOutboxRepository(pool)

	clk := clock.NewRealClock()
	quotaService := quota.NewService(ledgerRepo, clk, logger)
	auctionService := auctions.NewService(auctionRepo, lotRepo, outboxRepo, txManager, quotaService, clk, logger)

	// 4. Background loops
	lifecycle := scheduler.NewLifecycleScheduler(auctionService, cfg.SweepInterval, clk, logger)
	relay := pkgevents.NewOutboxRelay(
		outboxRepo,
		rabbitPublisher,
		txManager,
		cfg.RelayBatch,
		cfg.RelayInterval,
		pkgevents.Exchange,
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting Lifecycle Scheduler...", "interval", cfg.SweepInterval)
		return lifecycle.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Starting Outbox Relay...", "interval", cfg.RelayInterval)
		return relay.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
