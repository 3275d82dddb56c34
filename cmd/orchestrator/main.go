package main

import (
	"context"
	"os/signal"
	"syscall"

	"app/internal/config"
	"app/internal/logger"
	"app/internal/orchestrator/costretry"
	"app/internal/pgmq"
	"app/internal/pubsub"
	"app/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize DB connection pool
	pool, err := pgxpool.New(ctx, cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to create DB pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	// Initialize PGMQ client and cost repository
	pgmqClient := pgmq.New(pool)
	costRepo := repository.NewCostRepo(pool)

	// Alert publisher is optional; without a GCP project dead-lettered
	// entries are only logged.
	var alerts pubsub.Publisher
	if cfg.GetGCPProjectID() != "" {
		publisher, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create alert publisher: %v", err)
		}
		alerts = publisher
	} else {
		logger.Warn().Msg("GCP project ID not set; dead-letter alerts disabled")
	}

	if err := costretry.Run(ctx, logger, cfg, pgmqClient, costRepo, alerts); err != nil {
		logger.Fatal().Msgf("Cost-retry orchestrator failed: %v", err)
	}

	logger.Info().Msg("Cost-retry orchestrator stopped gracefully")
}
