package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/flexprice/billsync/internal/config"
	"github.com/flexprice/billsync/internal/dynamodb"
	"github.com/flexprice/billsync/internal/logger"
	"github.com/flexprice/billsync/internal/sentry"
)

func main() {
	// Parse command line flags
	dryRun := flag.Bool("dry-run", false, "List the tables that would be created without creating them")
	flag.Parse()

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	if !cfg.DynamoDB.InUse {
		logger.Fatal("dynamodb.in_use is false, nothing to migrate")
	}

	logger.Infow("Connecting to DynamoDB",
		"region", cfg.DynamoDB.Region,
		"endpoint", cfg.DynamoDB.Endpoint)

	client, err := dynamodb.NewClient(cfg, sentry.NewSentryService(cfg, logger))
	if err != nil {
		logger.Fatalw("Failed to create DynamoDB client", "error", err)
	}
	tables, ok := client.Tables()
	if !ok {
		logger.Fatal("DynamoDB client cannot manage tables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *dryRun {
		logger.Info("Dry run mode - listing missing tables without creating them")
	}

	missing, err := dynamodb.EnsureTables(ctx, tables, cfg.DynamoDB, logger, *dryRun)
	if err != nil {
		logger.Fatalw("Failed to create tables", "error", err, "missing", missing)
	}

	logger.Infow("Migration completed successfully", "missing", missing, "dry_run", *dryRun)
	fmt.Println("Migration process completed")
}
