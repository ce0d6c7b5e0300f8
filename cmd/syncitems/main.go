package main

import (
	"context"
	"os"
	"time"

	"github.com/staylink/rentops/internal/avito"
	"github.com/staylink/rentops/internal/listings"
	"github.com/staylink/rentops/internal/repo/postgres"
	"github.com/staylink/rentops/pkg/config"
	"github.com/staylink/rentops/pkg/database"
	"github.com/staylink/rentops/pkg/events"
	"github.com/staylink/rentops/pkg/logger"
)

// syncitems refreshes the local listing cache from the platform. Intended
// to run from cron or by hand after editing listings on the platform side.
func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var bus events.Publisher
	if natsBus, err := events.NewNATSEventBus(cfg.NATS.URL); err != nil {
		logger.Warn("Event bus unavailable, sync announcements disabled", "error", err)
	} else {
		bus = natsBus
		defer natsBus.Close()
	}

	auth := avito.NewTokenSource(cfg.Platform)
	client := avito.NewClient(cfg.Platform, auth)
	repo := postgres.NewListingRepository(pool)

	syncer := listings.NewSyncer(client, repo, bus)

	synced, err := syncer.Sync(ctx)
	if err != nil {
		logger.Error("Listing sync failed", "synced", synced, "error", err)
		os.Exit(1)
	}
	logger.Info("Listing sync complete", "synced", synced)
}
