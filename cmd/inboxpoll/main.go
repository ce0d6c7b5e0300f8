package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/staylink/rentops/internal/avito"
	"github.com/staylink/rentops/internal/inbox"
	"github.com/staylink/rentops/internal/repo/redisrepo"
	"github.com/staylink/rentops/pkg/config"
	"github.com/staylink/rentops/pkg/events"
	"github.com/staylink/rentops/pkg/logger"
)

// inboxpoll watches the account's unread chats and publishes fresh inbound
// messages on the event bus for the guest-facing process to answer. The
// seen store in Redis keeps restarts from redelivering old messages.
func main() {
	cfg := config.Load()

	seen, err := redisrepo.NewSeenRepository(cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer seen.Close()

	bus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to event bus", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	auth := avito.NewTokenSource(cfg.Platform)
	client := avito.NewClient(cfg.Platform, auth)

	poller := inbox.NewPoller(client, seen, inbox.NewBusHandler(bus), cfg.Inbox.ItemIDs)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down inbox poller...")
		cancel()
	}()

	logger.Info("Starting inbox poller",
		"interval", cfg.Inbox.PollInterval.String(), "item_ids", cfg.Inbox.ItemIDs,
	)
	poller.Run(ctx, cfg.Inbox.PollInterval)
}
