package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/staylink/rentops/internal/relay"
	"github.com/staylink/rentops/internal/relay/forward"
	"github.com/staylink/rentops/pkg/config"
	"github.com/staylink/rentops/pkg/events"
	"github.com/staylink/rentops/pkg/logger"
	mw "github.com/staylink/rentops/pkg/middleware"
)

func main() {
	cfg := config.Load()

	// The relay is a channel between two co-located processes and must
	// never be reachable from outside the host.
	if !isLoopback(cfg.Relay.BindAddr) {
		logger.Error("Relay bind address must be on loopback", "addr", cfg.Relay.BindAddr)
		os.Exit(1)
	}

	forwarder, cleanup, err := buildForwarder(cfg)
	if err != nil {
		logger.Error("Failed to initialize forwarder", "via", cfg.Relay.ForwardVia, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	h := relay.New(forwarder)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("relay"))
	r.Use(mw.Logging)
	r.Use(mw.Health)

	r.Post("/notify", h.Notify)

	srv := &http.Server{
		Addr:         cfg.Relay.BindAddr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down relay...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Relay shutdown error", "error", err)
		}
	}()

	logger.Info("Starting notification relay",
		"addr", cfg.Relay.BindAddr, "forward_via", cfg.Relay.ForwardVia,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Relay server error", "error", err)
		os.Exit(1)
	}
}

func buildForwarder(cfg *config.Config) (forward.Forwarder, func(), error) {
	switch cfg.Relay.ForwardVia {
	case "nats":
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			return nil, nil, err
		}
		return forward.NewNATSForwarder(bus), func() { bus.Close() }, nil
	case "mail":
		return forward.NewMailForwarder(cfg.Email), func() {}, nil
	default:
		return forward.NewHTTPForwarder(cfg.Relay.LandlordURL), func() {}, nil
	}
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
