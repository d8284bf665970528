package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/nadzzz/lircbridge/docs"
	"github.com/nadzzz/lircbridge/internal/dispatch"
	"github.com/nadzzz/lircbridge/internal/events"
	"github.com/nadzzz/lircbridge/internal/health"
	"github.com/nadzzz/lircbridge/internal/lirc"
	"github.com/nadzzz/lircbridge/internal/transport"
	grpctransport "github.com/nadzzz/lircbridge/internal/transport/grpc"
	httptransport "github.com/nadzzz/lircbridge/internal/transport/http"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, voice webhook and health endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	cfg := a.cfg
	slog.Info("lircbridge starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	profiles, err := a.loadProfile()
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}

	driver := a.newDriver(profiles.Snapshot())
	defer driver.Close()
	if err := driver.Reload(ctx); err != nil {
		// The bridge still serves; /refresh retries discovery.
		slog.Error("initial catalog load failed", "error", err)
	}

	hub := events.NewHub(32)
	dispatcher := dispatch.New(profiles, lirc.Observe(driver, hub.Publish))

	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP, hub))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if len(transports) == 0 {
		return fmt.Errorf("no transports enabled, enable at least one in config")
	}

	healthServer := health.New(cfg.Server.HealthPort, func() int {
		return len(driver.Remotes())
	})
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, dispatcher); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	healthServer.SetReady(true)
	slog.Info("lircbridge ready",
		"transports", len(transports),
		"remotes", len(driver.Remotes()),
		"macros", profiles.Snapshot().Macros.Len(),
		"health_port", cfg.Server.HealthPort)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("lircbridge stopped")
	return nil
}
