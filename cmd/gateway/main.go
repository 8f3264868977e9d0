package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/cheapstop/gateway/internal/adapters/http"
	natsadapter "github.com/cheapstop/gateway/internal/adapters/nats"
	"github.com/cheapstop/gateway/internal/adapters/positioning"
	"github.com/cheapstop/gateway/internal/adapters/pricing"
	"github.com/cheapstop/gateway/internal/adapters/valkey"
	"github.com/cheapstop/gateway/internal/core/ports"
	"github.com/cheapstop/gateway/internal/core/usecases"
	"github.com/cheapstop/gateway/internal/pkg/config"
	"github.com/cheapstop/gateway/internal/pkg/logging"
	"github.com/cheapstop/gateway/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("cheapstop-gateway")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					slog.Warn("tracer shutdown failed", "error", err)
				}
			}()
		}
	}

	// Pricing backend
	pricingClient := pricing.NewClient(cfg.Pricing.BaseURL, time.Duration(cfg.Pricing.Timeout)*time.Second)

	// Device positioning. An empty URL means this deployment has no
	// positioning capability; sessions will report unsupported.
	var provider ports.LocationProvider
	if cfg.Positioning.URL != "" {
		provider = positioning.NewProvider(cfg.Positioning.URL)
	} else {
		slog.Warn("positioning disabled, location requests will resolve as unsupported")
	}

	// NATS: the JetStream publisher for search events plus a raw core
	// connection for the WebSocket relay. Both are optional collaborators;
	// the gateway serves HTTP without them.
	var publisher ports.EventPublisher
	var launcher ports.NavigationLauncher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
		launcher = pub
	}

	var natsConn *nats.Conn
	nc, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		natsConn = nc
	}

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// Session registry and idle eviction
	sessions := usecases.NewSessionManager(provider, pricingClient, publisher, cacheSvc, launcher, cfg.Session.TTLDuration())
	go sessions.Run(ctx)

	deps := &http.Dependencies{
		Sessions: sessions,
		Pricing:  pricingClient,
		NATS:     natsConn,
		Cache:    cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "CheapStop Gateway",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("gateway starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
