package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"cleaning-reservation-be/internal/bootstrap"
	"cleaning-reservation-be/internal/config"
	"cleaning-reservation-be/internal/server"
	"cleaning-reservation-be/internal/tracer"
	"cleaning-reservation-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.App.JwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Tracing is a noop unless OTEL_ENABLED=true
	shutdownTracer, err := tracer.Init(context.Background(), cfg.Tracing, "cleaning-reservation-backend", cfg.App.Environment)
	if err != nil {
		log.Fatalf("Tracer init failed: %v", err)
	}
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	go container.WebSocketHub.Run(ctx)
	if err := container.OutboxDispatcher.Consume(ctx); err != nil {
		log.Fatalf("Outbox dispatcher failed to start: %v", err)
	}
	if n, err := container.OutboxDispatcher.RelayPending(ctx); err != nil {
		log.Printf("[WARN] Outbox relay failed: %v", err)
	} else if n > 0 {
		log.Printf("Relayed %d pending notifications", n)
	}
	container.OutboxDispatcher.RelayEvery(ctx, cfg.Reservation.OutboxRelayInterval)

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
