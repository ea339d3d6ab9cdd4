package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"field-data-be/internal/bootstrap"
	"field-data-be/internal/config"
	"field-data-be/internal/server"
	"field-data-be/internal/tracer"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Close()

	shutdownTracer := tracer.InitTracer(cfg.Tracing, container.Logger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Background work
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return container.Watcher.Watch(gctx, container.PositionFeed)
	})
	if container.GPSSource != nil {
		g.Go(func() error {
			if err := container.Watcher.Watch(gctx, container.GPSSource); err != nil && !errors.Is(err, context.Canceled) {
				container.Logger.Warn("Main", "GPS receiver unavailable", map[string]interface{}{"error": err.Error()})
			}
			return nil
		})
	}
	if err := container.ConsumerService.Consume(gctx); err != nil {
		log.Fatalf("failed to start event consumer: %v", err)
	}

	// 4. Server
	srv := server.New(cfg, container)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		container.Logger.Error("Main", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
