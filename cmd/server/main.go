package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koios/zigstar-flasher/internal/config"
	"github.com/koios/zigstar-flasher/internal/controller"
	"github.com/koios/zigstar-flasher/internal/flasher"
	"github.com/koios/zigstar-flasher/internal/handlers"
	"github.com/koios/zigstar-flasher/internal/redis"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Bound the number of concurrent flashing processes
	executor := flasher.NewCommandExecutor(cfg.Flasher.Executable, logger)
	pool := flasher.NewPool(cfg.Flasher.Workers, executor, logger)
	pool.Start()

	opts := []controller.Option{
		controller.WithCompanionTimeout(time.Duration(cfg.Companion.Timeout) * time.Second),
	}

	// Outcome notifications are optional
	var publisher *redis.Publisher
	if cfg.Redis.Addr != "" {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		publisher, err = redis.NewPublisher(pingCtx, cfg.Redis, logger)
		pingCancel()
		if err != nil {
			logger.Warn("Redis unavailable, operation events disabled", zap.Error(err))
		} else {
			opts = append(opts, controller.WithPublisher(publisher))
		}
	}

	ctrl := controller.New(pool, cfg.Flasher.FirmwareDir, logger, opts...)

	mux := http.NewServeMux()
	handlers.NewFlashHandler(ctrl, logger).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)

	// Start HTTP server
	go func() {
		logger.Info("Starting ZigStar flasher web interface",
			zap.Int("port", cfg.Server.Port),
			zap.String("firmware_dir", cfg.Flasher.FirmwareDir),
			zap.String("flasher", cfg.Flasher.Executable),
			zap.Int("flash_workers", cfg.Flasher.Workers))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	// Give outstanding requests a deadline for completion
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Running flashes are left to finish; queued ones are dropped
	pool.Stop()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close Redis connection", zap.Error(err))
		}
	}

	logger.Info("Server shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
