// Package main is the entry point of the kanboard Task API server.
// It serves the paginated /tasks resource consumed by board clients.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kandev/kanboard/internal/common/config"
	"github.com/kandev/kanboard/internal/common/logger"
	"github.com/kandev/kanboard/internal/events"
	taskservice "github.com/kandev/kanboard/internal/task/service"
	"github.com/kandev/kanboard/internal/tracing"
)

const serviceName = "kanboard"

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	tracing.SetServiceName(serviceName)
	log.Info("Starting kanboard Task API...")

	// 3. Event bus (in-memory, or NATS if configured)
	provided, closeBus, err := events.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize event bus", zap.Error(err))
	}
	defer func() { _ = closeBus() }()

	// 4. Task store
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	taskRepo, closeStore, err := provideStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize task store", zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error("task store close error", zap.Error(err))
		}
	}()

	taskSvc := taskservice.NewService(taskRepo, provided.Bus, log)

	// 5. HTTP server
	router := newRouter(taskSvc, log)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	go func() {
		log.Info("Task API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down kanboard...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", zap.Error(err))
	}

	log.Info("kanboard stopped")
}
