package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"dromeport/internal/bootstrap"
	"dromeport/internal/config"
	"dromeport/internal/job"
	"dromeport/internal/provider"
	"dromeport/internal/repository"
	"dromeport/internal/router"
	"dromeport/internal/scheduler"
)

func main() {
	// --- Logger ---
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Server.Env == "development" {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		}
	}

	// --- Database ---
	db, err := config.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// --- Jobs ---
	registry := provider.NewRegistry(cfg.Tools)
	jobs, err := job.NewManager(registry, cfg.Jobs.MaxFinished, logger)
	if err != nil {
		logger.Fatal("Failed to create job manager", zap.Error(err))
	}

	// --- Schedule engine ---
	syncRepo := repository.NewSyncPlaylistRepository(db)
	engine := scheduler.NewEngine(syncRepo, jobs, scheduler.ToolPaths{
		SpotiflacPath: cfg.Tools.SpotiflacPath,
	}, logger)
	if err := engine.Start(); err != nil {
		logger.Fatal("Failed to start schedule engine", zap.Error(err))
	}

	// --- Echo ---
	e := echo.New()
	e.HideBanner = true

	// --- Routes ---
	router.Setup(e, cfg, jobs, engine, syncRepo, logger)

	// --- Start Server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		logger.Info("Starting Dromeport server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil {
			logger.Info("Server stopped", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	// Stop the tick first so no new runs start, then end the jobs.
	engine.Stop()
	jobs.CancelAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
