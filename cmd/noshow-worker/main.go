package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/bootstrap"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("noshow-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Duration("grace", cfg.NoShowGrace),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Build(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("dependency setup failed", zap.Error(err))
	}
	defer deps.Close()

	// Run once at startup
	runOnce(rootCtx, deps.Service, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping noshow worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, deps.Service, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.MarkStaleNoShows(runCtx)
	if err != nil {
		logger.Error("noshow run error", zap.Error(err), zap.Int("marked", n))
		return
	}
	logger.Info("noshow run complete", zap.Int("marked", n), zap.Duration("took", time.Since(start)))
}
