// Command reconcile recomputes every item's total quantity from its assignment
// history and prints how many items were corrected.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stockdesk/internal/config"
	"stockdesk/internal/database"
	"stockdesk/internal/logger"
	"stockdesk/internal/repository"
	"stockdesk/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, !cfg.IsRelease())
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.NewConnection(cfg.DSN(), zlog, cfg.SlowQueryTime)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	maintenance := service.NewMaintenanceService(
		repository.NewItemRepository(db),
		repository.NewHistoryRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db, cfg.TxTimeout),
		zlog,
	)

	res, err := maintenance.ReconcileTotals(ctx, nil)
	if err != nil {
		zlog.Fatal("reconcile failed", zap.Error(err))
	}
	fmt.Printf("checked=%d corrected=%d failed=%d\n", res.Checked, res.Corrected, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}
