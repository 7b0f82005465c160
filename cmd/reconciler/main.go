// cmd/reconciler/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/bootstrap"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/worker"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/shared/config"
	"github.com/Alexandr1st/libratio-abfcdf53-sub000/shared/logging"
)

func main() {
	cfg := config.LoadCommonConfig()
	logging.Setup(cfg.LOG_FORMAT, cfg.LOG_LEVEL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.FromConfig(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	reconciler := worker.NewReconciler(
		app.Stores.Persons,
		app.RepairPointer,
		cfg.RECONCILE_INTERVAL,
		cfg.RECONCILE_BATCH,
		cfg.RECONCILE_WORKERS,
	)

	// Start returns once the signal context is cancelled and the current
	// page has drained.
	reconciler.Start(ctx)
	slog.Info("reconciler shutdown complete")
}
