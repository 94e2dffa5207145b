// Command inventory-import reconciles the raw pole feed into the
// canonical inventory. The run is idempotent: poles already present by
// external id are skipped, so a failed run can simply be retried.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"ilumina-bknd/internal/config"
	"ilumina-bknd/internal/database"
	"ilumina-bknd/internal/ingest"
	"ilumina-bknd/internal/logger"
)

func main() {
	cfg := config.Load()
	logr := logger.New(cfg)

	feedPath := flag.String("feed", cfg.FeedPath, "path to the pole inventory CSV feed")
	flag.Parse()

	err := run(cfg, logr, *feedPath)
	logr.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run owns the database handle for the whole reconciliation and
// releases it on every path, success or failure.
func run(cfg *config.Config, logr *logger.Logger, feedPath string) error {
	rows, err := ingest.ReadFeed(feedPath)
	if err != nil {
		logr.Error("failed to read feed", zap.Error(err), zap.String("path", feedPath))
		return err
	}
	logr.Info("feed loaded", zap.String("path", feedPath), zap.Int("rows", len(rows)))

	db, err := database.New(cfg.DatabaseURL, cfg)
	if err != nil {
		logr.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer db.Close()

	rec := ingest.NewReconciler(ingest.NewBunPoleStore(db), logr.Logger)
	report, err := rec.Run(context.Background(), rows)

	logr.Info("reconciliation report",
		zap.Int("rows_read", report.RowsRead),
		zap.Int("rows_dropped", report.RowsDropped),
		zap.Int("rows_valid", report.RowsValid),
		zap.Int("poles_grouped", report.PolesGrouped),
		zap.Int("inserted", report.Inserted),
		zap.Int("skipped_existing", report.Skipped))

	if err != nil {
		// Batches already committed stand; the next run skips them.
		logr.Error("reconciliation failed", zap.Error(err))
		return fmt.Errorf("reconcile: %w", err)
	}
	return nil
}
