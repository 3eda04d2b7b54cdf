package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"paytrack/internal/amqp"
	"paytrack/internal/cli"
	"paytrack/internal/config"
	applog "paytrack/internal/log"
	"paytrack/internal/sheets"
	gsheet "paytrack/internal/sheets/google"
	memsheet "paytrack/internal/sheets/memory"
	"paytrack/internal/storage"
	"paytrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, os.Stdout).WithComponent(applog.ComponentWorker)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	logger.Info("Starting paytrack-worker")

	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize exporter", "error", err)
		os.Exit(1)
	}
	w := worker.NewExportWorker(exporter)

	var repo *storage.SQLiteRepository
	if cfg.DataBackend == config.BackendSQLite {
		repo, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.MissingPolicy())
		if err != nil {
			logger.Error("Failed to open SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()

		if _, err := w.Resync(ctx, repo); err != nil {
			logger.Error("Startup resync failed", "error", err)
		}
	} else {
		logger.Info("Memory backend configured, skipping resync")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.Consume(gctx, w.HandleEvent)
	})
	if repo != nil {
		g.Go(func() error {
			return periodicResync(gctx, w, repo, cfg.SyncInterval, logger)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// newExporter targets Google Sheets when a spreadsheet is configured and an
// in-memory sink otherwise.
func newExporter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.PaymentExporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("GOOGLE_SPREADSHEET_ID not set, exporting to memory")
		return memsheet.New(), nil
	}
	return gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
}

// periodicResync re-exports the whole database every interval.
func periodicResync(ctx context.Context, w *worker.ExportWorker, repo *storage.SQLiteRepository, interval time.Duration, logger *applog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Resync(ctx, repo); err != nil && ctx.Err() == nil {
				logger.Error("Periodic resync failed", "error", err)
			}
		}
	}
}
