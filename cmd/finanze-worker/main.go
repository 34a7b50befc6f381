package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"finanze/internal/amqp"
	"finanze/internal/backup"
	backupgoogle "finanze/internal/backup/google"
	backupmemory "finanze/internal/backup/memory"
	"finanze/internal/cli"
	"finanze/internal/store"
	"finanze/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	cfg := cli.LoadAndValidateConfig(logger)

	kv := cli.OpenKV(logger, cfg)
	defer closeKV(kv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := cli.OpenStore(ctx, logger, cfg, kv)

	var mirror backup.Mirror
	if cfg.GoogleSpreadsheetID != "" {
		sheets, err := backupgoogle.NewFromConfig(ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize Sheets client", "error", err)
			os.Exit(1)
		}
		mirror = sheets
		logger.Info("Mirroring to Google Sheets",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		mirror = backupmemory.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID set, mirroring to process memory only")
	}

	w := worker.NewBackupWorker(st, mirror)

	// One full refresh on startup so the mirror is current before we start
	// waiting on change events.
	if err := w.Refresh(ctx); err != nil {
		logger.Error("Initial backup refresh failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			logger.Info("Consuming transaction change events", "queue", cfg.AMQPQueue)
			return amqpClient.ConsumeTransactionChanges(gctx, w.HandleChange)
		})
	} else {
		logger.Warn("No AMQP_URL set, relying on periodic refresh only")
	}

	g.Go(func() error {
		logger.Info("Starting periodic backup refresh", "interval", cfg.BackupInterval)
		return w.RunPeriodic(gctx, cfg.BackupInterval)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func closeKV(kv store.KV) {
	if closer, ok := kv.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
