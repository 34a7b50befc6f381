// Package worker mirrors the transaction ledger to an external backup in
// response to change events, with a periodic refresh as a safety net for
// missed messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanze/internal/amqp"
	"finanze/internal/backup"
	"finanze/internal/store"
)

const refreshTimeout = 30 * time.Second

type BackupWorker struct {
	store  *store.Store
	mirror backup.Mirror
}

func NewBackupWorker(st *store.Store, mirror backup.Mirror) *BackupWorker {
	return &BackupWorker{
		store:  st,
		mirror: mirror,
	}
}

// Refresh reloads the persisted collection and replaces the mirror copy.
func (w *BackupWorker) Refresh(ctx context.Context) error {
	if err := w.store.Reload(ctx); err != nil {
		return fmt.Errorf("reload collection: %w", err)
	}

	txs := w.store.List(ctx)
	if err := w.mirror.Replace(ctx, txs); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}

	slog.InfoContext(ctx, "Backup refreshed", "transactions", len(txs))
	return nil
}

// HandleChange processes one change event. Any event triggers a full
// refresh; the event payload only tells us the ledger moved.
func (w *BackupWorker) HandleChange(msg *amqp.TransactionChangeMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	slog.InfoContext(ctx, "Change event received", "op", msg.Op, "id", msg.ID)
	return w.Refresh(ctx)
}

// RunPeriodic refreshes the mirror at the given interval until the context
// ends, catching anything a lost change event missed.
func (w *BackupWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic backup refresh failed", "error", err)
			}
		}
	}
}
