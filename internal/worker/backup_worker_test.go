package worker

import (
	"context"
	"testing"

	"finanze/internal/amqp"
	"finanze/internal/backup/memory"
	"finanze/internal/core"
	"finanze/internal/kvstore"
	"finanze/internal/store"
)

func TestRefreshMirrorsPersistedState(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()

	// Writer side: the store another process mutates.
	writer, err := store.Open(ctx, kv, store.Options{})
	if err != nil {
		t.Fatalf("open writer store: %v", err)
	}

	// Worker side: opened before the writer adds anything.
	reader, err := store.Open(ctx, kv, store.Options{})
	if err != nil {
		t.Fatalf("open reader store: %v", err)
	}
	mirror := memory.New()
	w := NewBackupWorker(reader, mirror)

	added, err := writer.Add(ctx, store.Draft{
		Title:  "Rent",
		Amount: core.Money{Cents: 50000},
		Type:   core.Expense,
		Date:   core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := w.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	last := mirror.Last()
	if len(last) != 1 || last[0].ID != added.ID || last[0].Title != "Rent" {
		t.Fatalf("mirror did not pick up the write: %+v", last)
	}
}

func TestHandleChangeRefreshes(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	st, err := store.Open(ctx, kv, store.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	mirror := memory.New()
	w := NewBackupWorker(st, mirror)

	if _, err := st.Add(ctx, store.Draft{
		Title:  "Salary",
		Amount: core.Money{Cents: 250000},
		Type:   core.Income,
		Date:   core.NewDate(2024, 1, 5),
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	msg := amqp.NewTransactionChangeMessage("add", 1)
	if err := w.HandleChange(msg); err != nil {
		t.Fatalf("handle change: %v", err)
	}
	if mirror.Replaces() != 1 {
		t.Fatalf("expected one mirror refresh, got %d", mirror.Replaces())
	}
	if last := mirror.Last(); len(last) != 1 || last[0].Title != "Salary" {
		t.Fatalf("unexpected mirror contents: %+v", last)
	}
}
