package kvstore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	kv, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()

	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := kv.Put(ctx, "k", `[{"id":1}]`); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || got != `[{"id":1}]` {
		t.Fatalf("get after put: got=%q ok=%v err=%v", got, ok, err)
	}

	// Overwrite replaces the previous value.
	if err := kv.Put(ctx, "k", "[]"); err != nil {
		t.Fatalf("put overwrite: %v", err)
	}
	got, _, _ = kv.Get(ctx, "k")
	if got != "[]" {
		t.Fatalf("expected overwrite, got %q", got)
	}

	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatalf("expected key gone after delete")
	}

	// Deleting a missing key is a no-op.
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	kv, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kv.Put(ctx, "collection", "persisted"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	kv, err = OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()
	got, ok, err := kv.Get(ctx, "collection")
	if err != nil || !ok || got != "persisted" {
		t.Fatalf("expected value to survive reopen: got=%q ok=%v err=%v", got, ok, err)
	}
}

func TestOpenSQLiteCreatesParentDirectories(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "nested", "ledger.db")
	kv, err := OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open with missing parent directories: %v", err)
	}
	defer kv.Close()

	ctx := context.Background()
	if err := kv.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("put after fresh open: %v", err)
	}
	got, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || got != "v" {
		t.Fatalf("get: got=%q ok=%v err=%v", got, ok, err)
	}
}

func TestMemory(t *testing.T) {
	kv := NewMemory()
	ctx := context.Background()

	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatalf("expected miss on empty store")
	}
	if err := kv.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, _ := kv.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("get: got=%q ok=%v", got, ok)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatalf("expected key gone")
	}
}
