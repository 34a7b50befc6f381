package services

import (
	"context"
	"testing"

	"finanze/internal/core"
	"finanze/internal/kvstore"
	"finanze/internal/store"
)

func TestNewTransactionService(t *testing.T) {
	service := NewTransactionService(nil, nil)

	if service == nil {
		t.Error("NewTransactionService should return a non-nil service")
	}
	if service.Store() != nil {
		t.Error("NewTransactionService should keep a nil store nil")
	}
}

func TestTransactionService_WithoutBroker(t *testing.T) {
	st, err := store.Open(context.Background(), kvstore.NewMemory(), store.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	service := NewTransactionService(st, nil)

	// Mutations must succeed even when no broker is attached.
	tx, err := service.Store().Add(context.Background(), store.Draft{
		Title:  "Coffee",
		Amount: core.Money{Cents: 350},
		Type:   core.Expense,
		Date:   core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.ID == 0 {
		t.Error("expected an assigned id")
	}
}

func TestTransactionService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		service := &TransactionService{}

		if err := service.Close(); err != nil {
			t.Fatalf("Close should not return error with nil components: %v", err)
		}
	})
}
