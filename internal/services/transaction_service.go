package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanze/internal/amqp"
	"finanze/internal/store"
)

const publishWindow = 10 * time.Second

// TransactionService ties the transaction store to the message broker: every
// committed mutation is relayed as a change event so external mirrors can
// refresh. The broker is optional; without one the service is a plain
// pass-through around the store.
type TransactionService struct {
	store      *store.Store
	amqpClient *amqp.Client
}

func NewTransactionService(st *store.Store, amqpClient *amqp.Client) *TransactionService {
	s := &TransactionService{
		store:      st,
		amqpClient: amqpClient,
	}
	if st != nil {
		// Listeners must not block, so the publish runs on its own goroutine
		// with its own deadline.
		st.Subscribe(func(change store.Change) {
			go s.publishChange(change)
		})
	}
	return s
}

// Store exposes the underlying transaction store.
func (s *TransactionService) Store() *store.Store {
	return s.store
}

func (s *TransactionService) publishChange(change store.Change) {
	ctx, cancel := context.WithTimeout(context.Background(), publishWindow)
	defer cancel()

	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping change event",
			"op", string(change.Op), "id", change.ID)
		return
	}

	if err := s.amqpClient.PublishTransactionChange(ctx, string(change.Op), change.ID); err != nil {
		// The mutation is already persisted locally; a lost event only
		// delays downstream mirrors.
		slog.ErrorContext(ctx, "Failed to publish change event",
			"op", string(change.Op), "id", change.ID, "error", err)
	}
}

// Close closes the AMQP connection if one is attached.
func (s *TransactionService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close transaction service: %w", err)
		}
	}
	return nil
}
