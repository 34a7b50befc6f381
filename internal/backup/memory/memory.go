// Package memory is an in-process Mirror used by tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"sync"

	"finanze/internal/core"
)

type Store struct {
	mu       sync.Mutex
	last     []core.Transaction
	replaces int
}

func New() *Store {
	return &Store{}
}

// Replace keeps a copy of the snapshot as the current backup.
func (s *Store) Replace(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append([]core.Transaction(nil), txs...)
	s.replaces++
	return nil
}

// Last returns the most recent snapshot.
func (s *Store) Last() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.last...)
}

// Replaces returns how many snapshots were taken.
func (s *Store) Replaces() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaces
}
