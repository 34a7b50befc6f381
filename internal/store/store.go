// Package store owns the canonical transaction list. All mutation goes
// through it: it validates input, assigns ids, persists the full collection
// to a local key-value store, and notifies subscribers after every
// successful write.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"finanze/internal/core"
)

// CollectionKey is the single key holding the serialized collection.
const CollectionKey = "finance_transactions"

// KV is the persistence port. Implementations live in internal/kvstore.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Op identifies the mutation carried by a change notification.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
	OpImport Op = "import"
)

// Change describes a committed mutation. ID is zero for clear and import.
type Change struct {
	Op Op
	ID int64
}

// Listener receives change notifications synchronously after the mutation
// has been persisted. Listeners must not block.
type Listener func(Change)

// Draft holds the caller-supplied fields of a new transaction. The id is
// never part of it; the store assigns one.
type Draft struct {
	Title    string
	Category string
	Amount   core.Money
	Type     core.Type
	Date     core.Date
}

// Patch carries a partial update. Nil fields keep their current value.
type Patch struct {
	Title    *string
	Category *string
	Amount   *core.Money
	Type     *core.Type
	Date     *core.Date
}

// Options configures a Store. The zero value gives an open category set and
// the wall clock.
type Options struct {
	Categories core.CategorySet
	Now        func() time.Time
}

// Store mediates all access to the persisted transaction collection. A
// single mutex serializes mutations so every read-modify-persist cycle runs
// against the latest snapshot, never a stale one.
type Store struct {
	mu         sync.Mutex
	kv         KV
	categories core.CategorySet
	now        func() time.Time

	txs       []core.Transaction
	lastID    int64
	listeners []Listener
}

// Open constructs a Store and rehydrates it from the key-value store. A
// corrupt persisted payload is logged and treated as an empty collection;
// Open fails only when the backing store itself cannot be read.
func Open(ctx context.Context, kv KV, opts Options) (*Store, error) {
	s := &Store{
		kv:         kv,
		categories: opts.Categories,
		now:        opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	payload, ok, err := kv.Get(ctx, CollectionKey)
	if err != nil {
		return nil, newPersistenceError("load", err)
	}
	if ok {
		txs, skipped, err := decodeCollection(payload)
		if err != nil {
			slog.ErrorContext(ctx, "Persisted collection is corrupt, starting empty",
				"key", CollectionKey, "error", err)
		} else {
			if skipped > 0 {
				slog.WarnContext(ctx, "Dropped malformed persisted records",
					"key", CollectionKey, "skipped", skipped, "kept", len(txs))
			}
			s.txs = txs
		}
	}

	for _, tx := range s.txs {
		if tx.ID > s.lastID {
			s.lastID = tx.ID
		}
	}

	slog.InfoContext(ctx, "Transaction store ready", "transactions", len(s.txs))
	return s, nil
}

// Reload re-reads the persisted collection, replacing the in-memory list.
// Used by processes that share the backing store with a writer and need a
// fresh snapshot on demand.
func (s *Store) Reload(ctx context.Context) error {
	payload, ok, err := s.kv.Get(ctx, CollectionKey)
	if err != nil {
		return newPersistenceError("reload", err)
	}

	var txs []core.Transaction
	if ok {
		loaded, skipped, err := decodeCollection(payload)
		if err != nil {
			return newPersistenceError("reload", err)
		}
		if skipped > 0 {
			slog.WarnContext(ctx, "Dropped malformed persisted records on reload",
				"key", CollectionKey, "skipped", skipped, "kept", len(loaded))
		}
		txs = loaded
	}

	s.mu.Lock()
	s.txs = txs
	for _, tx := range s.txs {
		if tx.ID > s.lastID {
			s.lastID = tx.ID
		}
	}
	s.mu.Unlock()
	return nil
}

// Subscribe registers a listener for committed mutations.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Categories returns the configured category set.
func (s *Store) Categories() core.CategorySet {
	return s.categories
}

// List returns a snapshot of all transactions. It never fails.
func (s *Store) List(_ context.Context) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Summary aggregates the current collection.
func (s *Store) Summary(_ context.Context) core.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(s.txs)
}

// Add validates the draft, assigns a fresh id, appends and persists. On a
// persistence failure the append is rolled back so memory keeps matching
// the last persisted state.
func (s *Store) Add(ctx context.Context, draft Draft) (core.Transaction, error) {
	s.mu.Lock()
	tx := core.Transaction{
		Title:    draft.Title,
		Category: draft.Category,
		Amount:   draft.Amount,
		Type:     draft.Type,
		Date:     draft.Date,
	}
	if err := tx.Validate(s.categories); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, newValidationError(err)
	}

	tx.ID = s.nextID()
	s.txs = append(s.txs, tx)
	if err := s.persist(ctx); err != nil {
		s.txs = s.txs[:len(s.txs)-1]
		s.mu.Unlock()
		return core.Transaction{}, newPersistenceError("add", err)
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction added",
		"id", tx.ID, "title", tx.Title, "type", string(tx.Type), "amount_cents", tx.Amount.Cents)
	s.notify(Change{Op: OpAdd, ID: tx.ID})
	return tx, nil
}

// Update merges the patch into the transaction with the given id and
// re-persists. Returns ErrNotFound when no such transaction exists.
func (s *Store) Update(ctx context.Context, id int64, patch Patch) (core.Transaction, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Transaction{}, ErrNotFound
	}

	updated := s.txs[idx]
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Category != nil {
		updated.Category = *patch.Category
	}
	if patch.Amount != nil {
		updated.Amount = *patch.Amount
	}
	if patch.Type != nil {
		updated.Type = *patch.Type
	}
	if patch.Date != nil {
		updated.Date = *patch.Date
	}
	if err := updated.Validate(s.categories); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, newValidationError(err)
	}

	previous := s.txs[idx]
	s.txs[idx] = updated
	if err := s.persist(ctx); err != nil {
		s.txs[idx] = previous
		s.mu.Unlock()
		return core.Transaction{}, newPersistenceError("update", err)
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction updated", "id", id)
	s.notify(Change{Op: OpUpdate, ID: id})
	return updated, nil
}

// Remove deletes the transaction with the given id, reporting whether a
// removal occurred.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	removed := s.txs[idx]
	s.txs = append(s.txs[:idx], s.txs[idx+1:]...)
	if err := s.persist(ctx); err != nil {
		s.txs = append(s.txs[:idx], append([]core.Transaction{removed}, s.txs[idx:]...)...)
		s.mu.Unlock()
		return false, newPersistenceError("remove", err)
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction removed", "id", id)
	s.notify(Change{Op: OpRemove, ID: id})
	return true, nil
}

// Clear empties the collection and deletes the persisted key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	previous := s.txs
	s.txs = nil
	if err := s.kv.Delete(ctx, CollectionKey); err != nil {
		s.txs = previous
		s.mu.Unlock()
		return newPersistenceError("clear", err)
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Transaction store cleared", "removed", len(previous))
	s.notify(Change{Op: OpClear})
	return nil
}

// ExportAll serializes the whole collection as pretty-printed JSON.
func (s *Store) ExportAll(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeExport(s.txs)
}

// ImportAll merges records from a serialized payload into the collection.
// Each record is validated independently; invalid ones are discarded without
// aborting the import. Records whose id is already present are skipped, so
// re-importing an export is a no-op on the visible set. Returns the number
// of records actually merged.
func (s *Store) ImportAll(ctx context.Context, payload string) (int, error) {
	candidates, invalid, err := decodeCollection(payload)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	present := make(map[int64]struct{}, len(s.txs))
	for _, tx := range s.txs {
		present[tx.ID] = struct{}{}
	}

	var accepted []core.Transaction
	for _, tx := range candidates {
		if _, dup := present[tx.ID]; dup {
			continue
		}
		present[tx.ID] = struct{}{}
		accepted = append(accepted, tx)
	}

	if len(accepted) == 0 {
		s.mu.Unlock()
		slog.InfoContext(ctx, "Import merged no new records",
			"candidates", len(candidates), "invalid", invalid)
		return 0, nil
	}

	previousLen := len(s.txs)
	s.txs = append(s.txs, accepted...)
	if err := s.persist(ctx); err != nil {
		s.txs = s.txs[:previousLen]
		s.mu.Unlock()
		return 0, newPersistenceError("import", err)
	}
	for _, tx := range accepted {
		if tx.ID > s.lastID {
			s.lastID = tx.ID
		}
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Import completed",
		"merged", len(accepted), "skipped_existing", len(candidates)-len(accepted), "invalid", invalid)
	s.notify(Change{Op: OpImport})
	return len(accepted), nil
}

// nextID derives an id from the millisecond clock, bumped past the highest
// id ever seen so rapid successive adds stay unique.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) indexOf(id int64) int {
	for i, tx := range s.txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []core.Transaction {
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

func (s *Store) persist(ctx context.Context) error {
	payload, err := encodeCollection(s.txs)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, CollectionKey, payload)
}

// notify runs outside the store lock so listeners may call back in.
func (s *Store) notify(change Change) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(change)
	}
}
