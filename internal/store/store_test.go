package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finanze/internal/core"
	"finanze/internal/kvstore"
)

func openTestStore(t *testing.T) (*Store, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	s, err := Open(context.Background(), kv, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, kv
}

func draft(title string, cents int64, txType core.Type) Draft {
	return Draft{
		Title:  title,
		Amount: core.Money{Cents: cents},
		Type:   txType,
		Date:   core.NewDate(2024, 1, 1),
	}
}

func TestAddAssignsIDAndPersists(t *testing.T) {
	s, kv := openTestStore(t)
	ctx := context.Background()

	before := len(s.List(ctx))
	tx, err := s.Add(ctx, Draft{
		Title:    "Rent",
		Category: "Other",
		Amount:   core.Money{Cents: 50000},
		Type:     core.Expense,
		Date:     core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	txs := s.List(ctx)
	if len(txs) != before+1 {
		t.Fatalf("expected %d transactions, got %d", before+1, len(txs))
	}
	got := txs[len(txs)-1]
	if got.Title != "Rent" || got.Category != "Other" || got.Amount.Cents != 50000 ||
		got.Type != core.Expense || !got.Date.Equal(core.NewDate(2024, 1, 1)) {
		t.Fatalf("submitted fields not preserved: %+v", got)
	}

	// The full collection must be persisted under the single key.
	payload, ok, _ := kv.Get(ctx, CollectionKey)
	if !ok || !strings.Contains(payload, `"Rent"`) {
		t.Fatalf("expected persisted payload with the new record, got ok=%v %q", ok, payload)
	}
	if !strings.Contains(payload, `"2024-01-01"`) {
		t.Fatalf("expected ISO date in payload, got %q", payload)
	}
}

func TestRapidAddsGetDistinctIDs(t *testing.T) {
	kv := kvstore.NewMemory()
	// Frozen clock: every timestamp collides, forcing the monotonic bump.
	frozen := time.UnixMilli(1700000000000)
	s, err := Open(context.Background(), kv, Options{Now: func() time.Time { return frozen }})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ctx := context.Background()
	seen := make(map[int64]struct{})
	for i := 0; i < 50; i++ {
		tx, err := s.Add(ctx, draft("t", 100, core.Income))
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if _, dup := seen[tx.ID]; dup {
			t.Fatalf("duplicate id %d at add %d", tx.ID, i)
		}
		seen[tx.ID] = struct{}{}
	}
}

func TestAddValidation(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	cases := []Draft{
		{Title: "", Amount: core.Money{Cents: 1}, Type: core.Income, Date: core.NewDate(2024, 1, 1)},
		{Title: "a", Amount: core.Money{Cents: -1}, Type: core.Income, Date: core.NewDate(2024, 1, 1)},
		{Title: "a", Amount: core.Money{Cents: 1}, Type: "transfer", Date: core.NewDate(2024, 1, 1)},
		{Title: "a", Amount: core.Money{Cents: 1}, Type: core.Income},
	}
	for i, d := range cases {
		_, err := s.Add(ctx, d)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
	if got := len(s.List(ctx)); got != 0 {
		t.Fatalf("failed adds must not change the list, got %d entries", got)
	}
}

func TestUpdateMergesPartial(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Add(ctx, Draft{
		Title:    "Groceries",
		Category: "Groceries",
		Amount:   core.Money{Cents: 4200},
		Type:     core.Expense,
		Date:     core.NewDate(2024, 2, 2),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	title := "Weekly groceries"
	amount := core.Money{Cents: 4650}
	updated, err := s.Update(ctx, tx.ID, Patch{Title: &title, Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || updated.Amount != amount {
		t.Fatalf("patched fields not applied: %+v", updated)
	}
	if updated.Category != "Groceries" || updated.Type != core.Expense || !updated.Date.Equal(tx.Date) {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if updated.ID != tx.ID {
		t.Fatalf("id must be immutable")
	}
}

func TestUpdateNotFound(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if _, err := s.Add(ctx, draft("keep", 100, core.Income)); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := s.List(ctx)

	title := "x"
	_, err := s.Update(ctx, 999, Patch{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	after := s.List(ctx)
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("not-found update must not alter the list")
	}
}

func TestRemove(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	tx, _ := s.Add(ctx, draft("gone", 100, core.Expense))
	keep, _ := s.Add(ctx, draft("stays", 200, core.Income))

	ok, err := s.Remove(ctx, tx.ID)
	if err != nil || !ok {
		t.Fatalf("remove: ok=%v err=%v", ok, err)
	}
	for _, got := range s.List(ctx) {
		if got.ID == tx.ID {
			t.Fatalf("removed id still listed")
		}
	}

	ok, err = s.Remove(ctx, tx.ID)
	if err != nil || ok {
		t.Fatalf("removing a missing id: ok=%v err=%v", ok, err)
	}
	if got := s.List(ctx); len(got) != 1 || got[0].ID != keep.ID {
		t.Fatalf("list changed after removing a missing id: %+v", got)
	}
}

func TestClear(t *testing.T) {
	s, kv := openTestStore(t)
	ctx := context.Background()
	s.Add(ctx, draft("a", 1, core.Income))
	s.Add(ctx, draft("b", 2, core.Expense))

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := s.List(ctx); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
	if _, ok, _ := kv.Get(ctx, CollectionKey); ok {
		t.Fatalf("expected persisted key removed")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	s.Add(ctx, Draft{Title: "Salary", Amount: core.Money{Cents: 250000}, Type: core.Income, Date: core.NewDate(2024, 1, 5)})
	s.Add(ctx, Draft{Title: "Rent", Category: "Other", Amount: core.Money{Cents: 50000}, Type: core.Expense, Date: core.NewDate(2024, 1, 6)})

	exported, err := s.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	before := s.List(ctx)

	// Ids persist across export, so re-import must not duplicate anything.
	count, err := s.ImportAll(ctx, exported)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if count != 0 {
		t.Fatalf("re-import of an export must merge 0 records, merged %d", count)
	}
	after := s.List(ctx)
	if len(after) != len(before) {
		t.Fatalf("visible set changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("record %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestImportIntoFreshStore(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	s.Add(ctx, Draft{Title: "Salary", Amount: core.Money{Cents: 250000}, Type: core.Income, Date: core.NewDate(2024, 1, 5)})
	exported, _ := s.ExportAll(ctx)
	original := s.List(ctx)

	fresh, _ := openTestStore(t)
	count, err := fresh.ImportAll(ctx, exported)
	if err != nil || count != 1 {
		t.Fatalf("import: count=%d err=%v", count, err)
	}
	got := fresh.List(ctx)
	if len(got) != 1 || got[0] != original[0] {
		t.Fatalf("import must reproduce records by value, ids included: %+v vs %+v", got, original)
	}
}

func TestImportSkipsInvalidRecords(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	payload := `[
		{"id": 1, "title": "good", "amount": 10.5, "date": "2024-01-01", "type": "expense"},
		{"id": 2, "amount": 3, "date": "2024-01-01", "type": "income"},
		{"id": 3, "title": "bad date", "amount": 3, "date": "yesterday", "type": "income"},
		{"id": 4, "title": "bad type", "amount": 3, "date": "2024-01-01", "type": "loan"},
		{"id": 5, "title": "negative", "amount": -3, "date": "2024-01-01", "type": "income"},
		{"id": 6, "title": "extra fields ok", "amount": 1, "date": "2024-01-02", "type": "income", "note": "ignored"}
	]`
	count, err := s.ImportAll(ctx, payload)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 accepted records, got %d", count)
	}
	txs := s.List(ctx)
	if len(txs) != 2 || txs[0].ID != 1 || txs[1].ID != 6 {
		t.Fatalf("unexpected surviving records: %+v", txs)
	}
	if txs[0].Amount.Cents != 1050 {
		t.Fatalf("expected 10.50 as 1050 cents, got %d", txs[0].Amount.Cents)
	}
}

func TestImportRejectsNonArray(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	for _, payload := range []string{`{"id": 1}`, `42`, `"text"`, `not json`} {
		if _, err := s.ImportAll(ctx, payload); !errors.Is(err, ErrImportFormat) {
			t.Fatalf("%q: expected ErrImportFormat, got %v", payload, err)
		}
	}
}

func TestAddAfterImportAvoidsIDCollision(t *testing.T) {
	kv := kvstore.NewMemory()
	frozen := time.UnixMilli(1000)
	s, err := Open(context.Background(), kv, Options{Now: func() time.Time { return frozen }})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	// Imported ids far ahead of the clock must push the id floor forward.
	payload := `[{"id": 5000, "title": "imported", "amount": 1, "date": "2024-01-01", "type": "income"}]`
	if _, err := s.ImportAll(ctx, payload); err != nil {
		t.Fatalf("import: %v", err)
	}
	tx, err := s.Add(ctx, draft("new", 1, core.Income))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.ID <= 5000 {
		t.Fatalf("expected id beyond imported ids, got %d", tx.ID)
	}
}

// failKV fails every write while still serving reads, to exercise rollback.
type failKV struct {
	*kvstore.Memory
	failPut bool
}

var errDiskFull = errors.New("quota exceeded")

func (f *failKV) Put(ctx context.Context, key, value string) error {
	if f.failPut {
		return errDiskFull
	}
	return f.Memory.Put(ctx, key, value)
}

func TestPersistFailureRollsBackMemory(t *testing.T) {
	kv := &failKV{Memory: kvstore.NewMemory()}
	s, err := Open(context.Background(), kv, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	base, _ := s.Add(ctx, draft("persisted", 100, core.Income))

	kv.failPut = true

	_, err = s.Add(ctx, draft("doomed", 200, core.Expense))
	var perr *PersistenceError
	if !errors.As(err, &perr) || !errors.Is(err, errDiskFull) {
		t.Fatalf("expected PersistenceError wrapping the cause, got %v", err)
	}
	if got := s.List(ctx); len(got) != 1 || got[0].ID != base.ID {
		t.Fatalf("memory must roll back to last persisted state, got %+v", got)
	}

	title := "renamed"
	if _, err := s.Update(ctx, base.ID, Patch{Title: &title}); err == nil {
		t.Fatalf("expected update to fail")
	}
	if got := s.List(ctx); got[0].Title != "persisted" {
		t.Fatalf("update rollback failed: %+v", got[0])
	}

	if _, err := s.Remove(ctx, base.ID); err == nil {
		t.Fatalf("expected remove to fail")
	}
	if got := s.List(ctx); len(got) != 1 || got[0].ID != base.ID {
		t.Fatalf("remove rollback failed: %+v", got)
	}
}

func TestOpenWithCorruptPayloadStartsEmpty(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	kv.Put(ctx, CollectionKey, `{"this": "is not an array"`)

	s, err := Open(ctx, kv, Options{})
	if err != nil {
		t.Fatalf("open must tolerate corrupt payloads: %v", err)
	}
	if got := s.List(ctx); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}

func TestOpenRehydrates(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()

	s, _ := Open(ctx, kv, Options{})
	added, _ := s.Add(ctx, Draft{Title: "Rent", Amount: core.Money{Cents: 50000}, Type: core.Expense, Date: core.NewDate(2024, 1, 1)})

	reopened, err := Open(ctx, kv, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.List(ctx)
	if len(got) != 1 || got[0] != added {
		t.Fatalf("rehydrated state differs: %+v vs %+v", got, added)
	}
}

func TestChangeNotifications(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	tx, _ := s.Add(ctx, draft("a", 1, core.Income))
	title := "b"
	s.Update(ctx, tx.ID, Patch{Title: &title})
	s.Remove(ctx, tx.ID)
	s.Clear(ctx)

	want := []Op{OpAdd, OpUpdate, OpRemove, OpClear}
	if len(changes) != len(want) {
		t.Fatalf("expected %d notifications, got %d", len(want), len(changes))
	}
	for i, op := range want {
		if changes[i].Op != op {
			t.Fatalf("notification %d: expected %s, got %s", i, op, changes[i].Op)
		}
	}
	if changes[0].ID != tx.ID {
		t.Fatalf("add notification must carry the new id")
	}
}
