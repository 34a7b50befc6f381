package query

import (
	"testing"

	"finanze/internal/core"
)

func tx(id int64, title, category string, cents int64, txType core.Type, date core.Date) core.Transaction {
	return core.Transaction{
		ID:       id,
		Title:    title,
		Category: category,
		Amount:   core.Money{Cents: cents},
		Type:     txType,
		Date:     date,
	}
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx(1, "Rent January", "Other", 50000, core.Expense, core.NewDate(2024, 1, 1)),
		tx(2, "Groceries", "Groceries", 4250, core.Expense, core.NewDate(2024, 1, 3)),
		tx(3, "Salary", "", 250000, core.Income, core.NewDate(2024, 1, 5)),
		tx(4, "Dinner out", "Dining", 6800, core.Expense, core.NewDate(2024, 1, 3)),
		tx(5, "rent deposit", "Other", 50000, core.Expense, core.NewDate(2024, 1, 2)),
	}
}

func ids(txs []core.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func i64(v int64) *int64 { return &v }

func TestFilter(t *testing.T) {
	txs := sample()

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"empty keeps all", Filter{}, []int64{1, 2, 3, 4, 5}},
		{"title is case insensitive", Filter{Title: "RENT"}, []int64{1, 5}},
		{"title substring", Filter{Title: "oce"}, []int64{2}},
		{"category substring", Filter{Category: "other"}, []int64{1, 5}},
		{"min bound inclusive", Filter{MinCents: i64(50000)}, []int64{1, 3, 5}},
		{"max bound inclusive", Filter{MaxCents: i64(6800)}, []int64{2, 4}},
		{"range", Filter{MinCents: i64(5000), MaxCents: i64(60000)}, []int64{1, 4, 5}},
		{"combined", Filter{Title: "rent", MaxCents: i64(50000)}, []int64{1, 5}},
		{"no match", Filter{Title: "yacht"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.filter.Apply(txs))
			if !equalIDs(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	f := Filter{Title: "rent", MinCents: i64(1)}
	once := f.Apply(sample())
	twice := f.Apply(once)
	if !equalIDs(ids(once), ids(twice)) {
		t.Fatalf("second application changed the set: %v vs %v", ids(once), ids(twice))
	}
}

func TestSortByDate(t *testing.T) {
	txs := sample()

	desc := DefaultSort().Apply(txs)
	if got := ids(desc); !equalIDs(got, []int64{3, 2, 4, 5, 1}) {
		t.Fatalf("date desc: got %v", got)
	}

	asc := Sort{Field: ByDate, Direction: Ascending}.Apply(txs)
	if got := ids(asc); !equalIDs(got, []int64{1, 5, 2, 4, 3}) {
		t.Fatalf("date asc: got %v", got)
	}

	// Input order must survive the sort untouched.
	if got := ids(txs); !equalIDs(got, []int64{1, 2, 3, 4, 5}) {
		t.Fatalf("sort mutated its input: %v", got)
	}
}

func TestSortIsStable(t *testing.T) {
	// Ids 2 and 4 share a date, 1 and 5 share an amount.
	byDate := Sort{Field: ByDate, Direction: Ascending}.Apply(sample())
	if got := ids(byDate); got[2] != 2 || got[3] != 4 {
		t.Fatalf("equal dates must keep input order, got %v", got)
	}

	byAmount := Sort{Field: ByAmount, Direction: Ascending}.Apply(sample())
	if got := ids(byAmount); got[2] != 1 || got[3] != 5 {
		t.Fatalf("equal amounts must keep input order, got %v", got)
	}

	byAmountDesc := Sort{Field: ByAmount, Direction: Descending}.Apply(sample())
	if got := ids(byAmountDesc); got[1] != 1 || got[2] != 5 {
		t.Fatalf("equal amounts must keep input order descending, got %v", got)
	}
}

func TestSortByTitle(t *testing.T) {
	got := ids(Sort{Field: ByTitle, Direction: Ascending}.Apply(sample()))
	// Collation folds case, so "rent deposit" sorts with the other r titles.
	want := []int64{4, 2, 5, 1, 3}
	if !equalIDs(got, want) {
		t.Fatalf("title asc: got %v, want %v", got, want)
	}
}

func TestSortToggle(t *testing.T) {
	s := DefaultSort()

	s = s.Toggle(ByDate)
	if s.Direction != Ascending {
		t.Fatalf("toggling the active field must flip direction, got %+v", s)
	}
	s = s.Toggle(ByDate)
	if s.Direction != Descending {
		t.Fatalf("second toggle must flip back, got %+v", s)
	}

	s = s.Toggle(ByAmount)
	if s.Field != ByAmount || s.Direction != Ascending {
		t.Fatalf("a new field must start ascending, got %+v", s)
	}
}

func TestPaginate(t *testing.T) {
	txs := make([]core.Transaction, 23)
	for i := range txs {
		txs[i] = tx(int64(i+1), "t", "", 100, core.Income, core.NewDate(2024, 1, 1))
	}

	tests := []struct {
		name       string
		page       int
		wantPage   int
		wantFirst  int64
		wantLast   int64
		wantLen    int
		wantStart  int
		wantEnd    int
		wantPages  int
	}{
		{"first page", 1, 1, 1, 10, 10, 1, 10, 3},
		{"middle page", 2, 2, 11, 20, 10, 11, 20, 3},
		{"last partial page", 3, 3, 21, 23, 3, 21, 23, 3},
		{"beyond the end clamps", 5, 3, 21, 23, 3, 21, 23, 3},
		{"below one clamps", 0, 1, 1, 10, 10, 1, 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(txs, tt.page, 10)
			if p.Page != tt.wantPage || p.TotalPages != tt.wantPages || p.TotalItems != 23 {
				t.Fatalf("page=%d totalPages=%d totalItems=%d", p.Page, p.TotalPages, p.TotalItems)
			}
			if len(p.Items) != tt.wantLen || p.Items[0].ID != tt.wantFirst || p.Items[len(p.Items)-1].ID != tt.wantLast {
				t.Fatalf("items %v", ids(p.Items))
			}
			if p.StartIndex != tt.wantStart || p.EndIndex != tt.wantEnd {
				t.Fatalf("start=%d end=%d", p.StartIndex, p.EndIndex)
			}
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate(nil, 3, 10)
	if p.TotalPages != 0 || p.TotalItems != 0 || len(p.Items) != 0 {
		t.Fatalf("empty set: %+v", p)
	}
	if p.Page != 1 || p.StartIndex != 0 || p.EndIndex != 0 {
		t.Fatalf("empty set positions: %+v", p)
	}
}

func TestViewSearchThreshold(t *testing.T) {
	v := NewView(10, 3)

	if v.Search("r") || v.Search("re") {
		t.Fatalf("queries below the minimum must not apply")
	}
	if got := v.Filter().Title; got != "" {
		t.Fatalf("short query leaked into the filter: %q", got)
	}

	if !v.Search("rent") {
		t.Fatalf("expected the search to apply")
	}
	if got := v.Filter().Title; got != "rent" {
		t.Fatalf("filter title %q", got)
	}

	// Empty clears immediately, below any threshold.
	if !v.Search("") {
		t.Fatalf("empty query must clear the search")
	}
	if got := v.Filter().Title; got != "" {
		t.Fatalf("filter title after clear: %q", got)
	}
}

func TestViewResetsPageOnCriteriaChange(t *testing.T) {
	txs := make([]core.Transaction, 23)
	for i := range txs {
		txs[i] = tx(int64(i+1), "entry", "", 100, core.Income, core.NewDate(2024, 1, 1))
	}

	v := NewView(10, 3)
	v.SetPage(3)
	if p := v.Compute(txs); p.Page != 3 {
		t.Fatalf("expected page 3, got %d", p.Page)
	}

	v.Search("entry")
	if p := v.Compute(txs); p.Page != 1 {
		t.Fatalf("search must reset to page 1, got %d", p.Page)
	}

	v.SetPage(2)
	v.SortBy(ByAmount)
	if p := v.Compute(txs); p.Page != 1 {
		t.Fatalf("sort change must reset to page 1, got %d", p.Page)
	}

	v.SetPage(2)
	v.SetFilter(Filter{Title: "entry"})
	if p := v.Compute(txs); p.Page != 1 {
		t.Fatalf("filter change must reset to page 1, got %d", p.Page)
	}
}

func TestViewCompose(t *testing.T) {
	v := NewView(2, 3)
	v.SetFilter(Filter{Title: "rent"})
	v.SetSort(Sort{Field: ByDate, Direction: Ascending})

	p := v.Compute(sample())
	if got := ids(p.Items); !equalIDs(got, []int64{1, 5}) {
		t.Fatalf("composed view: got %v", got)
	}
	if p.TotalItems != 2 || p.TotalPages != 1 {
		t.Fatalf("metadata: %+v", p)
	}
}
