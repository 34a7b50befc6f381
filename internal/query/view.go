package query

import (
	"unicode/utf8"

	"finanze/internal/core"
)

// View tracks the filter, sort and pagination state of one displayed table
// and recomputes the derived page from a fresh snapshot on demand. It holds
// no transactions of its own, so it can never serve a page computed from a
// list that has since changed.
type View struct {
	pageSize   int
	searchMin  int
	filter     Filter
	sort       Sort
	page       int
	pendingTxt string
}

// NewView builds a view with the default newest-first ordering. searchMin is
// the minimum search length before a title search takes effect; zero
// disables the threshold.
func NewView(pageSize, searchMin int) *View {
	if pageSize < 1 {
		pageSize = 1
	}
	return &View{
		pageSize:  pageSize,
		searchMin: searchMin,
		sort:      DefaultSort(),
		page:      1,
	}
}

// Compute derives the current page from a snapshot of the canonical list.
func (v *View) Compute(txs []core.Transaction) Page {
	return Paginate(v.sort.Apply(v.filter.Apply(txs)), v.page, v.pageSize)
}

// SetFilter replaces the filter criteria and resets to the first page.
func (v *View) SetFilter(f Filter) {
	v.filter = f
	v.page = 1
}

// Search updates the live title search. Queries shorter than the configured
// minimum are remembered but not applied; an empty query always clears the
// search immediately. Reports whether the effective filter changed.
func (v *View) Search(text string) bool {
	v.pendingTxt = text
	if text != "" && utf8.RuneCountInString(text) < v.searchMin {
		return false
	}
	if v.filter.Title == text {
		return false
	}
	v.filter.Title = text
	v.page = 1
	return true
}

// SortBy selects a sort field, toggling direction when the field is already
// active, and resets to the first page.
func (v *View) SortBy(field Field) {
	v.sort = v.sort.Toggle(field)
	v.page = 1
}

// SetSort replaces the sort outright and resets to the first page.
func (v *View) SetSort(s Sort) {
	v.sort = s
	v.page = 1
}

// SetPage moves to a page; out-of-range values are clamped at compute time.
func (v *View) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	v.page = page
}

// Filter returns the effective filter criteria.
func (v *View) Filter() Filter { return v.filter }

// Sort returns the current ordering.
func (v *View) Sort() Sort { return v.sort }
