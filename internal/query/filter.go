// Package query derives display views from a transaction snapshot. All
// functions are pure: they read the input slice and never mutate the
// canonical list they were computed from.
package query

import (
	"strings"

	"finanze/internal/core"
)

// Filter selects transactions by title substring, category substring and an
// inclusive amount range. Zero-value fields impose no constraint. Amount
// bounds compare against the unsigned magnitude, regardless of type.
type Filter struct {
	Title    string
	Category string
	MinCents *int64
	MaxCents *int64
}

// Empty reports whether the filter keeps everything.
func (f Filter) Empty() bool {
	return f.Title == "" && f.Category == "" && f.MinCents == nil && f.MaxCents == nil
}

// Matches reports whether a single transaction passes the filter.
func (f Filter) Matches(tx core.Transaction) bool {
	if f.Title != "" && !containsFold(tx.Title, f.Title) {
		return false
	}
	if f.Category != "" && !containsFold(tx.Category, f.Category) {
		return false
	}
	if f.MinCents != nil && tx.Amount.Cents < *f.MinCents {
		return false
	}
	if f.MaxCents != nil && tx.Amount.Cents > *f.MaxCents {
		return false
	}
	return true
}

// Apply returns the matching subsequence in input order.
func (f Filter) Apply(txs []core.Transaction) []core.Transaction {
	if f.Empty() {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
