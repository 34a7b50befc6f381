package query

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"finanze/internal/core"
)

// Field selects the transaction attribute a sort orders by.
type Field string

const (
	ByDate     Field = "date"
	ByTitle    Field = "title"
	ByCategory Field = "category"
	ByAmount   Field = "amount"
)

// Direction is the sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Sort pairs a field with a direction.
type Sort struct {
	Field     Field
	Direction Direction
}

// DefaultSort is newest first.
func DefaultSort() Sort {
	return Sort{Field: ByDate, Direction: Descending}
}

// Toggle returns the sort that results from selecting a field: picking the
// current field flips direction, picking a new field starts ascending.
func (s Sort) Toggle(field Field) Sort {
	if s.Field == field {
		if s.Direction == Ascending {
			return Sort{Field: field, Direction: Descending}
		}
		return Sort{Field: field, Direction: Ascending}
	}
	return Sort{Field: field, Direction: Ascending}
}

// collator gives a deterministic ordering for text fields independent of the
// host locale. Collators are not safe for concurrent use, so each Apply
// builds its own.
func newCollator() *collate.Collator {
	return collate.New(language.Und)
}

// Apply returns a sorted copy. The sort is stable: equal keys keep their
// relative input order.
func (s Sort) Apply(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)

	if s.Field == "" {
		s = DefaultSort()
	}
	var c *collate.Collator
	if s.Field == ByTitle || s.Field == ByCategory {
		c = newCollator()
	}

	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch s.Field {
		case ByTitle:
			less = c.CompareString(out[i].Title, out[j].Title) < 0
		case ByCategory:
			less = c.CompareString(out[i].Category, out[j].Category) < 0
		case ByAmount:
			less = out[i].Amount.Cents < out[j].Amount.Cents
		default:
			less = out[i].Date.Before(out[j].Date)
		}
		if s.Direction == Descending {
			return !less && !equalKey(s, c, out[i], out[j])
		}
		return less
	})
	return out
}

func equalKey(s Sort, c *collate.Collator, a, b core.Transaction) bool {
	switch s.Field {
	case ByTitle:
		return c.CompareString(a.Title, b.Title) == 0
	case ByCategory:
		return c.CompareString(a.Category, b.Category) == 0
	case ByAmount:
		return a.Amount.Cents == b.Amount.Cents
	default:
		return a.Date.Equal(b.Date)
	}
}
