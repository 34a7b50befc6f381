package query

import "finanze/internal/core"

// Page is one window of a filtered, sorted result set. StartIndex and
// EndIndex are 1-based inclusive positions in the full result set, both zero
// when the set is empty. TotalPages is zero for an empty set.
type Page struct {
	Items      []core.Transaction
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
	StartIndex int
	EndIndex   int
}

// Paginate slices the given sequence into the requested page. Page numbers
// outside [1, TotalPages] clamp to the nearest valid page instead of showing
// an empty window while data exists.
func Paginate(txs []core.Transaction, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = 1
	}
	total := len(txs)
	totalPages := (total + pageSize - 1) / pageSize

	if total == 0 {
		return Page{Page: 1, PageSize: pageSize}
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]core.Transaction, end-start)
	copy(items, txs[start:end])

	return Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
		StartIndex: start + 1,
		EndIndex:   end,
	}
}
