// Request parsing for the JSON API: list query parameters and transaction
// payloads. Field values that fail to parse are reported per field so the
// client sees what to fix.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finanze/internal/core"
	"finanze/internal/query"
	"finanze/internal/store"
)

// maxBodySize caps request bodies; an import of a personal ledger fits well
// below this.
const maxBodySize = 4 << 20

// listParams carries the parsed filter/sort/page selection of a list request.
type listParams struct {
	Filter query.Filter
	Search string
	Sort   query.Sort
	Page   int
}

// parseListParams reads filter, sort and pagination from the query string.
// Unknown sort fields and directions fall back to the defaults.
func parseListParams(values url.Values) (listParams, error) {
	p := listParams{Sort: query.DefaultSort(), Page: 1}

	p.Search = strings.TrimSpace(values.Get("title"))
	p.Filter.Category = strings.TrimSpace(values.Get("category"))

	if v := strings.TrimSpace(values.Get("min")); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return p, fmt.Errorf("invalid min amount %q", v)
		}
		p.Filter.MinCents = &cents
	}
	if v := strings.TrimSpace(values.Get("max")); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return p, fmt.Errorf("invalid max amount %q", v)
		}
		p.Filter.MaxCents = &cents
	}

	switch field := query.Field(strings.TrimSpace(values.Get("sort"))); field {
	case query.ByDate, query.ByTitle, query.ByCategory, query.ByAmount:
		p.Sort.Field = field
		p.Sort.Direction = query.Ascending
	}
	switch dir := query.Direction(strings.TrimSpace(values.Get("dir"))); dir {
	case query.Ascending, query.Descending:
		p.Sort.Direction = dir
	}

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid page %q", v)
		}
		p.Page = page
	}

	return p, nil
}

// transactionPayload is the request body for add and update. Pointer fields
// distinguish absent from zero; amount accepts a JSON number or a decimal
// string with comma or dot.
type transactionPayload struct {
	Title    *string         `json:"title"`
	Category *string         `json:"category"`
	Amount   json.RawMessage `json:"amount"`
	Type     *string         `json:"type"`
	Date     *string         `json:"date"`
}

func decodePayload(r *http.Request) (transactionPayload, error) {
	var p transactionPayload
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return p, fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("malformed JSON body")
	}
	return p, nil
}

func parseAmount(raw json.RawMessage) (core.Money, error) {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		cents, err := core.CentsFromFloat(number)
		if err != nil {
			return core.Money{}, err
		}
		return core.Money{Cents: cents}, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return core.Money{}, fmt.Errorf("amount must be a number or decimal string")
	}
	cents, err := core.ParseDecimalToCents(text)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// toDraft builds a store draft, requiring all mandatory fields.
func (p transactionPayload) toDraft() (store.Draft, error) {
	var d store.Draft

	if p.Title == nil {
		return d, fmt.Errorf("missing title")
	}
	d.Title = sanitizeInput(*p.Title)
	if p.Category != nil {
		d.Category = sanitizeInput(*p.Category)
	}

	if p.Amount == nil {
		return d, fmt.Errorf("missing amount")
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return d, fmt.Errorf("invalid amount: %w", err)
	}
	d.Amount = amount

	if p.Type == nil {
		return d, fmt.Errorf("missing type")
	}
	d.Type = core.Type(*p.Type)

	if p.Date == nil {
		return d, fmt.Errorf("missing date")
	}
	date, err := core.ParseDate(*p.Date)
	if err != nil {
		return d, fmt.Errorf("invalid date: %w", err)
	}
	d.Date = date

	return d, nil
}

// toPatch builds a partial update from the fields present in the payload.
func (p transactionPayload) toPatch() (store.Patch, error) {
	var patch store.Patch

	if p.Title != nil {
		title := sanitizeInput(*p.Title)
		patch.Title = &title
	}
	if p.Category != nil {
		category := sanitizeInput(*p.Category)
		patch.Category = &category
	}
	if p.Amount != nil {
		amount, err := parseAmount(p.Amount)
		if err != nil {
			return patch, fmt.Errorf("invalid amount: %w", err)
		}
		patch.Amount = &amount
	}
	if p.Type != nil {
		txType := core.Type(*p.Type)
		patch.Type = &txType
	}
	if p.Date != nil {
		date, err := core.ParseDate(*p.Date)
		if err != nil {
			return patch, fmt.Errorf("invalid date: %w", err)
		}
		patch.Date = &date
	}

	return patch, nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
