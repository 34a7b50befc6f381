// Persistence codec for the transaction collection.
//
// The wire shape is a JSON array of {id, title, category?, amount, date,
// type} objects with amounts as two-decimal numbers and dates as ISO 8601
// text. Decoding is defensive: malformed records are dropped one by one
// instead of poisoning the whole collection.
package store

import (
	"encoding/json"
	"strings"

	"finanze/internal/core"
)

type record struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category,omitempty"`
	Amount   float64   `json:"amount"`
	Date     core.Date `json:"date"`
	Type     core.Type `json:"type"`
}

func toRecord(tx core.Transaction) record {
	return record{
		ID:       tx.ID,
		Title:    tx.Title,
		Category: tx.Category,
		Amount:   tx.Amount.Float64(),
		Date:     tx.Date,
		Type:     tx.Type,
	}
}

func encodeCollection(txs []core.Transaction) (string, error) {
	records := make([]record, len(txs))
	for i, tx := range txs {
		records[i] = toRecord(tx)
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// encodeExport renders the same shape pretty-printed, suitable for external
// backup and diffing.
func encodeExport(txs []core.Transaction) (string, error) {
	records := make([]record, len(txs))
	for i, tx := range txs {
		records[i] = toRecord(tx)
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// rawRecord mirrors record with optional fields so presence can be checked
// before any type coercion. Unknown extra fields are ignored by the
// unmarshaller.
type rawRecord struct {
	ID       *int64   `json:"id"`
	Title    *string  `json:"title"`
	Category string   `json:"category"`
	Amount   *float64 `json:"amount"`
	Date     *string  `json:"date"`
	Type     *string  `json:"type"`
}

// decodeCollection parses a serialized collection. Individually malformed
// records are skipped and counted; the returned error is non-nil only when
// the top-level payload is not a JSON array.
func decodeCollection(data string) (txs []core.Transaction, skipped int, err error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, 0, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(data), &elements); err != nil {
		return nil, 0, ErrImportFormat
	}

	for _, element := range elements {
		tx, ok := decodeRecord(element)
		if !ok {
			skipped++
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped, nil
}

// decodeRecord converts one raw element, rejecting it when any required
// field is missing or of the wrong type.
func decodeRecord(element json.RawMessage) (core.Transaction, bool) {
	var raw rawRecord
	if err := json.Unmarshal(element, &raw); err != nil {
		return core.Transaction{}, false
	}
	if raw.ID == nil || raw.Title == nil || raw.Amount == nil || raw.Date == nil || raw.Type == nil {
		return core.Transaction{}, false
	}
	if strings.TrimSpace(*raw.Title) == "" {
		return core.Transaction{}, false
	}
	cents, err := core.CentsFromFloat(*raw.Amount)
	if err != nil {
		return core.Transaction{}, false
	}
	date, err := core.ParseDate(*raw.Date)
	if err != nil {
		return core.Transaction{}, false
	}
	txType := core.Type(*raw.Type)
	if err := txType.Validate(); err != nil {
		return core.Transaction{}, false
	}
	return core.Transaction{
		ID:       *raw.ID,
		Title:    *raw.Title,
		Category: raw.Category,
		Amount:   core.Money{Cents: cents},
		Type:     txType,
		Date:     date,
	}, true
}
