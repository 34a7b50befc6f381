package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

type (
	// Type carries the direction of a transaction. Amounts are stored as
	// unsigned magnitudes; the sign lives here and only here.
	Type string

	// Date is a calendar date. The time-of-day component is always UTC
	// midnight so persisted values round-trip to the same calendar day.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is the canonical ledger entity. ID is assigned by the
	// store at creation time, never by callers.
	Transaction struct {
		ID       int64
		Title    string
		Category string // optional
		Amount   Money
		Type     Type
		Date     Date
	}
)

var (
	ErrEmptyTitle      = errors.New("empty title")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrUnknownCategory = errors.New("unknown category")
)

const dateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO 8601 calendar date. Full RFC 3339 timestamps are
// accepted too (older exports serialized dates with a time component); the
// time-of-day is discarded.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as ISO 8601 text, the persisted representation.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// Equal compares by calendar day.
func (d Date) Equal(other Date) bool {
	return d.Year() == other.Year() && d.YearDay() == other.YearDay()
}

func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return nil, ErrInvalidDate
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t Type) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
	}
}

func (m Money) Validate() error {
	// Magnitude only; direction is carried by Type.
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks all required fields. The category set comes from
// configuration; an open set accepts any category text.
func (tx Transaction) Validate(categories CategorySet) error {
	if len(strings.TrimSpace(tx.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(tx.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if !categories.Allows(tx.Category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, tx.Category)
	}
	return nil
}
