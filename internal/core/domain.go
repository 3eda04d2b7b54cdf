package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Food          Category = "food"
	Transport     Category = "transport"
	Housing       Category = "housing"
	Utilities     Category = "utilities"
	Health        Category = "health"
	Entertainment Category = "entertainment"
	Shopping      Category = "shopping"
	Education     Category = "education"
	Travel        Category = "travel"
	Other         Category = "other"

	// DefaultCategory is what unrecognized category strings decode to.
	DefaultCategory = Other
)

const (
	dateLayout        = "2006-01-02"
	displayDateLayout = "02.01.2006"
)

type (
	Category string

	Date struct {
		time.Time
	}

	// PaymentFields is everything about a payment except its identity.
	PaymentFields struct {
		Title       string
		Description string
		Amount      decimal.Decimal
		Date        Date
		Category    Category
		Photos      []string
	}

	Payment struct {
		ID string
		PaymentFields
	}

	// PaymentListItem is the listing projection of a payment.
	PaymentListItem struct {
		ID       string          `json:"id"`
		Title    string          `json:"title"`
		Amount   decimal.Decimal `json:"amount"`
		Date     Date            `json:"date"`
		Category Category        `json:"category"`
	}

	// PaymentDetails is the full projection of a payment.
	PaymentDetails struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Photos      []string        `json:"photos"`
		Date        Date            `json:"date"`
		Category    Category        `json:"category"`
	}
)

var categories = []Category{
	Food, Transport, Housing, Utilities, Health,
	Entertainment, Shopping, Education, Travel, Other,
}

var (
	ErrInvalidDay   = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
	ErrZeroDate     = errors.New("date cannot be zero")
)

// Categories returns every known category in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory never fails: stored data with an unknown category
// decodes to DefaultCategory.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return DefaultCategory
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate accepts YYYY-MM-DD and DD.MM.YYYY.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, displayDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD or DD.MM.YYYY", s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// Clone returns a copy that shares no memory with f.
func (f PaymentFields) Clone() PaymentFields {
	f.Photos = append([]string(nil), f.Photos...)
	return f
}

func (p Payment) ListItem() PaymentListItem {
	return PaymentListItem{
		ID:       p.ID,
		Title:    p.Title,
		Amount:   p.Amount,
		Date:     p.Date,
		Category: p.Category,
	}
}

func (p Payment) Details() PaymentDetails {
	return PaymentDetails{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Amount:      p.Amount,
		Photos:      append([]string{}, p.Photos...),
		Date:        p.Date,
		Category:    p.Category,
	}
}

// Fields converts a detail view back into editable fields.
func (d PaymentDetails) Fields() PaymentFields {
	return PaymentFields{
		Title:       d.Title,
		Description: d.Description,
		Amount:      d.Amount,
		Date:        d.Date,
		Category:    d.Category,
		Photos:      append([]string(nil), d.Photos...),
	}
}
