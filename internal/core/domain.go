package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Draft holds the user-editable fields of a transaction. Create and
	// update both operate on a full Draft; partial patches are not
	// supported.
	Draft struct {
		Type     TransactionType
		Title    string
		Amount   float64
		Category string
		Note     string
		Date     Date
	}

	// Transaction is the only persisted entity. ID and CreatedAt are
	// assigned by the backend on insert and immutable afterwards, as is
	// the owning UID.
	Transaction struct {
		ID        string
		UID       string
		Type      TransactionType
		Title     string
		Amount    float64
		Category  string
		Note      string
		Date      Date
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Date is a calendar date without a time-of-day component, used for
	// the transaction's real-world occurrence.
	Date struct {
		time.Time
	}
)

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrEmptyTitle      = errors.New("empty title")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("category does not belong to the transaction type")
)

// IsValid returns true for the two supported transaction types.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date string (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date was never set.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// ISO returns the date in 2006-01-02 form, or "" for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Draft) Validate() error {
	if !d.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	if len(d.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if d.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if !CategoryAllowed(d.Type, d.Category) {
		return ErrUnknownCategory
	}
	if len(d.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

// Draft returns the editable fields of an existing transaction.
func (t Transaction) Draft() Draft {
	return Draft{
		Type:     t.Type,
		Title:    t.Title,
		Amount:   t.Amount,
		Category: t.Category,
		Note:     t.Note,
		Date:     t.Date,
	}
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UID) == "" {
		return errors.New("missing owner uid")
	}
	return t.Draft().Validate()
}
