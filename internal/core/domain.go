package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Category classifies what a transaction was spent on. The ordinal values are
// part of the on-disk record format and must not be reordered.
type Category int

const (
	Food Category = iota
	Transport
	Housing
	Entertainment
	Utilities
	Healthcare
	Education
	Miscellaneous
)

// MaxDescriptionLen bounds the free-text description of a transaction.
const MaxDescriptionLen = 200

type (
	// Timestamps carries the bookkeeping times shared by every persisted entity.
	// Values are kept at second resolution so they survive the record codec.
	Timestamps struct {
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Transaction struct {
		ID          string
		Amount      decimal.Decimal // positive amounts reduce the balance
		Category    Category
		Description string
		Date        time.Time
		Timestamps
	}

	BudgetLimit struct {
		Category Category
		Limit    decimal.Decimal
	}

	Account struct {
		ID            string
		Name          string
		Balance       decimal.Decimal
		MonthlyBudget decimal.Decimal
		Timestamps
	}

	// AccountSnapshot is a point-in-time copy of a ledger, safe to hand to readers.
	AccountSnapshot struct {
		Account      Account
		Transactions []Transaction
		Budgets      []BudgetLimit
	}
)

var (
	ErrNotFound           = errors.New("not found")
	ErrFormat             = errors.New("malformed record")
	ErrIO                 = errors.New("storage i/o")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeLimit      = errors.New("limit must not be negative")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidDescription = errors.New("description must not contain carriage returns")
	ErrInvalidMonths      = errors.New("months must not be negative")
	ErrEmptyName          = errors.New("empty account name")
)

var categoryNames = [...]string{
	Food:          "Food",
	Transport:     "Transport",
	Housing:       "Housing",
	Entertainment: "Entertainment",
	Utilities:     "Utilities",
	Healthcare:    "Healthcare",
	Education:     "Education",
	Miscellaneous: "Miscellaneous",
}

// Categories returns every category in ordinal order.
func Categories() []Category {
	out := make([]Category, len(categoryNames))
	for i := range categoryNames {
		out[i] = Category(i)
	}
	return out
}

func (c Category) Valid() bool {
	return c >= Food && c <= Miscellaneous
}

func (c Category) String() string {
	if !c.Valid() {
		return "Unknown"
	}
	return categoryNames[c]
}

// ParseCategory accepts a category name (case-insensitive) or its ordinal.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		c := Category(n)
		if !c.Valid() {
			return 0, ErrInvalidCategory
		}
		return c, nil
	}
	for i, name := range categoryNames {
		if strings.EqualFold(name, s) {
			return Category(i), nil
		}
	}
	return 0, ErrInvalidCategory
}

// NewTimestamps stamps both fields with now, truncated to whole seconds.
func NewTimestamps(now time.Time) Timestamps {
	now = now.Truncate(time.Second)
	return Timestamps{CreatedAt: now, UpdatedAt: now}
}

// Touch moves UpdatedAt to now.
func (ts *Timestamps) Touch(now time.Time) {
	ts.UpdatedAt = now.Truncate(time.Second)
}

func (t Transaction) Validate() error {
	if !t.Category.Valid() {
		return ErrInvalidCategory
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	// Record files are read back with CRLF folded to LF.
	if strings.ContainsRune(t.Description, '\r') {
		return ErrInvalidDescription
	}
	return nil
}

func (b BudgetLimit) Validate() error {
	if !b.Category.Valid() {
		return ErrInvalidCategory
	}
	if b.Limit.IsNegative() {
		return ErrNegativeLimit
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if a.MonthlyBudget.IsNegative() {
		return ErrNegativeLimit
	}
	return nil
}

// SameMonth reports whether t falls in the calendar month and year of ref,
// evaluated in ref's location.
func SameMonth(t, ref time.Time) bool {
	t = t.In(ref.Location())
	return t.Year() == ref.Year() && t.Month() == ref.Month()
}
