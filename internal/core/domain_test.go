package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Food", Food, true},
		{"food", Food, true},
		{" Healthcare ", Healthcare, true},
		{"0", Food, true},
		{"7", Miscellaneous, true},
		{"8", 0, false},
		{"-1", 0, false},
		{"Groceries", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("%q expected ErrInvalidCategory, got %v", tc.in, err)
		}
	}
}

func TestCategoryString(t *testing.T) {
	if Entertainment.String() != "Entertainment" {
		t.Fatalf("unexpected name %q", Entertainment.String())
	}
	if Category(42).String() != "Unknown" {
		t.Fatalf("out of range category should be Unknown")
	}
	if len(Categories()) != 8 {
		t.Fatalf("expected 8 categories, got %d", len(Categories()))
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Amount: decimal.NewFromInt(10), Category: Food}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	accented := Transaction{Category: Food, Description: strings.Repeat("é", MaxDescriptionLen)}
	if err := accented.Validate(); err != nil {
		t.Fatalf("%d two-byte runes should fit, got %v", MaxDescriptionLen, err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Category: Category(8)}, ErrInvalidCategory},
		{Transaction{Category: Category(-1)}, ErrInvalidCategory},
		{Transaction{Category: Food, Description: strings.Repeat("x", MaxDescriptionLen+1)}, ErrDescriptionTooLong},
		{Transaction{Category: Food, Description: strings.Repeat("é", MaxDescriptionLen+1)}, ErrDescriptionTooLong},
		{Transaction{Category: Food, Description: "line1\r\nline2"}, ErrInvalidDescription},
		{Transaction{Category: Food, Description: "lone\rreturn"}, ErrInvalidDescription},
	}
	for i, b := range bads {
		if err := b.tx.Validate(); !errors.Is(err, b.want) {
			t.Fatalf("case %d expected %v, got %v", i, b.want, err)
		}
	}
}

func TestBudgetLimitValidate(t *testing.T) {
	if err := (BudgetLimit{Category: Food, Limit: decimal.Zero}).Validate(); err != nil {
		t.Fatalf("zero limit should be valid: %v", err)
	}
	if err := (BudgetLimit{Category: Food, Limit: decimal.NewFromInt(-1)}).Validate(); !errors.Is(err, ErrNegativeLimit) {
		t.Fatalf("expected ErrNegativeLimit, got %v", err)
	}
}

func TestSameMonth(t *testing.T) {
	ref := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"same day", ref, true},
		{"first of month", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"previous month", time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC), false},
		{"same month last year", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), false},
		{"other zone, same instant month", time.Date(2025, 4, 1, 1, 0, 0, 0, time.FixedZone("X", 2*3600)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameMonth(tt.t, ref); got != tt.want {
				t.Errorf("SameMonth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatErrorIs(t *testing.T) {
	var err error = &FormatError{Kind: "transaction", Field: "amount", Value: "x", Err: ErrInvalidAmount}
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("FormatError should match ErrFormat")
	}
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("FormatError should unwrap to its cause")
	}
}
