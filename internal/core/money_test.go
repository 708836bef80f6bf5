package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"-5", "-5", true},
		{"NaN", "", false},
		{"-Inf", "", false},
		{"infinity", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseLimit(t *testing.T) {
	if _, err := ParseLimit("-1"); err != ErrNegativeLimit {
		t.Fatalf("expected ErrNegativeLimit, got %v", err)
	}
	if d, err := ParseLimit("50"); err != nil || !d.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected 50, got %s (err=%v)", d, err)
	}
}
