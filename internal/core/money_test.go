package core

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestNewMoney(t *testing.T) {
	cases := []struct {
		in  float64
		out int64
		ok  bool
	}{
		{12.345, 1235, true},
		{0, 0, true},
		{0.005, 1, true},
		{1e300, 0, false},
		{math.Inf(1), 0, false},
		{math.NaN(), 0, false},
	}
	for _, tc := range cases {
		got, err := NewMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%v expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%v expected invalid amount, got %d (err=%v)", tc.in, got.Cents, err)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
	}{
		{`12.5`, 1250},
		{`"7.25"`, 725},
		{`0.30000000000000004`, 30},
		{`40`, 4000},
	}
	for _, tc := range cases {
		var m Money
		if err := json.Unmarshal([]byte(tc.in), &m); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if m.Cents != tc.cents {
			t.Errorf("%s: expected %d cents, got %d", tc.in, tc.cents, m.Cents)
		}
	}

	b, err := json.Marshal(Money{Cents: 1250})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "12.5" {
		t.Errorf("expected 12.5, got %s", b)
	}
}

func TestMoneyFormat(t *testing.T) {
	if got := (Money{Cents: 1250}).Format("€"); got != "€12.50" {
		t.Errorf("unexpected format %q", got)
	}
	if got := (Money{Cents: -300}).Format("$"); got != "-$3.00" {
		t.Errorf("unexpected format %q", got)
	}
}
