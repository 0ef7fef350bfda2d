package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2025-03-09", NewDate(2025, 3, 9), true},
		{"2025-03-09T00:00:00.000Z", NewDate(2025, 3, 9), true},
		{"2025-03-09T23:30:00-02:00", NewDate(2025, 3, 10), true},
		{"09/03/2025", Date{}, false},
		{"", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok && (err != nil || !got.Equal(tc.want)) {
			t.Fatalf("%q: expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 2, 29)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2024-02-29T00:00:00Z"` {
		t.Fatalf("unexpected encoding %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d) {
		t.Fatalf("expected %v, got %v", d, back)
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	instant := time.Date(2025, 6, 1, 1, 0, 0, 0, loc) // 2025-05-31 15:00 UTC
	if got := DateOf(instant); !got.Equal(NewDate(2025, 6, 1)) {
		t.Fatalf("expected local calendar day, got %v", got)
	}
}
