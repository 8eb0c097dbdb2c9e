package core

import (
	"testing"
	"time"
)

func TestNewFilter(t *testing.T) {
	f, err := NewFilter(" 077 ", "2025-01-01", "2025-01-31", " agent1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Search != "077" || f.Agent != "agent1" {
		t.Fatalf("inputs not trimmed: %+v", f)
	}
	if _, err := NewFilter("", "2025-13-01", "", ""); !IsValidation(err) {
		t.Fatalf("expected validation error for bad from_date, got %v", err)
	}
	if _, err := NewFilter("", "", "31/01/2025", ""); !IsValidation(err) {
		t.Fatalf("expected validation error for bad to_date, got %v", err)
	}
	if empty, _ := NewFilter("", "", "", ""); !empty.IsEmpty() {
		t.Fatalf("expected empty filter")
	}
}

func TestFilterMatches(t *testing.T) {
	r := validRecord()
	r.Reference = "Shop-42"

	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"agent exact", Filter{Agent: "agent1"}, true},
		{"agent prefix is not exact", Filter{Agent: "agent"}, false},
		{"search phone", Filter{Search: "1234"}, true},
		{"search reference case-insensitive", Filter{Search: "shop"}, true},
		{"search agent", Filter{Search: "GENT1"}, true},
		{"search miss", Filter{Search: "zzz"}, false},
		{"from same day inclusive", Filter{FromDate: "2025-03-10"}, true},
		{"to same day inclusive", Filter{ToDate: "2025-03-10"}, true},
		{"from after", Filter{FromDate: "2025-03-11"}, false},
		{"to before", Filter{ToDate: "2025-03-09"}, false},
		{"conjunction one failing", Filter{Agent: "agent1", Search: "zzz"}, false},
		{"conjunction all passing", Filter{Agent: "agent1", Search: "077", FromDate: "2025-03-01", ToDate: "2025-03-31"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Matches(r, time.UTC); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilterMatchesUsesLocationDay(t *testing.T) {
	r := validRecord()
	r.Date = time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+2", 2*60*60)
	if !(Filter{FromDate: "2025-03-11"}).Matches(r, loc) {
		t.Fatalf("expected the record to fall on 2025-03-11 in UTC+2")
	}
	if (Filter{FromDate: "2025-03-11"}).Matches(r, time.UTC) {
		t.Fatalf("expected the record to fall on 2025-03-10 in UTC")
	}
}
