package core

import (
	"strings"
	"time"
)

// Filter holds the optional, conjunctive criteria applied when listing,
// aggregating or exporting records. Zero values impose no constraint.
type Filter struct {
	Search   string // substring of phone, reference or agent
	FromDate string // YYYY-MM-DD, inclusive
	ToDate   string // YYYY-MM-DD, inclusive
	Agent    string // exact match
}

// NewFilter trims its inputs and checks that the dates are calendar days.
func NewFilter(search, fromDate, toDate, agent string) (Filter, error) {
	f := Filter{
		Search:   strings.TrimSpace(search),
		FromDate: strings.TrimSpace(fromDate),
		ToDate:   strings.TrimSpace(toDate),
		Agent:    strings.TrimSpace(agent),
	}
	if f.FromDate != "" {
		if _, err := time.Parse(DateLayout, f.FromDate); err != nil {
			return Filter{}, &ValidationError{Field: "from_date", Reason: "expected YYYY-MM-DD", Err: err}
		}
	}
	if f.ToDate != "" {
		if _, err := time.Parse(DateLayout, f.ToDate); err != nil {
			return Filter{}, &ValidationError{Field: "to_date", Reason: "expected YYYY-MM-DD", Err: err}
		}
	}
	return f, nil
}

// IsEmpty reports whether the filter imposes no constraint.
func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// Matches reports whether r satisfies every supplied criterion. Dates are
// compared on the calendar day of r.Date in loc.
func (f Filter) Matches(r Record, loc *time.Location) bool {
	if f.Agent != "" && r.Agent != f.Agent {
		return false
	}
	if f.FromDate != "" || f.ToDate != "" {
		day := r.Date.In(loc).Format(DateLayout)
		if f.FromDate != "" && day < f.FromDate {
			return false
		}
		if f.ToDate != "" && day > f.ToDate {
			return false
		}
	}
	if f.Search != "" {
		needle := FoldASCII(f.Search)
		if !strings.Contains(FoldASCII(r.Phone), needle) &&
			!strings.Contains(FoldASCII(r.Reference), needle) &&
			!strings.Contains(FoldASCII(r.Agent), needle) {
			return false
		}
	}
	return true
}

// FoldASCII lower-cases ASCII letters only, matching SQLite's lower().
func FoldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
