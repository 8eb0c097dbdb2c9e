package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TypeTotals is the aggregate of one transaction type.
type TypeTotals struct {
	Count int64
	Total decimal.Decimal
}

// MarshalJSON renders the total as a number with two decimals.
func (t TypeTotals) MarshalJSON() ([]byte, error) {
	return []byte(`{"count":` + decimal.NewFromInt(t.Count).String() + `,"total":` + FormatAmount(t.Total) + `}`), nil
}

// Summary maps a transaction type to its count and total.
type Summary map[string]TypeTotals

// Summarize groups records by type.
func Summarize(records []Record) Summary {
	s := Summary{}
	for _, r := range records {
		t := s[r.Type]
		t.Count++
		t.Total = t.Total.Add(r.Amount)
		s[r.Type] = t
	}
	return s
}

// Types returns the summary keys in lexical order.
func (s Summary) Types() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
