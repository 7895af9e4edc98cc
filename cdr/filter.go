package cdr

import (
	"slices"
	"strings"
	"time"
)

// Filter selects records for search and export. Zero fields match everything.
type Filter struct {
	Number     string     // substring of the cleaned counterparty
	Categories []Category // any of
	Periods    []string   // any of the PeriodOf labels
	From, To   time.Time  // inclusive calendar dates
}

// Match reports whether r passes every set criterion.
func (f Filter) Match(r Record) bool {
	if f.Number != "" && !strings.Contains(r.CounterpartyClean, f.Number) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, r.CallCategory) {
		return false
	}
	if len(f.Periods) > 0 && !slices.Contains(f.Periods, r.TimePeriod) {
		return false
	}
	day := r.DateTime.Format(DateLayout)
	if !f.From.IsZero() && day < f.From.Format(DateLayout) {
		return false
	}
	if !f.To.IsZero() && day > f.To.Format(DateLayout) {
		return false
	}
	return true
}

// Apply returns the matching records as a new slice.
func (f Filter) Apply(recs []Record) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
