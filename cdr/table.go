package cdr

import (
	"slices"
	"sort"
	"time"
)

// Metadata is the best-effort preamble information of an export.
// Any field may be empty.
type Metadata struct {
	TargetNumber string `json:"target_number,omitempty" yaml:"target_number,omitempty"`
	StartDate    string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	TotalRecords string `json:"total_records,omitempty" yaml:"total_records,omitempty"`
	Operator     string `json:"operator,omitempty" yaml:"operator,omitempty"`
}

// Table is the canonical table built once per ingested file.
// Analyzers treat it as read-only.
type Table struct {
	Format   Format
	Metadata Metadata
	Records  []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Snapshot returns an owned copy of the records.
func (t *Table) Snapshot() []Record {
	if t == nil {
		return nil
	}
	return slices.Clone(t.Records)
}

// SortByTime orders records by DateTime ascending, keeping input order for ties.
func SortByTime(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].DateTime.Before(recs[j].DateTime) })
}

// Span returns the earliest and latest DateTime, zero values when empty.
func Span(recs []Record) (first, last time.Time) {
	for i, r := range recs {
		if i == 0 || r.DateTime.Before(first) {
			first = r.DateTime
		}
		if i == 0 || r.DateTime.After(last) {
			last = r.DateTime
		}
	}
	return first, last
}

/* ──────────── counting helpers ──────────── */

// Count is one key with its number of occurrences.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Tally counts keys and returns them by count descending, key ascending on ties.
func Tally(recs []Record, key func(Record) string) []Count {
	m := map[string]int{}
	for _, r := range recs {
		m[key(r)]++
	}
	return SortCounts(m)
}

// SortCounts flattens m into a deterministic descending list.
func SortCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Top returns at most n leading entries.
func Top(cs []Count, n int) []Count {
	if n < 0 || len(cs) <= n {
		return cs
	}
	return cs[:n]
}

// ByContact keys a record on its cleaned counterparty.
func ByContact(r Record) string { return r.CounterpartyClean }

// Percent returns part/total*100, or 0 when total is zero.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
