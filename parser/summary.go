package parser

import (
	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// Summary is the headline view of a parsed table.
type Summary struct {
	Format         cdr.Format     `json:"format"`
	TotalRecords   int            `json:"total_records"`
	Start          string         `json:"start,omitempty"`
	End            string         `json:"end,omitempty"`
	Categories     map[string]int `json:"categories"`
	CallTypes      map[string]int `json:"call_types"`
	UniqueContacts int            `json:"unique_contacts"`
	TotalDuration  int            `json:"total_duration"`
	AvgDuration    float64        `json:"avg_duration"`
	NightActivity  int            `json:"night_activity"`
	DayActivity    int            `json:"day_activity"`
	Metadata       cdr.Metadata   `json:"metadata"`
}

// Summarize computes the Summary of t; an empty table yields zero values.
func Summarize(t *cdr.Table) Summary {
	s := Summary{Categories: map[string]int{}, CallTypes: map[string]int{}}
	if t == nil {
		return s
	}
	s.Format, s.Metadata, s.TotalRecords = t.Format, t.Metadata, len(t.Records)

	contacts := map[string]struct{}{}
	for _, r := range t.Records {
		s.Categories[string(r.CallCategory)]++
		s.CallTypes[r.CallTypeRaw]++
		contacts[r.CounterpartyClean] = struct{}{}
		s.TotalDuration += r.DurationSeconds
		if r.IsNight {
			s.NightActivity++
		}
		if r.IsDay {
			s.DayActivity++
		}
	}
	s.UniqueContacts = len(contacts)
	if n := len(t.Records); n > 0 {
		s.AvgDuration = float64(s.TotalDuration) / float64(n)
		first, last := cdr.Span(t.Records)
		s.Start, s.End = first.Format(cdr.TimestampLayout), last.Format(cdr.TimestampLayout)
	}
	return s
}
