package network

import (
	"sort"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// Frequency counts contacts by how often they appear.
type Frequency struct {
	UniqueContacts int `json:"unique_contacts"`
	OneTime        int `json:"one_time_contacts"`
	FivePlus       int `json:"frequent_contacts_5plus"`
	TenPlus        int `json:"very_frequent_10plus"`
}

// TypeBreakdown splits one contact's records by direction.
type TypeBreakdown struct {
	Total    int `json:"total"`
	Incoming int `json:"incoming"`
	Outgoing int `json:"outgoing"`
	SMS      int `json:"sms"`
}

// NewContact is the first appearance of a contact.
type NewContact struct {
	Date     string       `json:"date"`
	Contact  string       `json:"contact"`
	CallType cdr.Category `json:"call_type"`
}

// ContactReport is the contact-level view of a table.
type ContactReport struct {
	TopContacts []cdr.Count              `json:"top_contacts"`
	Frequency   Frequency                `json:"contact_frequency"`
	CallTypes   map[string]TypeBreakdown `json:"contact_call_types"`
	NewContacts []NewContact             `json:"new_contacts_timeline"`
}

// ContactAnalysis reports the top twenty contacts, frequency counts, a
// direction breakdown of the top ten and the first fifty new contacts.
func (a *Analyzer) ContactAnalysis() ContactReport {
	counts := a.contactCounts()
	rep := ContactReport{
		TopContacts: cdr.Top(counts, topContacts),
		Frequency:   Frequency{UniqueContacts: len(counts)},
		CallTypes:   map[string]TypeBreakdown{},
		NewContacts: []NewContact{},
	}
	for _, c := range counts {
		switch {
		case c.Count == 1:
			rep.Frequency.OneTime++
		case c.Count >= 10:
			rep.Frequency.TenPlus++
			rep.Frequency.FivePlus++
		case c.Count >= 5:
			rep.Frequency.FivePlus++
		}
	}

	for _, c := range cdr.Top(counts, topContactType) {
		rep.CallTypes[c.Key] = TypeBreakdown{Total: c.Count}
	}
	for _, r := range a.recs {
		b, ok := rep.CallTypes[r.CounterpartyClean]
		if !ok {
			continue
		}
		switch r.CallCategory {
		case cdr.IncomingCall:
			b.Incoming++
		case cdr.OutgoingCall:
			b.Outgoing++
		case cdr.SMSReceived, cdr.SMSSent:
			b.SMS++
		}
		rep.CallTypes[r.CounterpartyClean] = b
	}

	sorted := append([]cdr.Record(nil), a.recs...)
	cdr.SortByTime(sorted)
	seen := map[string]struct{}{}
	for _, r := range sorted {
		if len(rep.NewContacts) == maxNewContacts {
			break
		}
		c := r.CounterpartyClean
		if _, ok := seen[c]; ok || c == cdr.Unknown {
			continue
		}
		seen[c] = struct{}{}
		rep.NewContacts = append(rep.NewContacts, NewContact{Date: r.DateOnly, Contact: c, CallType: r.CallCategory})
	}
	return rep
}

/* ──────────── per-party aggregates ──────────── */

// PartySummary aggregates every interaction with one counterparty.
type PartySummary struct {
	Contact       string `json:"contact"`
	Total         int    `json:"total"`
	CallsIn       int    `json:"calls_in"`
	CallsOut      int    `json:"calls_out"`
	SMSIn         int    `json:"sms_in"`
	SMSOut        int    `json:"sms_out"`
	Other         int    `json:"other"`
	TotalDuration int    `json:"total_duration"`
	ActiveDays    int    `json:"active_days"`
	Cells         int    `json:"distinct_cells"`
	FirstContact  string `json:"first_contact"`
	LastContact   string `json:"last_contact"`
}

// PartySummaries aggregates per counterparty, busiest first (contact
// ascending on ties).
func (a *Analyzer) PartySummaries() []PartySummary {
	type agg struct {
		s     PartySummary
		days  map[string]struct{}
		cells map[string]struct{}
		first cdr.Record
		last  cdr.Record
	}
	byParty := map[string]*agg{}
	for _, r := range a.recs {
		x := byParty[r.CounterpartyClean]
		if x == nil {
			x = &agg{
				s:     PartySummary{Contact: r.CounterpartyClean},
				days:  map[string]struct{}{},
				cells: map[string]struct{}{},
				first: r,
				last:  r,
			}
			byParty[r.CounterpartyClean] = x
		}
		x.s.Total++
		x.s.TotalDuration += r.DurationSeconds
		switch r.CallCategory {
		case cdr.IncomingCall:
			x.s.CallsIn++
		case cdr.OutgoingCall:
			x.s.CallsOut++
		case cdr.SMSReceived:
			x.s.SMSIn++
		case cdr.SMSSent:
			x.s.SMSOut++
		default:
			x.s.Other++
		}
		x.days[r.DateOnly] = struct{}{}
		if r.FirstCellID != "" {
			x.cells[r.FirstCellID] = struct{}{}
		}
		if r.DateTime.Before(x.first.DateTime) {
			x.first = r
		}
		if r.DateTime.After(x.last.DateTime) {
			x.last = r
		}
	}

	out := make([]PartySummary, 0, len(byParty))
	for _, x := range byParty {
		x.s.ActiveDays = len(x.days)
		x.s.Cells = len(x.cells)
		x.s.FirstContact = x.first.Timestamp()
		x.s.LastContact = x.last.Timestamp()
		out = append(out, x.s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Contact < out[j].Contact
	})
	return out
}
