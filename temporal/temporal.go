// Package temporal reports when activity happens: night/day/evening splits,
// hour-of-day histograms, peak hours, suspicious-timing flags, burst detection
// and overall communication patterns.
package temporal

import (
	"math"
	"sort"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// DefaultTopN is the number of contacts listed per bucket when none is given.
const DefaultTopN = 10

// Fixed thresholds of the suspicious-pattern flags.
const (
	excessiveNightPct   = 30.0
	lateNightEndHour    = 4
	lateNightSuspicious = 50
	nightContactsTop    = 5
	maxBursts           = 20
)

// Analyzer works on its own copy of a table's records.
type Analyzer struct {
	recs []cdr.Record
	topN int
}

// New snapshots t. topN <= 0 selects DefaultTopN.
func New(t *cdr.Table, topN int) *Analyzer {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Analyzer{recs: t.Snapshot(), topN: topN}
}

// Split is the night/day/evening share of the whole table.
type Split struct {
	NightCount        int     `json:"night_count"`
	DayCount          int     `json:"day_count"`
	EveningCount      int     `json:"evening_count"`
	NightPercentage   float64 `json:"night_percentage"`
	DayPercentage     float64 `json:"day_percentage"`
	EveningPercentage float64 `json:"evening_percentage"`
}

// Bucket is the breakdown of one part of the day.
type Bucket struct {
	Ranges        map[string]int `json:"ranges"`
	TopContacts   []cdr.Count    `json:"top_contacts"`
	CallTypes     map[string]int `json:"call_types"`
	DurationTotal int            `json:"duration_total"`
	DurationAvg   float64        `json:"duration_avg"`
	PeakHour      *int           `json:"peak_hour"`
}

// PeakHours holds the busiest hour overall and per bucket; nil when no activity.
type PeakHours struct {
	Overall *int `json:"overall"`
	Night   *int `json:"night"`
	Day     *int `json:"day"`
	Evening *int `json:"evening"`
}

// Suspicious carries the fixed-threshold timing flags.
type Suspicious struct {
	ExcessiveNightActivity  bool        `json:"excessive_night_activity"`
	NightActivityPercentage float64     `json:"night_activity_percentage"`
	LateNightActivity       int         `json:"late_night_activity"`
	LateNightSuspicious     bool        `json:"late_night_suspicious"`
	FrequentNightContacts   []cdr.Count `json:"frequent_night_contacts,omitempty"`
}

// Report is the full temporal analysis.
type Report struct {
	Split      Split       `json:"night_day_summary"`
	Night      Bucket      `json:"night_activity"`
	Day        Bucket      `json:"day_activity"`
	Evening    Bucket      `json:"evening_activity"`
	Hourly     map[int]int `json:"hourly_distribution"`
	Peak       PeakHours   `json:"peak_hours"`
	Suspicious Suspicious  `json:"suspicious_patterns"`
}

/* ──────────── sub-bucket ranges [from, to) ──────────── */

type hourRange struct {
	name     string
	from, to int
}

var (
	nightRanges = []hourRange{
		{"late_night_00_03", 0, 3},
		{"late_night_03_06", 3, 6},
		{"night_22_00", 22, 24},
	}
	dayRanges = []hourRange{
		{"morning_06_09", 6, 9},
		{"morning_09_12", 9, 12},
		{"afternoon_12_15", 12, 15},
		{"afternoon_15_18", 15, 18},
	}
	eveningRanges = []hourRange{
		{"evening_18_20", 18, 20},
		{"evening_20_22", 20, 22},
	}
)

// Analyze builds the temporal report. An empty table yields zero counts,
// zero percentages and nil peak hours.
func (a *Analyzer) Analyze() Report {
	var night, day, evening []cdr.Record
	for _, r := range a.recs {
		switch {
		case r.IsNight:
			night = append(night, r)
		case r.IsDay:
			day = append(day, r)
		case r.IsEvening:
			evening = append(evening, r)
		}
	}

	total := len(a.recs)
	rep := Report{
		Split: Split{
			NightCount:        len(night),
			DayCount:          len(day),
			EveningCount:      len(evening),
			NightPercentage:   cdr.Percent(len(night), total),
			DayPercentage:     cdr.Percent(len(day), total),
			EveningPercentage: cdr.Percent(len(evening), total),
		},
		Night:   a.bucket(night, nightRanges),
		Day:     a.bucket(day, dayRanges),
		Evening: a.bucket(evening, eveningRanges),
		Hourly:  Histogram(a.recs),
	}
	rep.Peak = PeakHours{
		Overall: PeakHour(a.recs),
		Night:   rep.Night.PeakHour,
		Day:     rep.Day.PeakHour,
		Evening: rep.Evening.PeakHour,
	}
	rep.Suspicious = a.suspicious(night)
	return rep
}

func (a *Analyzer) bucket(recs []cdr.Record, ranges []hourRange) Bucket {
	b := Bucket{
		Ranges:      make(map[string]int, len(ranges)),
		TopContacts: cdr.Top(cdr.Tally(recs, cdr.ByContact), a.topN),
		CallTypes:   map[string]int{},
		PeakHour:    PeakHour(recs),
	}
	for _, hr := range ranges {
		b.Ranges[hr.name] = 0
	}
	for _, r := range recs {
		for _, hr := range ranges {
			if r.Hour >= hr.from && r.Hour < hr.to {
				b.Ranges[hr.name]++
			}
		}
		b.CallTypes[string(r.CallCategory)]++
		b.DurationTotal += r.DurationSeconds
	}
	if len(recs) > 0 {
		b.DurationAvg = float64(b.DurationTotal) / float64(len(recs))
	}
	return b
}

func (a *Analyzer) suspicious(night []cdr.Record) Suspicious {
	s := Suspicious{NightActivityPercentage: cdr.Percent(len(night), len(a.recs))}
	s.ExcessiveNightActivity = s.NightActivityPercentage > excessiveNightPct
	for _, r := range a.recs {
		if r.Hour >= 0 && r.Hour < lateNightEndHour {
			s.LateNightActivity++
		}
	}
	s.LateNightSuspicious = s.LateNightActivity > lateNightSuspicious
	if len(night) > 0 {
		s.FrequentNightContacts = cdr.Top(cdr.Tally(night, cdr.ByContact), nightContactsTop)
	}
	return s
}

// Histogram counts records per hour; all 24 keys are present.
func Histogram(recs []cdr.Record) map[int]int {
	h := make(map[int]int, 24)
	for i := 0; i < 24; i++ {
		h[i] = 0
	}
	for _, r := range recs {
		if r.Hour >= 0 && r.Hour < 24 {
			h[r.Hour]++
		}
	}
	return h
}

// PeakHour is the most active hour of recs, the earliest hour on ties, or nil
// when recs is empty.
func PeakHour(recs []cdr.Record) *int {
	if len(recs) == 0 {
		return nil
	}
	var counts [24]int
	for _, r := range recs {
		if r.Hour >= 0 && r.Hour < 24 {
			counts[r.Hour]++
		}
	}
	best := 0
	for h := 1; h < 24; h++ {
		if counts[h] > counts[best] {
			best = h
		}
	}
	return &best
}

/* ──────────── bursts ──────────── */

// Burst is a (date, hour) slot whose activity exceeds mean + 2σ of all slots.
type Burst struct {
	Date      string  `json:"date"`
	Hour      int     `json:"hour"`
	Count     int     `json:"count"`
	Threshold float64 `json:"threshold"`
}

type slot struct {
	date string
	hour int
}

// Bursts returns at most twenty burst slots, busiest first. With one slot or
// fewer the deviation is undefined and no bursts are reported.
func (a *Analyzer) Bursts() []Burst {
	groups := map[slot]int{}
	for _, r := range a.recs {
		groups[slot{r.DateOnly, r.Hour}]++
	}
	out := []Burst{}
	if len(groups) <= 1 {
		return out
	}

	sizes := make([]float64, 0, len(groups))
	for _, n := range groups {
		sizes = append(sizes, float64(n))
	}
	mean, std := meanStd(sizes)
	threshold := mean + 2*std

	for s, n := range groups {
		if float64(n) > threshold {
			out = append(out, Burst{Date: s.date, Hour: s.hour, Count: n, Threshold: threshold})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > maxBursts {
		out = out[:maxBursts]
	}
	return out
}

// meanStd returns the mean and the sample (n-1) standard deviation; len(xs) must be > 1.
func meanStd(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}
