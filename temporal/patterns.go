package temporal

import (
	"sort"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

const (
	shortCallSeconds = 30
	longCallSeconds  = 300
)

// DurationStats describes the records with a positive duration.
type DurationStats struct {
	TotalSeconds int     `json:"total_duration_seconds"`
	TotalHours   float64 `json:"total_duration_hours"`
	Avg          float64 `json:"avg_duration"`
	Median       float64 `json:"median_duration"`
	Max          int     `json:"max_duration"`
	ShortCalls   int     `json:"short_calls_under_30s"`
	LongCalls    int     `json:"long_calls_over_5min"`
}

// DailyPatterns describes activity per calendar day.
type DailyPatterns struct {
	Avg        float64 `json:"avg_daily_activity"`
	Max        int     `json:"max_daily_activity"`
	Min        int     `json:"min_daily_activity"`
	ActiveDays int     `json:"active_days"`
}

// Patterns is the communication-pattern view of a table.
type Patterns struct {
	Duration  *DurationStats `json:"duration_stats,omitempty"`
	Daily     DailyPatterns  `json:"daily_patterns"`
	Bursts    []Burst        `json:"burst_activity"`
	DayOfWeek map[string]int `json:"day_of_week"`
}

// CommunicationPatterns summarises durations, daily and weekday activity and bursts.
// Duration is nil when no record has a positive duration.
func (a *Analyzer) CommunicationPatterns() Patterns {
	p := Patterns{
		Duration:  durationStats(a.recs),
		Daily:     dailyPatterns(a.recs),
		Bursts:    a.Bursts(),
		DayOfWeek: map[string]int{},
	}
	for _, r := range a.recs {
		p.DayOfWeek[r.DayOfWeek]++
	}
	return p
}

func durationStats(recs []cdr.Record) *DurationStats {
	var durs []int
	for _, r := range recs {
		if r.DurationSeconds > 0 {
			durs = append(durs, r.DurationSeconds)
		}
	}
	if len(durs) == 0 {
		return nil
	}
	sort.Ints(durs)

	s := &DurationStats{Max: durs[len(durs)-1]}
	for _, d := range durs {
		s.TotalSeconds += d
		if d < shortCallSeconds {
			s.ShortCalls++
		}
		if d > longCallSeconds {
			s.LongCalls++
		}
	}
	s.TotalHours = float64(s.TotalSeconds) / 3600
	s.Avg = float64(s.TotalSeconds) / float64(len(durs))
	if n := len(durs); n%2 == 1 {
		s.Median = float64(durs[n/2])
	} else {
		s.Median = float64(durs[n/2-1]+durs[n/2]) / 2
	}
	return s
}

func dailyPatterns(recs []cdr.Record) DailyPatterns {
	days := map[string]int{}
	for _, r := range recs {
		days[r.DateOnly]++
	}
	d := DailyPatterns{ActiveDays: len(days)}
	if len(days) == 0 {
		return d
	}
	first := true
	for _, n := range days {
		if first || n > d.Max {
			d.Max = n
		}
		if first || n < d.Min {
			d.Min = n
		}
		first = false
	}
	d.Avg = float64(len(recs)) / float64(len(days))
	return d
}
