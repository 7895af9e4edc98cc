// Package location analyses where the target was: coordinate clusters,
// time-of-day locations, the movement timeline and mobility, distances and
// the cells the target stayed on longest.
package location

import (
	"math"
	"sort"

	"github.com/paulmach/orb"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// EarthRadiusKm is the mean radius used by CalculateDistance.
const EarthRadiusKm = 6371.0

const (
	moveDelta        = 0.01 // degrees, either axis
	topLocations     = 10
	MajorMovementKm  = 5.0
	topTimeLocations = 10
)

// Analyzer keeps a time-ordered copy of the records and the subset with coordinates.
type Analyzer struct {
	recs  []cdr.Record
	valid []cdr.Record
}

// New snapshots t.
func New(t *cdr.Table) *Analyzer {
	recs := t.Snapshot()
	cdr.SortByTime(recs)
	a := &Analyzer{recs: recs}
	for _, r := range recs {
		if r.HasLocation() {
			a.valid = append(a.valid, r)
		}
	}
	return a
}

// Valid is the number of records with coordinates.
func (a *Analyzer) Valid() int { return len(a.valid) }

/* ──────────── clusters ──────────── */

// Cluster is one exact coordinate pair and how often it was seen.
type Cluster struct {
	Lat        float64 `json:"lat"`
	Long       float64 `json:"lon"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

func cluster(recs []cdr.Record) []Cluster {
	counts := map[cdr.Coord]int{}
	for _, r := range recs {
		counts[*r.First]++
	}
	out := make([]Cluster, 0, len(counts))
	for c, n := range counts {
		out = append(out, Cluster{Lat: c.Lat, Long: c.Long, Count: n, Percentage: cdr.Percent(n, len(recs))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Lat != out[j].Lat {
			return out[i].Lat < out[j].Lat
		}
		return out[i].Long < out[j].Long
	})
	return out
}

// Clusters groups located records by exact (lat, long), busiest first;
// percentages are of the located subset.
func (a *Analyzer) Clusters() []Cluster { return cluster(a.valid) }

// TimeLocations holds the ten busiest locations per part of the day.
type TimeLocations struct {
	Night   []Cluster `json:"night"`
	Day     []Cluster `json:"day"`
	Evening []Cluster `json:"evening"`
}

// TimeBasedLocations clusters the night, day and evening subsets independently.
func (a *Analyzer) TimeBasedLocations() TimeLocations {
	var night, day, evening []cdr.Record
	for _, r := range a.valid {
		switch {
		case r.IsNight:
			night = append(night, r)
		case r.IsDay:
			day = append(day, r)
		case r.IsEvening:
			evening = append(evening, r)
		}
	}
	top := func(recs []cdr.Record) []Cluster {
		cs := cluster(recs)
		if len(cs) > topTimeLocations {
			cs = cs[:topTimeLocations]
		}
		return cs
	}
	return TimeLocations{Night: top(night), Day: top(day), Evening: top(evening)}
}

/* ──────────── movement ──────────── */

// Movement is one located event.
type Movement struct {
	DateTime string       `json:"datetime"`
	Lat      float64      `json:"lat"`
	Long     float64      `json:"lon"`
	CallType cdr.Category `json:"call_type"`
	Contact  string       `json:"contact"`
}

// Point returns m as an orb point.
func (m Movement) Point() orb.Point { return orb.Point{m.Long, m.Lat} }

// MovementTimeline lists located events chronologically.
func (a *Analyzer) MovementTimeline() []Movement {
	out := make([]Movement, 0, len(a.valid))
	for _, r := range a.valid {
		out = append(out, Movement{
			DateTime: r.Timestamp(),
			Lat:      r.First.Lat,
			Long:     r.First.Long,
			CallType: r.CallCategory,
			Contact:  r.CounterpartyClean,
		})
	}
	return out
}

// CalculateDistance is the haversine great-circle distance in kilometres.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat, dLon := rad(lat2-lat1), rad(lon2-lon1)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Mobility counts consecutive located events that moved more than 0.01° on
// either axis.
type Mobility struct {
	TotalMovements int     `json:"total_movements"`
	MobilityScore  float64 `json:"mobility_score"`
}

// Mobility scores movement as a percentage of located events; zero with fewer than two.
func (a *Analyzer) Mobility() Mobility {
	var m Mobility
	if len(a.valid) < 2 {
		return m
	}
	for i := 1; i < len(a.valid); i++ {
		prev, cur := a.valid[i-1].First, a.valid[i].First
		if math.Abs(cur.Lat-prev.Lat) > moveDelta || math.Abs(cur.Long-prev.Long) > moveDelta {
			m.TotalMovements++
		}
	}
	m.MobilityScore = cdr.Percent(m.TotalMovements, len(a.valid))
	return m
}

// Hop is a jump between two located events.
type Hop struct {
	From       Movement `json:"from"`
	To         Movement `json:"to"`
	DistanceKm float64  `json:"distance_km"`
}

// MajorMovements keeps each event lying more than km from the last kept one.
func (a *Analyzer) MajorMovements(km float64) []Hop {
	tl := a.MovementTimeline()
	out := []Hop{}
	if len(tl) == 0 {
		return out
	}
	last := tl[0]
	for _, m := range tl[1:] {
		if d := CalculateDistance(last.Lat, last.Long, m.Lat, m.Long); d > km {
			out = append(out, Hop{From: last, To: m, DistanceKm: d})
			last = m
		}
	}
	return out
}

// TotalDistance sums the great-circle legs of the movement timeline.
func (a *Analyzer) TotalDistance() float64 {
	var km float64
	for i := 1; i < len(a.valid); i++ {
		p, c := a.valid[i-1].First, a.valid[i].First
		km += CalculateDistance(p.Lat, p.Long, c.Lat, c.Long)
	}
	return km
}

// Bounds is the bounding box of every located event.
func (a *Analyzer) Bounds() (orb.Bound, bool) {
	if len(a.valid) == 0 {
		return orb.Bound{}, false
	}
	mp := make(orb.MultiPoint, 0, len(a.valid))
	for _, r := range a.valid {
		mp = append(mp, r.First.Point())
	}
	return mp.Bound(), true
}

// Within returns the timeline events inside b.
func (a *Analyzer) Within(b orb.Bound) []Movement {
	out := []Movement{}
	for _, m := range a.MovementTimeline() {
		if b.Contains(m.Point()) {
			out = append(out, m)
		}
	}
	return out
}
