package location

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// Bounds is a JSON-friendly bounding box.
type Bounds struct {
	MinLat  float64 `json:"min_lat"`
	MinLong float64 `json:"min_lon"`
	MaxLat  float64 `json:"max_lat"`
	MaxLong float64 `json:"max_lon"`
}

// BoundsOf converts an orb bound (x = longitude).
func BoundsOf(b orb.Bound) Bounds {
	return Bounds{MinLat: b.Min.Lat(), MinLong: b.Min.Lon(), MaxLat: b.Max.Lat(), MaxLong: b.Max.Lon()}
}

// Report is the location overview. HasData is false when no record carries
// coordinates; every other field is then zero.
type Report struct {
	HasData         bool      `json:"has_data"`
	LocatedRecords  int       `json:"located_records"`
	UniqueTowers    int       `json:"unique_towers"`
	TopLocations    []Cluster `json:"top_locations"`
	NightLocations  int       `json:"night_locations"`
	DayLocations    int       `json:"day_locations"`
	Movement        Mobility  `json:"movement_patterns"`
	MajorMovements  int       `json:"major_movements"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	Bounds          *Bounds   `json:"bounds,omitempty"`
}

// Analysis assembles the location overview.
func (a *Analyzer) Analysis() Report {
	rep := Report{TopLocations: []Cluster{}}
	if len(a.valid) == 0 {
		return rep
	}
	clusters := a.Clusters()
	rep.HasData = true
	rep.LocatedRecords = len(a.valid)
	rep.UniqueTowers = len(clusters)
	rep.TopLocations = clusters
	if len(clusters) > topLocations {
		rep.TopLocations = clusters[:topLocations]
	}

	night, day := map[cdr.Coord]struct{}{}, map[cdr.Coord]struct{}{}
	for _, r := range a.valid {
		switch {
		case r.IsNight:
			night[*r.First] = struct{}{}
		case r.IsDay:
			day[*r.First] = struct{}{}
		}
	}
	rep.NightLocations, rep.DayLocations = len(night), len(day)

	rep.Movement = a.Mobility()
	rep.MajorMovements = len(a.MajorMovements(MajorMovementKm))
	rep.TotalDistanceKm = a.TotalDistance()
	if b, ok := a.Bounds(); ok {
		bb := BoundsOf(b)
		rep.Bounds = &bb
	}
	return rep
}

/* ──────────── max stay per cell ──────────── */

// Stay aggregates the records served by one first cell.
type Stay struct {
	CellID    string     `json:"cell_id"`
	Count     int        `json:"total_calls"`
	FirstSeen string     `json:"first_seen"`
	LastSeen  string     `json:"last_seen"`
	Coord     *cdr.Coord `json:"coord,omitempty"`
}

// MaxStay groups every record by first cell ID, longest stay first (cell ID
// ascending on ties). Records without a cell ID are ignored.
func (a *Analyzer) MaxStay() []Stay {
	byCell := map[string]*Stay{}
	var order []string
	for _, r := range a.recs {
		id := r.FirstCellID
		if id == "" {
			continue
		}
		s := byCell[id]
		if s == nil {
			s = &Stay{CellID: id, FirstSeen: r.Timestamp()}
			byCell[id] = s
			order = append(order, id)
		}
		s.Count++
		s.LastSeen = r.Timestamp()
		if s.Coord == nil && r.First != nil {
			c := *r.First
			s.Coord = &c
		}
	}
	out := make([]Stay, 0, len(order))
	for _, id := range order {
		out = append(out, *byCell[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].CellID < out[j].CellID
	})
	return out
}
