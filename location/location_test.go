package location

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/cdr/cdrtest"
)

// Delhi, Gurgaon and Noida cell sites.
var (
	delhi   = [2]float64{28.6139, 77.2090}
	gurgaon = [2]float64{28.4595, 77.0266}
	noida   = [2]float64{28.5355, 77.3910}
)

func at(ts string, p [2]float64, cat cdr.Category) cdr.Record {
	return cdrtest.At(cdrtest.Record(ts, "9000000001", cat, 30), p[0], p[1])
}

func fixture() *cdr.Table {
	return cdrtest.Table("9876543210",
		at("2025-05-01 09:00:00", delhi, cdr.OutgoingCall),
		at("2025-05-01 23:30:00", noida, cdr.IncomingCall),
		at("2025-05-01 10:00:00", delhi, cdr.IncomingCall),
		cdrtest.Record("2025-05-01 11:00:00", "9000000002", cdr.SMSReceived, 0),
		at("2025-05-01 13:00:00", gurgaon, cdr.OutgoingCall),
		at("2025-05-01 19:00:00", delhi, cdr.OutgoingCall),
	)
}

func TestCalculateDistance(t *testing.T) {
	d := CalculateDistance(delhi[0], delhi[1], noida[0], noida[1])
	assert.InDelta(t, 19.8, d, 0.1)

	// one degree of latitude on a 6371 km sphere
	assert.InDelta(t, 111.19, CalculateDistance(0, 0, 1, 0), 0.01)

	points := [][2]float64{delhi, gurgaon, noida, {-33.8688, 151.2093}, {51.5074, -0.1278}, {0, 0}}
	for _, a := range points {
		assert.Zero(t, CalculateDistance(a[0], a[1], a[0], a[1]), "identity %v", a)
		for _, b := range points {
			assert.Equal(t,
				CalculateDistance(a[0], a[1], b[0], b[1]),
				CalculateDistance(b[0], b[1], a[0], a[1]),
				"symmetry %v %v", a, b)
		}
	}
}

func TestClusters(t *testing.T) {
	a := New(fixture())
	assert.Equal(t, 5, a.Valid())

	cs := a.Clusters()
	require.Len(t, cs, 3)
	assert.Equal(t, delhi[0], cs[0].Lat)
	assert.Equal(t, delhi[1], cs[0].Long)
	assert.Equal(t, 3, cs[0].Count)
	assert.InDelta(t, 60.0, cs[0].Percentage, 1e-9)
	assert.Equal(t, 1, cs[1].Count)
	assert.InDelta(t, 20.0, cs[1].Percentage, 1e-9)
	assert.Less(t, cs[1].Lat, cs[2].Lat, "ties ordered by latitude")

	var sum float64
	for _, c := range cs {
		sum += c.Percentage
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestClustersExactPairs(t *testing.T) {
	tbl := cdrtest.Table("9876543210",
		at("2025-05-01 09:00:00", [2]float64{28.61390, 77.2090}, cdr.OutgoingCall),
		at("2025-05-01 09:05:00", [2]float64{28.61391, 77.2090}, cdr.OutgoingCall),
	)
	assert.Len(t, New(tbl).Clusters(), 2)
}

func TestTimeBasedLocations(t *testing.T) {
	tl := New(fixture()).TimeBasedLocations()
	require.Len(t, tl.Night, 1)
	assert.Equal(t, noida[0], tl.Night[0].Lat)
	require.Len(t, tl.Day, 2)
	assert.Equal(t, 2, tl.Day[0].Count)
	require.Len(t, tl.Evening, 1)

	var recs []cdr.Record
	for i := 0; i < 12; i++ {
		recs = append(recs, at("2025-05-02 10:00:00", [2]float64{28 + float64(i)/10, 77}, cdr.OutgoingCall))
	}
	assert.Len(t, New(cdrtest.Table("9876543210", recs...)).TimeBasedLocations().Day, 10)
}

func TestMovementTimeline(t *testing.T) {
	tl := New(fixture()).MovementTimeline()
	require.Len(t, tl, 5)
	assert.Equal(t, Movement{
		DateTime: "2025-05-01 09:00:00",
		Lat:      delhi[0],
		Long:     delhi[1],
		CallType: cdr.OutgoingCall,
		Contact:  "9000000001",
	}, tl[0])
	assert.Equal(t, "2025-05-01 23:30:00", tl[4].DateTime)
	for i := 1; i < len(tl); i++ {
		assert.LessOrEqual(t, tl[i-1].DateTime, tl[i].DateTime)
	}
}

func TestMobility(t *testing.T) {
	// delhi, delhi, gurgaon, delhi, noida
	m := New(fixture()).Mobility()
	assert.Equal(t, 3, m.TotalMovements)
	assert.InDelta(t, 60.0, m.MobilityScore, 1e-9)

	small := cdrtest.Table("9876543210",
		at("2025-05-01 09:00:00", [2]float64{28.600, 77.200}, cdr.OutgoingCall),
		at("2025-05-01 09:10:00", [2]float64{28.605, 77.205}, cdr.OutgoingCall),
	)
	assert.Zero(t, New(small).Mobility().TotalMovements, "moves within 0.01° do not count")

	single := cdrtest.Table("9876543210", at("2025-05-01 09:00:00", delhi, cdr.OutgoingCall))
	assert.Equal(t, Mobility{}, New(single).Mobility())
}

func TestMajorMovementsAndDistance(t *testing.T) {
	a := New(fixture())
	hops := a.MajorMovements(MajorMovementKm)
	require.Len(t, hops, 3)
	assert.Equal(t, "2025-05-01 13:00:00", hops[0].To.DateTime)
	assert.Greater(t, hops[0].DistanceKm, MajorMovementKm)

	var want float64
	pts := [][2]float64{delhi, delhi, gurgaon, delhi, noida}
	for i := 1; i < len(pts); i++ {
		want += CalculateDistance(pts[i-1][0], pts[i-1][1], pts[i][0], pts[i][1])
	}
	assert.InDelta(t, want, a.TotalDistance(), 1e-9)
	assert.Empty(t, a.MajorMovements(1000))
}

func TestBoundsAndWithin(t *testing.T) {
	a := New(fixture())
	b, ok := a.Bounds()
	require.True(t, ok)
	assert.Equal(t, orb.Point{gurgaon[1], gurgaon[0]}, b.Min)
	assert.Equal(t, orb.Point{noida[1], delhi[0]}, b.Max)

	box := orb.Bound{Min: orb.Point{77.1, 28.5}, Max: orb.Point{77.3, 28.7}}
	in := a.Within(box)
	require.Len(t, in, 3)
	for _, m := range in {
		assert.Equal(t, delhi[0], m.Lat)
	}
}

func TestAnalysis(t *testing.T) {
	rep := New(fixture()).Analysis()
	assert.True(t, rep.HasData)
	assert.Equal(t, 5, rep.LocatedRecords)
	assert.Equal(t, 3, rep.UniqueTowers)
	assert.Len(t, rep.TopLocations, 3)
	assert.Equal(t, 1, rep.NightLocations)
	assert.Equal(t, 2, rep.DayLocations)
	assert.Equal(t, 3, rep.Movement.TotalMovements)
	assert.Equal(t, 3, rep.MajorMovements)
	assert.Greater(t, rep.TotalDistanceKm, 0.0)
	require.NotNil(t, rep.Bounds)
	assert.Equal(t, gurgaon[0], rep.Bounds.MinLat)
	assert.Equal(t, noida[1], rep.Bounds.MaxLong)
}

func TestEmptyLocations(t *testing.T) {
	tbl := cdrtest.Table("9876543210", cdrtest.Record("2025-05-01 11:00:00", "9000000002", cdr.SMSReceived, 0))
	for _, a := range []*Analyzer{New(nil), New(tbl)} {
		assert.Empty(t, a.Clusters())
		assert.Empty(t, a.MovementTimeline())
		assert.Empty(t, a.MajorMovements(MajorMovementKm))
		assert.Zero(t, a.TotalDistance())
		assert.Equal(t, Mobility{}, a.Mobility())
		_, ok := a.Bounds()
		assert.False(t, ok)

		rep := a.Analysis()
		assert.False(t, rep.HasData)
		assert.Nil(t, rep.Bounds)
		assert.NotNil(t, rep.TopLocations)
	}
}

func TestMaxStay(t *testing.T) {
	recs := []cdr.Record{
		cdrtest.Record("2025-05-01 09:00:00", "9000000001", cdr.OutgoingCall, 1),
		cdrtest.Record("2025-05-01 10:00:00", "9000000001", cdr.OutgoingCall, 1),
		cdrtest.Record("2025-05-01 08:00:00", "9000000001", cdr.OutgoingCall, 1),
		cdrtest.Record("2025-05-01 11:00:00", "9000000001", cdr.OutgoingCall, 1),
		cdrtest.Record("2025-05-01 12:00:00", "9000000001", cdr.OutgoingCall, 1),
	}
	cells := []string{"4058722113210", "4058722113210", "4058722113210", "4058722113299", ""}
	for i := range recs {
		recs[i].FirstCellID = cells[i]
	}
	recs[1] = cdrtest.At(recs[1], delhi[0], delhi[1])
	recs[1].FirstCellID = cells[1]

	stays := New(cdrtest.Table("9876543210", recs...)).MaxStay()
	require.Len(t, stays, 2)
	top := stays[0]
	assert.Equal(t, "4058722113210", top.CellID)
	assert.Equal(t, 3, top.Count)
	assert.Equal(t, "2025-05-01 08:00:00", top.FirstSeen)
	assert.Equal(t, "2025-05-01 10:00:00", top.LastSeen)
	require.NotNil(t, top.Coord)
	assert.Equal(t, delhi[0], top.Coord.Lat)
	assert.Nil(t, stays[1].Coord)
	assert.Equal(t, 1, stays[1].Count)
}
