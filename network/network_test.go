package network

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalad-shrimali/cdr-insight/cdr"
	"github.com/jalad-shrimali/cdr-insight/cdr/cdrtest"
)

const target = "9876543210"

func many(contact string, n int, cat cdr.Category, day int) []cdr.Record {
	out := make([]cdr.Record, n)
	for i := range out {
		ts := fmt.Sprintf("2025-02-%02d %02d:%02d:00", day, 10+i/60, i%60)
		out[i] = cdrtest.Record(ts, contact, cat, 10)
	}
	return out
}

func fixture() *cdr.Table {
	var recs []cdr.Record
	recs = append(recs, many("9000000001", 25, cdr.IncomingCall, 1)...)
	recs = append(recs, many("9000000002", 12, cdr.OutgoingCall, 2)...)
	recs = append(recs, many("9000000003", 6, cdr.SMSReceived, 3)...)
	recs = append(recs, many("9000000004", 3, cdr.SMSSent, 4)...)
	recs = append(recs, many("9000000005", 1, cdr.Other, 5)...)
	recs = append(recs, many("", 2, cdr.UnknownType, 6)...)
	return cdrtest.Table(target, recs...)
}

func TestClusterContactsPartition(t *testing.T) {
	tiers := New(fixture()).ClusterContacts()

	assert.Equal(t, []cdr.Count{{Key: "9000000001", Count: 25}}, tiers.VeryFrequent)
	assert.Equal(t, []cdr.Count{{Key: "9000000002", Count: 12}}, tiers.Frequent)
	assert.Equal(t, []cdr.Count{{Key: "9000000003", Count: 6}}, tiers.Moderate)
	assert.Equal(t, []cdr.Count{{Key: "9000000004", Count: 3}}, tiers.Occasional)
	assert.Equal(t, []cdr.Count{{Key: "9000000005", Count: 1}}, tiers.OneTime)

	seen := map[string]int{}
	for _, tier := range [][]cdr.Count{tiers.VeryFrequent, tiers.Frequent, tiers.Moderate, tiers.Occasional, tiers.OneTime} {
		for _, c := range tier {
			seen[c.Key]++
		}
	}
	assert.Len(t, seen, 5)
	assert.NotContains(t, seen, cdr.Unknown)
	for k, n := range seen {
		assert.Equal(t, 1, n, k)
	}
}

func TestClusterContactsBoundaries(t *testing.T) {
	tests := []struct {
		n    int
		tier func(Tiers) []cdr.Count
	}{
		{20, func(t Tiers) []cdr.Count { return t.VeryFrequent }},
		{19, func(t Tiers) []cdr.Count { return t.Frequent }},
		{10, func(t Tiers) []cdr.Count { return t.Frequent }},
		{9, func(t Tiers) []cdr.Count { return t.Moderate }},
		{5, func(t Tiers) []cdr.Count { return t.Moderate }},
		{4, func(t Tiers) []cdr.Count { return t.Occasional }},
		{2, func(t Tiers) []cdr.Count { return t.Occasional }},
		{1, func(t Tiers) []cdr.Count { return t.OneTime }},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			tiers := New(cdrtest.Table(target, many("9000000009", tt.n, cdr.OutgoingCall, 1)...)).ClusterContacts()
			assert.Equal(t, []cdr.Count{{Key: "9000000009", Count: tt.n}}, tt.tier(tiers))
		})
	}
}

func TestBuildGraph(t *testing.T) {
	a := New(fixture())
	assert.Equal(t, target, a.Target())

	g := a.BuildGraph(1)
	assert.Equal(t, 6, g.NumNodes())
	assert.Equal(t, 5, g.NumEdges())
	_, hasUnknown := g.Node(cdr.Unknown)
	assert.False(t, hasUnknown)

	w, ok := g.Weight(target, "9000000001")
	require.True(t, ok)
	assert.Equal(t, 25, w)
	w, _ = g.Weight("9000000001", target)
	assert.Equal(t, 25, w)

	n, ok := g.Node(target)
	require.True(t, ok)
	assert.Equal(t, KindTarget, n.Kind)
	assert.Equal(t, 5, g.Degree(target))
	assert.Equal(t, 1, g.Degree("9000000005"))

	g5 := a.BuildGraph(5)
	assert.Equal(t, 4, g5.NumNodes())
	assert.Equal(t, 3, g5.NumEdges())
	_, ok = g5.Node("9000000004")
	assert.False(t, ok)

	assert.Equal(t, a.BuildGraph(0).Nodes(), g.Nodes(), "threshold below one behaves as one")
}

func TestBuildGraphIdempotent(t *testing.T) {
	a := New(fixture())
	g1, g2 := a.BuildGraph(2), a.BuildGraph(2)
	assert.Equal(t, g1.Nodes(), g2.Nodes())
	assert.Equal(t, g1.Edges(), g2.Edges())

	b1, err := json.Marshal(g1)
	require.NoError(t, err)
	b2, err := json.Marshal(g2)
	require.NoError(t, err)
	assert.JSONEq(t, string(b1), string(b2))
}

func TestTargetResolution(t *testing.T) {
	recs := many("9000000001", 3, cdr.OutgoingCall, 1)
	tbl := &cdr.Table{Records: recs}
	assert.Equal(t, TargetPlaceholder, New(tbl).Target())

	recs[0].TargetNumber = "9111111111"
	recs[1].TargetNumber = "9222222222"
	recs[2].TargetNumber = "9222222222"
	assert.Equal(t, "9222222222", New(&cdr.Table{Records: recs}).Target())

	recs[2].TargetNumber = ""
	assert.Equal(t, "9111111111", New(&cdr.Table{Records: recs}).Target(), "ties go to the smallest number")
}

func TestMetrics(t *testing.T) {
	m := New(fixture()).Metrics(1)
	assert.Equal(t, 6, m.TotalNodes)
	assert.Equal(t, 5, m.TotalEdges)
	assert.InDelta(t, 1.0/3.0, m.Density, 1e-12)
	require.Len(t, m.TopCentral, 6)
	assert.Equal(t, Centrality{Contact: target, Centrality: 1}, m.TopCentral[0])
	assert.InDelta(t, 0.2, m.TopCentral[1].Centrality, 1e-12)
	assert.Equal(t, "9000000001", m.TopCentral[1].Contact)
}

func TestMetricsDegenerate(t *testing.T) {
	m := New(&cdr.Table{}).Metrics(1)
	assert.Equal(t, 1, m.TotalNodes)
	assert.Zero(t, m.TotalEdges)
	assert.Zero(t, m.Density)
	assert.Equal(t, []Centrality{{Contact: TargetPlaceholder, Centrality: 1}}, m.TopCentral)

	var big []cdr.Record
	for i := 0; i < 15; i++ {
		big = append(big, many(fmt.Sprintf("90000001%02d", i), 1, cdr.OutgoingCall, 1)...)
	}
	assert.Len(t, New(cdrtest.Table(target, big...)).Metrics(1).TopCentral, 10)
}

func TestFindCommonContacts(t *testing.T) {
	other := cdrtest.Table("9123456789",
		cdrtest.Record("2025-03-01 10:00:00", "9000000005", cdr.OutgoingCall, 1),
		cdrtest.Record("2025-03-01 11:00:00", "9000000002", cdr.OutgoingCall, 1),
		cdrtest.Record("2025-03-01 12:00:00", "9000000002", cdr.IncomingCall, 1),
		cdrtest.Record("2025-03-01 13:00:00", "9000000077", cdr.OutgoingCall, 1),
		cdrtest.Record("2025-03-01 14:00:00", "", cdr.UnknownType, 1),
	)
	a := New(fixture())
	assert.Equal(t, []string{"9000000002", "9000000005"}, a.FindCommonContacts(other))
	assert.Empty(t, a.FindCommonContacts(&cdr.Table{}))
	assert.Empty(t, a.FindCommonContacts(nil))
}

func TestContactTimeline(t *testing.T) {
	tbl := cdrtest.Table(target,
		cdrtest.Record("2025-03-02 09:00:00", "9000000001", cdr.OutgoingCall, 5),
		cdrtest.Record("2025-03-01 09:00:00", "9000000001", cdr.IncomingCall, 6),
		cdrtest.Record("2025-03-01 08:00:00", "9000000002", cdr.IncomingCall, 7),
	)
	tl := New(tbl).ContactTimeline("9000000001")
	require.Len(t, tl, 2)
	assert.Equal(t, "2025-03-01 09:00:00", tl[0].Timestamp())
	assert.Equal(t, "2025-03-02 09:00:00", tl[1].Timestamp())
	assert.Empty(t, New(tbl).ContactTimeline("9999999999"))

	assert.Equal(t, "2025-03-02 09:00:00", tbl.Records[0].Timestamp(), "input order untouched")
}

func TestContactAnalysis(t *testing.T) {
	rep := New(fixture()).ContactAnalysis()

	require.NotEmpty(t, rep.TopContacts)
	assert.Equal(t, cdr.Count{Key: "9000000001", Count: 25}, rep.TopContacts[0])
	assert.Equal(t, Frequency{UniqueContacts: 6, OneTime: 1, FivePlus: 3, TenPlus: 2}, rep.Frequency)

	assert.Equal(t, TypeBreakdown{Total: 25, Incoming: 25}, rep.CallTypes["9000000001"])
	assert.Equal(t, TypeBreakdown{Total: 12, Outgoing: 12}, rep.CallTypes["9000000002"])
	assert.Equal(t, TypeBreakdown{Total: 6, SMS: 6}, rep.CallTypes["9000000003"])

	require.Len(t, rep.NewContacts, 5)
	assert.Equal(t, NewContact{Date: "2025-02-01", Contact: "9000000001", CallType: cdr.IncomingCall}, rep.NewContacts[0])
	assert.Equal(t, "9000000005", rep.NewContacts[4].Contact)
}

func TestContactAnalysisCapsNewContacts(t *testing.T) {
	var recs []cdr.Record
	for i := 0; i < 60; i++ {
		recs = append(recs, cdrtest.Record(fmt.Sprintf("2025-04-01 %02d:%02d:00", i/60, i%60), fmt.Sprintf("90000002%02d", i), cdr.OutgoingCall, 1))
	}
	rep := New(cdrtest.Table(target, recs...)).ContactAnalysis()
	assert.Len(t, rep.NewContacts, 50)
	assert.Len(t, rep.TopContacts, 20)
	assert.Len(t, rep.CallTypes, 10)
}

func TestPartySummaries(t *testing.T) {
	tbl := fixture()
	tbl.Records[0].FirstCellID = "404-10-1-1"
	tbl.Records[1].FirstCellID = "404-10-1-2"
	tbl.Records[2].FirstCellID = "404-10-1-1"

	ps := New(tbl).PartySummaries()
	require.Len(t, ps, 6)

	a := ps[0]
	assert.Equal(t, "9000000001", a.Contact)
	assert.Equal(t, 25, a.Total)
	assert.Equal(t, 25, a.CallsIn)
	assert.Equal(t, 250, a.TotalDuration)
	assert.Equal(t, 1, a.ActiveDays)
	assert.Equal(t, 2, a.Cells)
	assert.Equal(t, "2025-02-01 10:00:00", a.FirstContact)
	assert.Equal(t, "2025-02-01 10:24:00", a.LastContact)

	assert.Equal(t, 3, ps[3].SMSOut)
	assert.Equal(t, cdr.Unknown, ps[4].Contact)
	assert.Equal(t, 1, ps[5].Other)
}
