// Package network analyses who the target talks to: the contact graph,
// frequency tiers, common contacts across tables and per-party aggregates.
package network

import (
	"sort"

	"github.com/jalad-shrimali/cdr-insight/cdr"
)

// TargetPlaceholder names the centre node when no target number is known.
const TargetPlaceholder = "Target"

const (
	topCentral     = 10
	topContacts    = 20
	topContactType = 10
	maxNewContacts = 50
)

// Analyzer works on its own copy of a table's records.
type Analyzer struct {
	recs   []cdr.Record
	target string
}

// New snapshots t and resolves the target number.
func New(t *cdr.Table) *Analyzer {
	recs := t.Snapshot()
	return &Analyzer{recs: recs, target: resolveTarget(recs)}
}

// Target is the most frequent target number, smallest on ties, or TargetPlaceholder.
func (a *Analyzer) Target() string { return a.target }

func resolveTarget(recs []cdr.Record) string {
	var best cdr.Count
	for _, c := range cdr.Tally(recs, func(r cdr.Record) string { return r.TargetNumber }) {
		if c.Key != "" {
			best = c
			break
		}
	}
	if best.Key == "" {
		return TargetPlaceholder
	}
	return best.Key
}

func (a *Analyzer) contactCounts() []cdr.Count { return cdr.Tally(a.recs, cdr.ByContact) }

/* ──────────── graph ──────────── */

// BuildGraph links the target to every contact with at least minInteractions
// interactions (values below 1 mean 1). Unknown and the target itself are skipped.
func (a *Analyzer) BuildGraph(minInteractions int) *Graph {
	if minInteractions < 1 {
		minInteractions = 1
	}
	g := NewGraph()
	g.AddNode(a.target, KindTarget, 100)
	for _, c := range a.contactCounts() {
		if c.Count < minInteractions || c.Key == cdr.Unknown || c.Key == a.target {
			continue
		}
		g.AddNode(c.Key, KindContact, c.Count)
		g.AddEdge(a.target, c.Key, c.Count)
	}
	return g
}

// Centrality is one node's degree centrality.
type Centrality struct {
	Contact    string  `json:"contact"`
	Centrality float64 `json:"centrality"`
}

// Metrics summarises the contact graph.
type Metrics struct {
	TotalNodes  int          `json:"total_nodes"`
	TotalEdges  int          `json:"total_edges"`
	Density     float64      `json:"density"`
	TopCentral  []Centrality `json:"top_central_contacts"`
	TargetLabel string       `json:"target"`
}

// Metrics builds the graph for minInteractions and reports its size, density and the ten
// most central nodes.
func (a *Analyzer) Metrics(minInteractions int) Metrics {
	g := a.BuildGraph(minInteractions)
	return Metrics{
		TotalNodes:  g.NumNodes(),
		TotalEdges:  g.NumEdges(),
		Density:     g.Density(),
		TopCentral:  TopCentral(g, topCentral),
		TargetLabel: a.target,
	}
}

// TopCentral ranks nodes by degree centrality, descending, id ascending on ties.
func TopCentral(g *Graph, n int) []Centrality {
	out := []Centrality{}
	for id, c := range g.DegreeCentrality() {
		out = append(out, Centrality{Contact: id, Centrality: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Centrality != out[j].Centrality {
			return out[i].Centrality > out[j].Centrality
		}
		return out[i].Contact < out[j].Contact
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

/* ──────────── tiers ──────────── */

// Tiers partitions contacts by interaction count.
type Tiers struct {
	VeryFrequent []cdr.Count `json:"very_frequent"` // >= 20
	Frequent     []cdr.Count `json:"frequent"`      // 10-19
	Moderate     []cdr.Count `json:"moderate"`      // 5-9
	Occasional   []cdr.Count `json:"occasional"`    // 2-4
	OneTime      []cdr.Count `json:"one_time"`      // 1
}

// ClusterContacts places every contact except Unknown in exactly one tier.
func (a *Analyzer) ClusterContacts() Tiers {
	t := Tiers{
		VeryFrequent: []cdr.Count{},
		Frequent:     []cdr.Count{},
		Moderate:     []cdr.Count{},
		Occasional:   []cdr.Count{},
		OneTime:      []cdr.Count{},
	}
	for _, c := range a.contactCounts() {
		if c.Key == cdr.Unknown {
			continue
		}
		switch {
		case c.Count >= 20:
			t.VeryFrequent = append(t.VeryFrequent, c)
		case c.Count >= 10:
			t.Frequent = append(t.Frequent, c)
		case c.Count >= 5:
			t.Moderate = append(t.Moderate, c)
		case c.Count >= 2:
			t.Occasional = append(t.Occasional, c)
		default:
			t.OneTime = append(t.OneTime, c)
		}
	}
	return t
}

/* ──────────── cross-table & per-contact ──────────── */

// FindCommonContacts returns the sorted contacts present in both tables, without Unknown.
func (a *Analyzer) FindCommonContacts(other *cdr.Table) []string {
	mine := map[string]struct{}{}
	for _, r := range a.recs {
		mine[r.CounterpartyClean] = struct{}{}
	}
	seen := map[string]struct{}{}
	out := []string{}
	if other == nil {
		return out
	}
	for _, r := range other.Records {
		c := r.CounterpartyClean
		if c == cdr.Unknown {
			continue
		}
		if _, ok := mine[c]; !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ContactTimeline returns every record with contact in chronological order.
func (a *Analyzer) ContactTimeline(contact string) []cdr.Record {
	out := []cdr.Record{}
	for _, r := range a.recs {
		if r.CounterpartyClean == contact {
			out = append(out, r)
		}
	}
	cdr.SortByTime(out)
	return out
}
