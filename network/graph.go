package network

import (
	"encoding/json"
	"sort"
)

// Node kinds.
const (
	KindTarget  = "target"
	KindContact = "contact"
)

// Node is a graph vertex; Size is the interaction count for contacts.
type Node struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Size int    `json:"size"`
}

// Edge is an undirected weighted link.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}

// Graph is a small undirected weighted graph kept as an adjacency map.
type Graph struct {
	nodes map[string]Node
	order []string
	adj   map[string]map[string]int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: map[string]Node{}, adj: map[string]map[string]int{}}
}

// AddNode inserts or replaces a node, keeping its original position.
func (g *Graph) AddNode(id, kind string, size int) {
	if _, ok := g.nodes[id]; !ok {
		g.order = append(g.order, id)
		g.adj[id] = map[string]int{}
	}
	g.nodes[id] = Node{ID: id, Kind: kind, Size: size}
}

// AddEdge links a and b with weight w, adding missing endpoints as contacts.
func (g *Graph) AddEdge(a, b string, w int) {
	for _, id := range []string{a, b} {
		if _, ok := g.nodes[id]; !ok {
			g.AddNode(id, KindContact, 0)
		}
	}
	g.adj[a][b] = w
	g.adj[b][a] = w
}

// Node returns the node with id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Weight returns the weight of edge a-b.
func (g *Graph) Weight(a, b string) (int, bool) {
	w, ok := g.adj[a][b]
	return w, ok
}

// Nodes returns nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns every edge once, ordered by insertion of their endpoints.
func (g *Graph) Edges() []Edge {
	pos := make(map[string]int, len(g.order))
	for i, id := range g.order {
		pos[id] = i
	}
	var out []Edge
	for _, a := range g.order {
		peers := make([]string, 0, len(g.adj[a]))
		for b := range g.adj[a] {
			if pos[b] >= pos[a] {
				peers = append(peers, b)
			}
		}
		sort.Slice(peers, func(i, j int) bool { return pos[peers[i]] < pos[peers[j]] })
		for _, b := range peers {
			out = append(out, Edge{From: a, To: b, Weight: g.adj[a][b]})
		}
	}
	return out
}

func (g *Graph) NumNodes() int { return len(g.nodes) }

func (g *Graph) NumEdges() int {
	n := 0
	for a, peers := range g.adj {
		for b := range peers {
			if a <= b {
				n++
			}
		}
	}
	return n
}

// Degree counts the neighbours of id; a self loop counts twice.
func (g *Graph) Degree(id string) int {
	d := len(g.adj[id])
	if _, ok := g.adj[id][id]; ok {
		d++
	}
	return d
}

// DegreeCentrality is degree/(n-1) per node; a lone node scores 1.
func (g *Graph) DegreeCentrality() map[string]float64 {
	out := make(map[string]float64, len(g.nodes))
	n := len(g.nodes)
	if n == 1 {
		for id := range g.nodes {
			out[id] = 1
		}
		return out
	}
	for id := range g.nodes {
		out[id] = float64(g.Degree(id)) / float64(n-1)
	}
	return out
}

// Density is 2m/(n(n-1)), zero below two nodes.
func (g *Graph) Density() float64 {
	n := len(g.nodes)
	if n < 2 {
		return 0
	}
	return 2 * float64(g.NumEdges()) / float64(n*(n-1))
}

func (g *Graph) MarshalJSON() ([]byte, error) {
	edges := g.Edges()
	if edges == nil {
		edges = []Edge{}
	}
	return json.Marshal(struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}{g.Nodes(), edges})
}
