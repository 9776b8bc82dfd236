package domain

import (
	"encoding/json"
	"sort"
)

// TransferGraph is a directed multigraph of transfers keyed by origin
// address. Edge lists keep insertion (traversal) order. It is a plain
// insert-or-append multimap; dedup across traversal paths is the
// traversal session's concern, not the graph's.
type TransferGraph struct {
	edges map[string][]TransferEdge
}

// NewTransferGraph creates an empty transfer graph.
func NewTransferGraph() *TransferGraph {
	return &TransferGraph{edges: make(map[string][]TransferEdge)}
}

// AddEdge appends an edge to the origin's list, creating the slot if absent.
func (g *TransferGraph) AddEdge(from string, e TransferEdge) {
	g.edges[from] = append(g.edges[from], e)
}

// Edges returns the edge list for an origin address, in insertion order.
func (g *TransferGraph) Edges(from string) []TransferEdge {
	return g.edges[from]
}

// Addresses returns all origin addresses in lexical order.
func (g *TransferGraph) Addresses() []string {
	addrs := make([]string, 0, len(g.edges))
	for a := range g.edges {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs
}

// Len returns the total number of edges.
func (g *TransferGraph) Len() int {
	n := 0
	for _, list := range g.edges {
		n += len(list)
	}
	return n
}

// Merge appends all edge lists of other into g, keyed by origin address.
// Duplicates across independently-built graphs are allowed; within one
// traversal session the tx-key set prevents them before insertion.
func (g *TransferGraph) Merge(other *TransferGraph) {
	if other == nil {
		return
	}
	for from, list := range other.edges {
		g.edges[from] = append(g.edges[from], list...)
	}
}

// MergeGraphs concatenates edge lists across graphs into a new graph.
// Used by the batch shallow-graph path after all concurrent single-hop
// fetches resolve.
func MergeGraphs(graphs ...*TransferGraph) *TransferGraph {
	merged := NewTransferGraph()
	for _, g := range graphs {
		merged.Merge(g)
	}
	return merged
}

// MarshalJSON serializes the graph as a map of origin address to edge list.
func (g *TransferGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.edges)
}

// UnmarshalJSON restores a graph serialized by MarshalJSON.
func (g *TransferGraph) UnmarshalJSON(data []byte) error {
	edges := make(map[string][]TransferEdge)
	if err := json.Unmarshal(data, &edges); err != nil {
		return err
	}
	g.edges = edges
	return nil
}
