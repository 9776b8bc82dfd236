package graph

import "solana-whale-graph/internal/domain"

// ClassifyDepths assigns each address in a completed graph a signed depth
// relative to root (root = 0) by breadth-first relabeling. Both edge roles
// reduce to the same relation: the sender of a transfer sits one level
// above its recipient, so following an edge away from the root subtracts
// one and following it toward the root adds one. The first (breadth-first)
// assignment wins; iteration over origins is lexical, so the labeling is
// deterministic. Addresses not connected to the root receive no label.
func ClassifyDepths(g *domain.TransferGraph, root string) map[string]int {
	depths := map[string]int{root: 0}
	if g == nil {
		return depths
	}

	type link struct {
		addr  string
		delta int
	}
	adj := make(map[string][]link)
	for _, from := range g.Addresses() {
		for _, e := range g.Edges(from) {
			adj[from] = append(adj[from], link{addr: e.To, delta: -1})
			adj[e.To] = append(adj[e.To], link{addr: from, delta: +1})
		}
	}

	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, l := range adj[cur] {
			if _, ok := depths[l.addr]; ok {
				continue
			}
			depths[l.addr] = depths[cur] + l.delta
			queue = append(queue, l.addr)
		}
	}
	return depths
}
