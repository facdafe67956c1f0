package scoring

import "github.com/liamcoop/modelbench/model"

// GraphIndex is an adjacency view over a relationship list.
// Nodes keeps the order in which sources first appear so traversals are
// deterministic; duplicate and self-referencing edges are kept as given.
type GraphIndex struct {
	Nodes []string
	Succ  map[string][]string
}

// NewGraphIndex builds the adjacency view of rels
func NewGraphIndex(rels []model.Relationship) *GraphIndex {
	g := &GraphIndex{Succ: make(map[string][]string)}
	for _, r := range rels {
		if _, seen := g.Succ[r.From]; !seen {
			g.Nodes = append(g.Nodes, r.From)
		}
		g.Succ[r.From] = append(g.Succ[r.From], r.To)
	}
	return g
}

// CountFeedbackLoops counts the back edges met during one depth-first
// traversal forest over g, rooted at each unvisited node in insertion order.
//
// This is the feedback-loop figure conformance bounds are written against.
// It is not the number of distinct simple cycles: loops that share a node
// can be undercounted. A single A->B, B->A pair counts as exactly one.
func CountFeedbackLoops(g *GraphIndex) int {
	if g == nil {
		return 0
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	loops := 0

	var visit func(node string)
	visit = func(node string) {
		visited[node] = true
		onStack[node] = true
		for _, next := range g.Succ[node] {
			if onStack[next] {
				loops++
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}
		onStack[node] = false
	}

	for _, node := range g.Nodes {
		if !visited[node] {
			visit(node)
		}
	}
	return loops
}

// VariableSet returns the distinct relationship endpoints in first-seen order
func VariableSet(rels []model.Relationship) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rels {
		for _, n := range [2]string{r.From, r.To} {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}
