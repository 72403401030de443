// Package dag holds the generic dependency-graph primitives shared by the
// milestone checker: an adjacency type keyed child → parents and a
// deterministic cycle detector over it.
package dag

import "sort"

// Graph maps a node to the nodes it depends on. Edges point from dependent to
// dependency, which is also the traversal direction of the cycle detector.
type Graph map[string][]string

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	if len(g) == 0 {
		return nil
	}
	out := make(Graph, len(g))
	for key, parents := range g {
		if len(parents) == 0 {
			out[key] = nil
			continue
		}
		clone := make([]string, len(parents))
		copy(clone, parents)
		out[key] = clone
	}
	return out
}

// AddEdge records that child depends on parent. Duplicate edges collapse.
func (g Graph) AddEdge(child, parent string) {
	g[child] = merge(g[child], []string{parent})
}

// Parents returns the sorted dependency list of a node.
func (g Graph) Parents(node string) []string {
	parents := g[node]
	if len(parents) == 0 {
		return nil
	}
	out := make([]string, len(parents))
	copy(out, parents)
	sort.Strings(out)
	return out
}

// Children returns the sorted list of nodes that declare outgoing edges.
func (g Graph) Children() []string {
	out := make([]string, 0, len(g))
	for child := range g {
		out = append(out, child)
	}
	sort.Strings(out)
	return out
}

// Nodes returns every node mentioned by the graph, either as a child or as a
// parent, in lexicographic order.
func (g Graph) Nodes() []string {
	set := map[string]struct{}{}
	for child, parents := range g {
		set[child] = struct{}{}
		for _, parent := range parents {
			set[parent] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// EdgeCount reports the number of distinct edges.
func (g Graph) EdgeCount() int {
	total := 0
	for _, parents := range g {
		total += len(parents)
	}
	return total
}

func merge(existing, adds []string) []string {
	set := make(map[string]struct{}, len(existing)+len(adds))
	for _, id := range existing {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	for _, id := range adds {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
