package dag

import "strings"

type color uint8

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully explored
)

// Cycle is a closed walk through the graph: the first and last entries are the
// same node.
type Cycle []string

// String renders the cycle as "A -> B -> A".
func (c Cycle) String() string {
	return strings.Join(c, " -> ")
}

// Result is the outcome of Detect.
type Result struct {
	Acyclic bool
	Path    Cycle
}

type frame struct {
	node    string
	parents []string
	next    int
}

// FindCycles walks every component of the graph with a three-colour DFS and
// returns each cycle closed by a back edge, in discovery order. Roots and
// parent lists are visited in lexicographic order, so the same graph always
// yields the same cycles. The walk uses an explicit frame stack and matches
// the recursive formulation step for step.
func FindCycles(g Graph) []Cycle {
	colors := map[string]color{}
	position := map[string]int{}
	var (
		cycles []Cycle
		stack  []frame
	)
	push := func(node string) {
		colors[node] = gray
		position[node] = len(stack)
		stack = append(stack, frame{node: node, parents: g.Parents(node)})
	}

	for _, root := range g.Nodes() {
		if colors[root] != white {
			continue
		}
		push(root)
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(top.parents) {
				colors[top.node] = black
				delete(position, top.node)
				stack = stack[:len(stack)-1]
				continue
			}
			parent := top.parents[top.next]
			top.next++
			switch colors[parent] {
			case gray:
				from := position[parent]
				path := make(Cycle, 0, len(stack)-from+1)
				for _, f := range stack[from:] {
					path = append(path, f.node)
				}
				cycles = append(cycles, append(path, parent))
			case black:
			default:
				push(parent)
			}
		}
	}
	return cycles
}

// Detect reports whether the graph is acyclic and, when it is not, the first
// cycle FindCycles discovers.
func Detect(g Graph) Result {
	cycles := FindCycles(g)
	if len(cycles) == 0 {
		return Result{Acyclic: true}
	}
	return Result{Path: cycles[0]}
}
