package dag

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDetectAcyclicChain(t *testing.T) {
	g := Graph{"A": {"B"}, "B": {"C"}}
	got := Detect(g)
	if !got.Acyclic {
		t.Fatalf("expected acyclic, got cycle %v", got.Path)
	}
}

func TestDetectReportsRotationOfCycle(t *testing.T) {
	g := Graph{"A": {"B"}, "B": {"C"}, "C": {"A"}}
	got := Detect(g)
	if got.Acyclic {
		t.Fatalf("expected a cycle")
	}
	want := Cycle{"A", "B", "C", "A"}
	if diff := cmp.Diff(want, got.Path); diff != "" {
		t.Fatalf("cycle mismatch (-want +got):\n%s", diff)
	}
	if got.Path.String() != "A -> B -> C -> A" {
		t.Fatalf("unexpected rendering %q", got.Path.String())
	}
}

func TestFindCyclesContinuesAcrossComponents(t *testing.T) {
	g := Graph{
		"A": {"B"},
		"B": {"A"},
		"C": {"D"},
		"D": {"C"},
		"E": {"E"},
	}
	want := []Cycle{{"A", "B", "A"}, {"C", "D", "C"}, {"E", "E"}}
	if diff := cmp.Diff(want, FindCycles(g)); diff != "" {
		t.Fatalf("cycles mismatch (-want +got):\n%s", diff)
	}
}

func TestFindCyclesIgnoresInsertionOrder(t *testing.T) {
	first := Graph{}
	first.AddEdge("B", "C")
	first.AddEdge("A", "C")
	first.AddEdge("C", "A")
	first.AddEdge("C", "B")

	second := Graph{}
	second.AddEdge("C", "B")
	second.AddEdge("C", "A")
	second.AddEdge("A", "C")
	second.AddEdge("B", "C")

	if diff := cmp.Diff(FindCycles(first), FindCycles(second)); diff != "" {
		t.Fatalf("insertion order changed output:\n%s", diff)
	}
}

func TestFindCyclesMatchesRecursiveWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		g := Graph{}
		nodes := 3 + rng.Intn(12)
		edges := rng.Intn(nodes * 2)
		for i := 0; i < edges; i++ {
			child := fmt.Sprintf("n%02d", rng.Intn(nodes))
			parent := fmt.Sprintf("n%02d", rng.Intn(nodes))
			g.AddEdge(child, parent)
		}
		want := recursiveCycles(g)
		got := FindCycles(g)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("round %d: iterative walk diverged (-recursive +iterative):\n%s", round, diff)
		}
	}
}

func TestFindCyclesDeepChain(t *testing.T) {
	g := Graph{}
	const depth = 50000
	for i := 1; i < depth; i++ {
		g.AddEdge(fmt.Sprintf("n%06d", i), fmt.Sprintf("n%06d", i-1))
	}
	if cycles := FindCycles(g); len(cycles) != 0 {
		t.Fatalf("expected no cycles, got %d", len(cycles))
	}
	g.AddEdge("n000000", fmt.Sprintf("n%06d", depth-1))
	cycles := FindCycles(g)
	if len(cycles) != 1 {
		t.Fatalf("expected one cycle, got %d", len(cycles))
	}
	if len(cycles[0]) != depth+1 {
		t.Fatalf("expected cycle through every node, got length %d", len(cycles[0]))
	}
}

func TestGraphHelpers(t *testing.T) {
	g := Graph{}
	g.AddEdge("B", "A")
	g.AddEdge("B", "A")
	g.AddEdge("C", "B")
	if g.EdgeCount() != 2 {
		t.Fatalf("duplicate edge not collapsed: %v", g)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, g.Nodes()); diff != "" {
		t.Fatalf("nodes mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B", "C"}, g.Children()); diff != "" {
		t.Fatalf("children mismatch:\n%s", diff)
	}
	clone := g.Clone()
	clone.AddEdge("B", "Z")
	if len(g["B"]) != 1 {
		t.Fatalf("clone shares storage with original: %v", g["B"])
	}
}

// recursiveCycles is the textbook formulation the iterative walk must mirror.
func recursiveCycles(g Graph) []Cycle {
	state := map[string]color{}
	var (
		stack  []string
		cycles []Cycle
		visit  func(string)
	)
	visit = func(node string) {
		switch state[node] {
		case gray:
			from := 0
			for i, id := range stack {
				if id == node {
					from = i
					break
				}
			}
			path := append(Cycle{}, stack[from:]...)
			cycles = append(cycles, append(path, node))
			return
		case black:
			return
		}
		state[node] = gray
		stack = append(stack, node)
		for _, parent := range g.Parents(node) {
			visit(parent)
		}
		stack = stack[:len(stack)-1]
		state[node] = black
	}
	for _, node := range g.Nodes() {
		if state[node] == white {
			visit(node)
		}
	}
	return cycles
}
