// Package milestone models roadmap milestones declared in issue documents and
// checks their dependency graph for structure and status consistency.
package milestone

import (
	"sort"
	"strings"

	"github.com/kingrea/roadmap-gate/internal/dag"
)

// Milestone is one `### ID` section of an issue document. Only a section
// carrying a status line is a known milestone; a bare header still takes part
// in sequential edges and duplicate detection.
type Milestone struct {
	ID        string
	Status    Status
	HasStatus bool
	Document  string
	Position  int
}

// EdgeTable lists cross-document dependencies keyed child → parents.
type EdgeTable map[string][]string

// Graph is the merged dependency graph over every declared milestone.
type Graph struct {
	milestones map[string]Milestone
	deps       dag.Graph
}

// Build merges the sequential edges implied by each document, the explicit
// edge table and any CHILD:PARENT extra edges into one graph. Edges form a
// set, so repeats from different sources collapse.
func Build(docs []Document, explicit EdgeTable, extraEdges []string) (*Graph, error) {
	g := &Graph{milestones: map[string]Milestone{}, deps: dag.Graph{}}
	for _, doc := range docs {
		var previous string
		for _, m := range doc.Milestones {
			if first, ok := g.milestones[m.ID]; ok {
				return nil, &DuplicateMilestoneError{ID: m.ID, Document: doc.Path, FirstDocument: first.Document}
			}
			g.milestones[m.ID] = m
			if previous != "" {
				g.deps.AddEdge(m.ID, previous)
			}
			previous = m.ID
		}
	}
	for child, parents := range explicit {
		for _, parent := range parents {
			g.deps.AddEdge(child, parent)
		}
	}
	for _, raw := range extraEdges {
		child, parent, err := ParseEdge(raw)
		if err != nil {
			return nil, err
		}
		g.deps.AddEdge(child, parent)
	}
	return g, nil
}

// ParseEdge decodes a "CHILD:PARENT" pair. Surrounding whitespace is ignored.
func ParseEdge(raw string) (string, string, error) {
	child, parent, ok := strings.Cut(raw, ":")
	if !ok {
		return "", "", &MalformedEdgeError{Edge: raw, Reason: "expected CHILD:PARENT"}
	}
	child = strings.TrimSpace(child)
	parent = strings.TrimSpace(parent)
	if child == "" || parent == "" {
		return "", "", &MalformedEdgeError{Edge: raw, Reason: "empty child or parent"}
	}
	return child, parent, nil
}

// Len reports the number of known milestones.
func (g *Graph) Len() int {
	n := 0
	for _, m := range g.milestones {
		if m.HasStatus {
			n++
		}
	}
	return n
}

// Milestone looks up a known milestone. Headers without a status line are
// not found.
func (g *Graph) Milestone(id string) (Milestone, bool) {
	m, ok := g.milestones[id]
	return m, ok && m.HasStatus
}

// Milestones returns every known milestone sorted by id.
func (g *Graph) Milestones() []Milestone {
	out := make([]Milestone, 0, len(g.milestones))
	for _, m := range g.milestones {
		if m.HasStatus {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Parents returns the sorted direct dependencies of id.
func (g *Graph) Parents(id string) []string {
	return g.deps.Parents(id)
}

// Dependencies returns a copy of the edge set.
func (g *Graph) Dependencies() dag.Graph {
	return g.deps.Clone()
}
