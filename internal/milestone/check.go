package milestone

import (
	"fmt"

	"github.com/kingrea/roadmap-gate/internal/dag"
)

// Mode names the checks a validation run performed.
type Mode string

const (
	ModeDAGOnly   Mode = "dag-only"
	ModeDAGStatus Mode = "dag+status"
)

// Options tune Validate.
type Options struct {
	// DAGOnly skips the status-consistency pass.
	DAGOnly bool
}

// Result aggregates every violation found by Validate.
type Result struct {
	Mode       Mode
	Milestones int
	Violations []error
}

// Passed reports whether no violation was found.
func (r Result) Passed() bool {
	return len(r.Violations) == 0
}

// Detail describes the run for the success line.
func (r Result) Detail() string {
	return fmt.Sprintf("%s, %d milestones", r.Mode, r.Milestones)
}

// Validate runs node-existence and acyclicity checks and, unless DAGOnly is
// set, the status-consistency pass. Status is only checked over a
// structurally valid graph.
func Validate(g *Graph, opts Options) Result {
	result := Result{Mode: ModeDAGStatus, Milestones: g.Len()}
	if opts.DAGOnly {
		result.Mode = ModeDAGOnly
	}
	nodeErrs := CheckNodes(g)
	cycleErrs := CheckAcyclic(g)
	result.Violations = append(result.Violations, nodeErrs...)
	result.Violations = append(result.Violations, cycleErrs...)
	if opts.DAGOnly || len(nodeErrs) > 0 || len(cycleErrs) > 0 {
		return result
	}
	result.Violations = append(result.Violations, CheckStatus(g)...)
	return result
}

// CheckNodes reports every edge endpoint that is not a known milestone.
// Children are visited in order, and for each child its parents in order.
func CheckNodes(g *Graph) []error {
	var errs []error
	for _, child := range g.deps.Children() {
		if _, ok := g.Milestone(child); !ok {
			errs = append(errs, &UnknownNodeError{Node: child, Role: RoleChild})
		}
		for _, parent := range g.deps.Parents(child) {
			if _, ok := g.Milestone(parent); !ok {
				errs = append(errs, &UnknownNodeError{Node: parent, Child: child, Role: RoleParent})
			}
		}
	}
	return errs
}

// CheckAcyclic reports each cycle closed by a back edge.
func CheckAcyclic(g *Graph) []error {
	var errs []error
	for _, cycle := range dag.FindCycles(g.deps) {
		errs = append(errs, &CycleError{Path: cycle})
	}
	return errs
}

// CheckStatus reports done milestones whose direct dependencies are not done.
// Unknown parents count as not done.
func CheckStatus(g *Graph) []error {
	var errs []error
	for _, m := range g.Milestones() {
		if !m.Status.Done {
			continue
		}
		for _, parent := range g.deps.Parents(m.ID) {
			status := NotDone
			if known, ok := g.Milestone(parent); ok {
				status = known.Status
			}
			if !status.Done {
				errs = append(errs, &DependencyViolation{Milestone: m.ID, Parent: parent, ParentStatus: status})
			}
		}
	}
	return errs
}
