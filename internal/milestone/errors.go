package milestone

import (
	"fmt"

	"github.com/kingrea/roadmap-gate/internal/dag"
)

// DuplicateMilestoneError reports a milestone id declared more than once.
type DuplicateMilestoneError struct {
	ID            string
	Document      string
	FirstDocument string
}

func (e *DuplicateMilestoneError) Error() string {
	return fmt.Sprintf("duplicate milestone id '%s' found in %s (first declared in %s)", e.ID, e.Document, e.FirstDocument)
}

// MalformedEdgeError reports an extra edge that is not a CHILD:PARENT pair.
type MalformedEdgeError struct {
	Edge   string
	Reason string
}

func (e *MalformedEdgeError) Error() string {
	return fmt.Sprintf("invalid --extra-edge '%s' (%s)", e.Edge, e.Reason)
}

// NodeRole says which end of an edge references an undeclared milestone.
type NodeRole string

const (
	RoleChild  NodeRole = "child"
	RoleParent NodeRole = "parent"
)

// UnknownNodeError reports an edge endpoint that no document declares.
type UnknownNodeError struct {
	Node  string
	Child string
	Role  NodeRole
}

func (e *UnknownNodeError) Error() string {
	if e.Role == RoleChild {
		return fmt.Sprintf("dependency graph references unknown child milestone '%s'", e.Node)
	}
	return fmt.Sprintf("dependency graph references unknown parent milestone '%s' (child '%s')", e.Node, e.Child)
}

// CycleError reports one cycle found in the dependency graph.
type CycleError struct {
	Path dag.Cycle
}

func (e *CycleError) Error() string {
	return "dependency cycle detected: " + e.Path.String()
}

// DependencyViolation reports a done milestone with an unfinished dependency.
type DependencyViolation struct {
	Milestone    string
	Parent       string
	ParentStatus Status
}

func (e *DependencyViolation) Error() string {
	return fmt.Sprintf("dependency violation: milestone '%s' is done but dependency '%s' is %s", e.Milestone, e.Parent, e.ParentStatus)
}
