// Package capability validates the capability registry: per-backend support
// states, their consistency and the legality of state changes between two
// registry snapshots.
package capability

// State is a point on the support lattice planned < fail_fast < implemented.
type State int

const (
	Planned State = iota
	FailFast
	Implemented
)

var stateNames = [...]string{"planned", "fail_fast", "implemented"}

// transitions[from][to] holds the legal moves: a state never moves down.
var transitions = [3][3]bool{
	Planned:     {Planned: true, FailFast: true, Implemented: true},
	FailFast:    {FailFast: true, Implemented: true},
	Implemented: {Implemented: true},
}

// ParseState decodes a state name.
func ParseState(name string) (State, bool) {
	for i, candidate := range stateNames {
		if candidate == name {
			return State(i), true
		}
	}
	return 0, false
}

func (s State) String() string {
	if s < Planned || s > Implemented {
		return "unknown"
	}
	return stateNames[s]
}

// CanTransition reports whether a channel may move from one state to another.
func CanTransition(from, to State) bool {
	if from < Planned || from > Implemented || to < Planned || to > Implemented {
		return false
	}
	return transitions[from][to]
}

// Channel is one of the support-state axes tracked per capability.
type Channel int

const (
	Sierra Channel = iota
	Cairo
	Overall
)

// Channels lists every channel in reporting order.
var Channels = []Channel{Sierra, Cairo, Overall}

func (c Channel) String() string {
	switch c {
	case Sierra:
		return "sierra"
	case Cairo:
		return "cairo"
	case Overall:
		return "overall"
	default:
		return "unknown"
	}
}

// FamilyGroup classifies a capability.
type FamilyGroup string

const (
	FamilyScalar     FamilyGroup = "scalar"
	FamilyInteger    FamilyGroup = "integer"
	FamilyField      FamilyGroup = "field"
	FamilyAggregate  FamilyGroup = "aggregate"
	FamilyCollection FamilyGroup = "collection"
	FamilyControl    FamilyGroup = "control"
	FamilyResource   FamilyGroup = "resource"
	FamilyCrypto     FamilyGroup = "crypto"
	FamilyCircuit    FamilyGroup = "circuit"
	FamilyRuntime    FamilyGroup = "runtime"
)

var familyGroups = map[FamilyGroup]struct{}{
	FamilyScalar: {}, FamilyInteger: {}, FamilyField: {}, FamilyAggregate: {}, FamilyCollection: {},
	FamilyControl: {}, FamilyResource: {}, FamilyCrypto: {}, FamilyCircuit: {}, FamilyRuntime: {},
}

// Valid reports whether the family belongs to the closed set.
func (f FamilyGroup) Valid() bool {
	_, ok := familyGroups[f]
	return ok
}

var (
	semanticClasses = map[string]struct{}{"pure": {}, "effectful": {}, "partial": {}}
	proofStatuses   = map[string]struct{}{"planned": {}, "partial": {}, "complete": {}}
)
