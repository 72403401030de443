package readiness

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in dimensions derived from the milestone, capability and obligation
// checks.
const (
	MilestoneDAGClosure         = "milestone_dag_closure"
	MilestoneStatusClosure      = "milestone_status_closure"
	CapabilityRegistryClosure   = "capability_registry_closure"
	CapabilityTransitionClosure = "capability_transition_closure"
	CapabilityObligationClosure = "capability_obligation_closure"
	ProgramP0IssueClosure       = "program_p0_issue_closure"
)

// DefaultMandatory lists the dimensions gating a release when the project
// configuration names none. Transition closure needs a previous registry
// and is therefore opt-in.
var DefaultMandatory = []string{
	MilestoneDAGClosure,
	MilestoneStatusClosure,
	CapabilityRegistryClosure,
	CapabilityObligationClosure,
	ProgramP0IssueClosure,
}

// ChecksFile declares externally evaluated dimensions.
type ChecksFile struct {
	Dimensions []DeclaredDimension `yaml:"dimensions"`
}

// DeclaredDimension is one dimension of a checks file. Checks is nil when
// the file declares the dimension without any evidence.
type DeclaredDimension struct {
	ID     string   `yaml:"id"`
	Checks *[]Check `yaml:"checks"`
}

// LoadChecks reads a YAML (or JSON) checks file.
func LoadChecks(path string) (*ChecksFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("readiness: read checks: %w", err)
	}
	var file ChecksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("readiness: parse %s: %w", path, err)
	}
	seen := map[string]struct{}{}
	for i := range file.Dimensions {
		id := strings.TrimSpace(file.Dimensions[i].ID)
		if id == "" {
			return nil, fmt.Errorf("readiness: %s: dimensions[%d].id is required", path, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("readiness: %s: duplicate dimension %q", path, id)
		}
		seen[id] = struct{}{}
		file.Dimensions[i].ID = id
	}
	return &file, nil
}

// Rows classifies every declared dimension in file order.
func (f *ChecksFile) Rows() []DimensionRow {
	rows := make([]DimensionRow, 0, len(f.Dimensions))
	for _, dim := range f.Dimensions {
		if dim.Checks == nil {
			rows = append(rows, MissingRow(dim.ID, "no checks declared"))
			continue
		}
		rows = append(rows, Classify(dim.ID, *dim.Checks, true))
	}
	return rows
}
