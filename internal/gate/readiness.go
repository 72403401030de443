package gate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kingrea/roadmap-gate/internal/artifact"
	"github.com/kingrea/roadmap-gate/internal/capability"
	"github.com/kingrea/roadmap-gate/internal/milestone"
	"github.com/kingrea/roadmap-gate/internal/obligation"
	"github.com/kingrea/roadmap-gate/internal/readiness"
)

// ReadinessOptions tune EvaluateReadiness.
type ReadinessOptions struct {
	// Checks names an external checks file; empty uses the configuration.
	Checks string
	// Previous names the previous registry for transition closure.
	Previous string
	// Out is where the certificate is written; empty writes nothing.
	Out string
}

// ReadinessResult is the outcome of a readiness run.
type ReadinessResult struct {
	Program      readiness.Program
	Certificate  *artifact.Certificate
	MarkdownPath string
}

// EvaluateReadiness classifies every built-in dimension plus the dimensions
// of the checks file and aggregates them against the mandatory set. Inputs
// that cannot be located turn their dimensions missing instead of failing
// the run.
func EvaluateReadiness(ctx context.Context, env *Env, opts ReadinessOptions) (*ReadinessResult, error) {
	var (
		rows   []readiness.DimensionRow
		inputs []string
	)
	milestoneRows, docPaths := env.milestoneRows(ctx)
	rows = append(rows, milestoneRows...)
	inputs = append(inputs, docPaths...)

	capabilityRows, capabilityInputs := env.capabilityRows(opts.Previous)
	rows = append(rows, capabilityRows...)
	inputs = append(inputs, capabilityInputs...)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if checksPath := env.path(opts.Checks, env.Config.ChecksPath()); checksPath != "" {
		file, err := readiness.LoadChecks(checksPath)
		if err != nil {
			return nil, err
		}
		declared := map[string]struct{}{}
		for _, row := range rows {
			declared[row.ID] = struct{}{}
		}
		for _, row := range file.Rows() {
			if _, dup := declared[row.ID]; dup {
				return nil, fmt.Errorf("gate: checks file %s redefines built-in dimension %q", env.Config.Rel(checksPath), row.ID)
			}
			rows = append(rows, row)
		}
		inputs = append(inputs, env.Config.Rel(checksPath))
	}

	program := readiness.Aggregate(env.Config.MandatoryDimensions(), rows)
	env.Log.Printf("readiness %s: %d/%d mandatory dimensions ready", program.Result, program.ReadyDimensions, program.TargetDimensions)
	result := &ReadinessResult{Program: program}
	if opts.Out == "" {
		return result, nil
	}

	digests, err := env.digest(inputs)
	if err != nil {
		return nil, err
	}
	cert, err := artifact.NewCertificate(program, digests)
	if err != nil {
		return nil, err
	}
	out := env.Config.ResolvePath(opts.Out)
	mdPath, err := artifact.WriteCertificate(out, cert)
	if err != nil {
		return nil, err
	}
	env.Log.Printf("wrote certificate %s", env.Config.Rel(out))
	result.Certificate = &cert
	result.MarkdownPath = mdPath
	return result, nil
}

func (e *Env) milestoneRows(ctx context.Context) ([]readiness.DimensionRow, []string) {
	docs, graph, err := e.loadGraph(ctx, nil, nil)
	if err != nil {
		e.Log.Warnf("milestone inputs unavailable: %v", err)
		return []readiness.DimensionRow{
			readiness.MissingRow(readiness.MilestoneDAGClosure, err.Error()),
			readiness.MissingRow(readiness.MilestoneStatusClosure, err.Error()),
			readiness.MissingRow(readiness.ProgramP0IssueClosure, err.Error()),
		}, nil
	}

	nodeErrs := milestone.CheckNodes(graph)
	cycleErrs := milestone.CheckAcyclic(graph)
	dagRow := readiness.Classify(readiness.MilestoneDAGClosure, []readiness.Check{
		{Name: "milestone_references_known", Passed: len(nodeErrs) == 0, Diagnostic: summarize(nodeErrs)},
		{Name: "dependency_graph_acyclic", Passed: len(cycleErrs) == 0, Diagnostic: summarize(cycleErrs)},
	}, true)

	statusCheck := readiness.Check{
		Name:       "done_dependencies_done",
		Diagnostic: "status pass skipped: dependency graph is not structurally valid",
	}
	if len(nodeErrs) == 0 && len(cycleErrs) == 0 {
		statusErrs := milestone.CheckStatus(graph)
		statusCheck.Passed = len(statusErrs) == 0
		statusCheck.Diagnostic = summarize(statusErrs)
	}
	statusRow := readiness.Classify(readiness.MilestoneStatusClosure, []readiness.Check{statusCheck}, true)

	var p0Checks []readiness.Check
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		paths = append(paths, doc.Path)
		if !doc.IsP0() {
			continue
		}
		p0Checks = append(p0Checks, p0Check(doc))
	}
	p0Row := readiness.Classify(readiness.ProgramP0IssueClosure, p0Checks, true)
	return []readiness.DimensionRow{dagRow, statusRow, p0Row}, paths
}

func p0Check(doc milestone.Document) readiness.Check {
	name := doc.Meta.Issue
	if name == "" {
		name = doc.Path
	}
	open := 0
	for _, m := range doc.Milestones {
		if !m.Status.Done {
			open++
		}
	}
	check := readiness.Check{Name: name, Passed: open == 0 && len(doc.Milestones) > 0}
	switch {
	case len(doc.Milestones) == 0:
		check.Diagnostic = fmt.Sprintf("%s: declares no milestones", name)
	case open > 0:
		check.Diagnostic = fmt.Sprintf("%s: %d of %d milestones not done", name, open, len(doc.Milestones))
	}
	return check
}

func (e *Env) capabilityRows(previousFlag string) ([]readiness.DimensionRow, []string) {
	registryPath := e.Config.RegistryPath()
	reg, err := e.loadRegistry(registryPath)
	if err != nil {
		e.Log.Warnf("capability registry unavailable: %v", err)
		return []readiness.DimensionRow{
			readiness.MissingRow(readiness.CapabilityRegistryClosure, err.Error()),
			readiness.MissingRow(readiness.CapabilityTransitionClosure, err.Error()),
			readiness.MissingRow(readiness.CapabilityObligationClosure, err.Error()),
		}, nil
	}
	inputs := []string{reg.Path}

	snapshotErrs := capability.ValidateSnapshot(reg)
	checks := []readiness.Check{{Name: "registry_schema_valid", Passed: len(snapshotErrs) == 0, Diagnostic: summarize(snapshotErrs)}}
	checks = append(checks, familyChecks(reg)...)
	rows := []readiness.DimensionRow{readiness.Classify(readiness.CapabilityRegistryClosure, checks, true)}

	transitionRow, previousInput := e.transitionRow(reg, previousFlag)
	rows = append(rows, transitionRow)
	if previousInput != "" {
		inputs = append(inputs, previousInput)
	}

	obligationRow, obligationInput := e.obligationRow(reg)
	rows = append(rows, obligationRow)
	if obligationInput != "" {
		inputs = append(inputs, obligationInput)
	}
	return rows, inputs
}

func familyChecks(reg *capability.Registry) []readiness.Check {
	type tally struct{ total, open int }
	families := map[capability.FamilyGroup]*tally{}
	for _, c := range reg.Capabilities {
		if !c.FamilyGroup.Valid() {
			continue
		}
		t, ok := families[c.FamilyGroup]
		if !ok {
			t = &tally{}
			families[c.FamilyGroup] = t
		}
		t.total++
		if c.SupportState == nil || c.SupportState.Overall != capability.Implemented.String() {
			t.open++
		}
	}
	names := make([]string, 0, len(families))
	for family := range families {
		names = append(names, string(family))
	}
	sort.Strings(names)

	checks := make([]readiness.Check, 0, len(names))
	for _, name := range names {
		t := families[capability.FamilyGroup(name)]
		check := readiness.Check{Name: "family_" + name + "_implemented", Passed: t.open == 0}
		if t.open > 0 {
			check.Diagnostic = fmt.Sprintf("family %s: %d of %d capabilities not implemented", name, t.open, t.total)
		}
		checks = append(checks, check)
	}
	return checks
}

func (e *Env) transitionRow(cur *capability.Registry, previousFlag string) (readiness.DimensionRow, string) {
	previousPath := e.path(previousFlag, e.Config.PreviousRegistryPath())
	if previousPath == "" {
		return readiness.MissingRow(readiness.CapabilityTransitionClosure, "no previous registry configured"), ""
	}
	prev, err := e.loadRegistry(previousPath)
	if err != nil {
		return readiness.MissingRow(readiness.CapabilityTransitionClosure, err.Error()), ""
	}
	prevErrs := capability.ValidateSnapshot(prev)
	transitionCheck := readiness.Check{
		Name:       "transitions_legal",
		Diagnostic: "transition pass skipped: previous registry is invalid",
	}
	if len(prevErrs) == 0 {
		transitionErrs := capability.ValidateTransitions(prev, cur)
		transitionCheck.Passed = len(transitionErrs) == 0
		transitionCheck.Diagnostic = summarize(transitionErrs)
	}
	return readiness.Classify(readiness.CapabilityTransitionClosure, []readiness.Check{
		{Name: "previous_registry_valid", Passed: len(prevErrs) == 0, Diagnostic: summarize(prevErrs)},
		transitionCheck,
	}, true), prev.Path
}

func (e *Env) obligationRow(reg *capability.Registry) (readiness.DimensionRow, string) {
	table, err := e.loadObligations(e.Config.ObligationsPath())
	if err != nil {
		return readiness.MissingRow(readiness.CapabilityObligationClosure, err.Error()), ""
	}
	ix, err := e.loadEvidence()
	if err != nil {
		return readiness.MissingRow(readiness.CapabilityObligationClosure, err.Error()), table.Path
	}
	var coverage, structural []error
	for _, violation := range obligation.Check(reg, table, ix) {
		var missing *obligation.MissingObligationError
		var unsatisfied *obligation.UnsatisfiedStateError
		if errors.As(violation, &missing) || errors.As(violation, &unsatisfied) {
			coverage = append(coverage, violation)
			continue
		}
		structural = append(structural, violation)
	}
	return readiness.Classify(readiness.CapabilityObligationClosure, []readiness.Check{
		{Name: "obligation_table_valid", Passed: len(structural) == 0, Diagnostic: summarize(structural)},
		{Name: "implemented_capabilities_covered", Passed: len(coverage) == 0, Diagnostic: summarize(coverage)},
	}, true), table.Path
}

// digest hashes the inputs in path order, once each.
func (e *Env) digest(paths []string) ([]artifact.Input, error) {
	sorted := append([]string{}, paths...)
	sort.Strings(sorted)
	var out []artifact.Input
	for i, path := range sorted {
		if i > 0 && sorted[i-1] == path {
			continue
		}
		input, err := artifact.Digest(e.Config.Root, path)
		if err != nil {
			return nil, err
		}
		out = append(out, input)
	}
	return out, nil
}

// summarize condenses a violation list into one diagnostic.
func summarize(errs []error) string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return errs[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", errs[0].Error(), len(errs)-1)
	}
}
