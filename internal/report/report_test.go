package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/roadmap-gate/internal/readiness"
)

func TestSummary(t *testing.T) {
	passed := &Report{Name: "milestone dependency checks", Detail: "dag-only, 4 milestones"}
	assert.True(t, passed.IsValid())
	assert.Equal(t, "milestone dependency checks passed (dag-only, 4 milestones)", passed.Summary())

	bare := &Report{Name: "capability registry validation"}
	assert.Equal(t, "capability registry validation passed", bare.Summary())

	failed := &Report{Name: "capability registry validation", Violations: []error{errors.New("a"), errors.New("b")}}
	assert.False(t, failed.IsValid())
	assert.Equal(t, []string{"a", "b", "capability registry validation failed with 2 error(s)"}, failed.Lines())
}

func TestPrintIsPlainWhenNotATerminal(t *testing.T) {
	var colored, plain bytes.Buffer
	r := &Report{Name: "checks", Violations: []error{errors.New("dependency cycle detected: A -> B -> A")}}
	require.NoError(t, NewPrinter(&colored, true).Print(r))
	require.NoError(t, NewPrinter(&plain, false).Print(r))
	assert.Equal(t, "dependency cycle detected: A -> B -> A\nchecks failed with 1 error(s)\n", plain.String())
	assert.Equal(t, plain.String(), colored.String())
}

func TestPrintProgram(t *testing.T) {
	rows := []readiness.DimensionRow{
		readiness.Classify("milestone_dag_closure", []readiness.Check{{Name: "acyclic", Passed: true}}, true),
		readiness.Classify("program_p0_issue_closure", []readiness.Check{{Name: "ISSUE-1", Passed: false, Diagnostic: "ISSUE-1 has 2 open milestones"}}, true),
	}
	program := readiness.Aggregate([]string{"milestone_dag_closure", "program_p0_issue_closure"}, rows)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).PrintProgram(program))
	assert.Equal(t, "milestone_dag_closure: ready\n"+
		"program_p0_issue_closure: not_ready\n"+
		"mandatory dimension not ready: program_p0_issue_closure=not_ready\n"+
		"program_p0_issue_closure: ISSUE-1 has 2 open milestones\n"+
		"program readiness: BLOCKED (1/2 mandatory dimensions ready)\n", buf.String())
}
