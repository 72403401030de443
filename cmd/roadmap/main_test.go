package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func fixtureRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "roadmap/executable-issues/core.issue.md", "---\nissue: CORE\npriority: p0\n---\n# Core\n\n### M-01-1\n- Status: DONE - 1234567\n\n### M-01-2\n- Status: DONE - abcdef0\n")
	writeFile(t, root, "roadmap/executable-issues/next.issue.md", "### M-02-1\n- Status: NOT DONE\n")
	writeFile(t, root, "roadmap/capabilities/registry.json", `{"version":1,"capabilities":[
 {"capability_id":"cap.felt.add","family_group":"field","support_state":{"sierra":"implemented","cairo":"implemented","overall":"implemented"}}
]}`)
	writeFile(t, root, "roadmap/capabilities/obligations.json", `{"version":1,"obligations":[
 {"capability_id":"cap.felt.add","required_for_states":["implemented"],"proof_refs":["felt_add_sound"],"test_refs":["tests/felt.sh"],"benchmark_refs":["bench/felt.sh"]}
]}`)
	writeFile(t, root, "src/LeanCairo/Compiler/Semantics/Felt.lean", "theorem felt_add_sound : True := trivial\n")
	writeFile(t, root, "tests/felt.sh", "#!/bin/sh\n")
	writeFile(t, root, "bench/felt.sh", "#!/bin/sh\n")
	return root
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestValidateMilestonesCommand(t *testing.T) {
	root := fixtureRepo(t)

	code, out, _ := execute(t, "--root", root, "validate-milestones")
	assert.Equal(t, 0, code)
	assert.Equal(t, "milestone dependency checks passed (dag+status, 3 milestones)\n", out)

	code, out, _ = execute(t, "--root", root, "validate-milestones", "--validate-dag")
	assert.Equal(t, 0, code)
	assert.Equal(t, "milestone dependency checks passed (dag-only, 3 milestones)\n", out)

	code, out, _ = execute(t, "--root", root, "validate-milestones", "--extra-edge", "M-01-1:M-02-1")
	assert.Equal(t, 1, code)
	assert.Equal(t, "dependency violation: milestone 'M-01-1' is done but dependency 'M-02-1' is NOT DONE\n"+
		"milestone dependency checks failed with 1 error(s)\n", out)

	code, out, _ = execute(t, "--root", root, "validate-milestones",
		"--extra-edge", "M-01-1:M-01-2", "--extra-edge", "M-02-1:M-09-9")
	assert.Equal(t, 1, code)
	assert.Equal(t, "dependency graph references unknown parent milestone 'M-09-9' (child 'M-02-1')\n"+
		"dependency cycle detected: M-01-1 -> M-01-2 -> M-01-1\n"+
		"milestone dependency checks failed with 2 error(s)\n", out)
}

type syncWriter struct {
	bytes.Buffer
	syncs int
}

func (w *syncWriter) Sync() error {
	w.syncs++
	return nil
}

func TestRunFlushesLoggerWhenChecksFail(t *testing.T) {
	root := fixtureRepo(t)
	var stdout bytes.Buffer
	stderr := &syncWriter{}

	code := run(context.Background(), []string{"--root", root, "validate-milestones", "--extra-edge", "M-01-1:M-02-1"}, &stdout, stderr)
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, stderr.syncs)

	stderr = &syncWriter{}
	code = run(context.Background(), []string{"--root", root, "validate-milestones"}, &stdout, stderr)
	assert.Equal(t, 0, code)
	assert.Equal(t, 1, stderr.syncs)
}

func TestStructuralErrorGoesToStderr(t *testing.T) {
	root := fixtureRepo(t)
	code, out, errOut := execute(t, "--root", root, "validate-milestones", "--extra-edge", "M-01-1")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Equal(t, "error: invalid --extra-edge 'M-01-1' (expected CHILD:PARENT)\n", errOut)

	code, _, errOut = execute(t, "--root", root, "--config", "missing.yaml", "check-all")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "config: read")
}

func TestValidateRegistryCommand(t *testing.T) {
	root := fixtureRepo(t)
	writeFile(t, root, "prev.json", `{"version":1,"capabilities":[
 {"capability_id":"cap.felt.add","family_group":"field","support_state":{"sierra":"implemented","cairo":"implemented","overall":"implemented"}},
 {"capability_id":"cap.felt.mul","family_group":"field","support_state":{"sierra":"planned","cairo":"planned","overall":"planned"}}
]}`)

	code, out, _ := execute(t, "--root", root, "validate-capability-registry")
	assert.Equal(t, 0, code)
	assert.Equal(t, "capability registry validation passed\n", out)

	code, out, _ = execute(t, "--root", root, "validate-capability-registry", "--previous", "prev.json")
	assert.Equal(t, 1, code)
	assert.Equal(t, "transition: capability removed without migration policy: cap.felt.mul\n"+
		"capability registry validation failed with 1 error(s)\n", out)
}

func TestValidateObligationsCommand(t *testing.T) {
	root := fixtureRepo(t)
	code, out, _ := execute(t, "--root", root, "validate-obligations")
	assert.Equal(t, 0, code)
	assert.Equal(t, "capability obligation validation passed (1 obligation entries, 1 known theorems)\n", out)

	writeFile(t, root, "roadmap/capabilities/obligations.json", `{"version":1,"obligations":[
 {"capability_id":"cap.felt.add","required_for_states":["fail_fast"],"proof_refs":[],"test_refs":["tests/felt.sh"],"benchmark_refs":[]}
]}`)
	code, out, _ = execute(t, "--root", root, "validate-obligations")
	assert.Equal(t, 1, code)
	assert.Equal(t, "obligation entry for capability 'cap.felt.add' does not cover required state 'implemented'\n"+
		"capability obligation validation failed with 1 error(s)\n", out)
}

func TestCheckAllCommand(t *testing.T) {
	root := fixtureRepo(t)
	code, out, _ := execute(t, "--root", root, "check-all")
	assert.Equal(t, 0, code)
	assert.Equal(t, "milestone dependency checks passed (dag+status, 3 milestones)\n"+
		"capability registry validation passed\n"+
		"capability obligation validation passed (1 obligation entries, 1 known theorems)\n", out)
}

func TestReadinessCommand(t *testing.T) {
	root := fixtureRepo(t)
	code, out, _ := execute(t, "--root", root, "readiness")
	assert.Equal(t, 0, code)
	assert.Equal(t, strings.Join([]string{
		"milestone_dag_closure: ready",
		"milestone_status_closure: ready",
		"program_p0_issue_closure: ready",
		"capability_registry_closure: ready",
		"capability_transition_closure: missing",
		"capability_obligation_closure: ready",
		"program readiness: PASS (5/5 mandatory dimensions ready)",
	}, "\n")+"\n", out)

	writeFile(t, root, "roadmap.yaml", "version: 1\nreadiness:\n  mandatory_dimensions: [milestone_dag_closure, track_b_bench_closure]\n  certificate: out/cert.json\n")
	code, out, _ = execute(t, "--root", root, "readiness", "--json", "--write")
	assert.Equal(t, 1, code)

	var program struct {
		Result          string   `json:"result"`
		BlockingReasons []string `json:"blocking_reasons"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &program))
	assert.Equal(t, "BLOCKED", program.Result)
	assert.Equal(t, []string{"mandatory dimension not ready: track_b_bench_closure=missing"}, program.BlockingReasons)

	first, err := os.ReadFile(filepath.Join(root, "out/cert.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "out/cert.md"))
	require.NoError(t, err)

	execute(t, "--root", root, "readiness", "--write")
	second, err := os.ReadFile(filepath.Join(root, "out/cert.json"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "certificate must be byte-identical across runs")
}

func TestVersionSkipsConfig(t *testing.T) {
	code, out, _ := execute(t, "--config", "does-not-exist.yaml", "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "roadmap dev\n", out)
}
