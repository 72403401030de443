package gate

import (
	"context"
	"fmt"

	"github.com/kingrea/roadmap-gate/internal/capability"
	"github.com/kingrea/roadmap-gate/internal/milestone"
	"github.com/kingrea/roadmap-gate/internal/obligation"
	"github.com/kingrea/roadmap-gate/internal/report"
)

// MilestoneOptions tune ValidateMilestones.
type MilestoneOptions struct {
	DAGOnly       bool
	ExtraEdges    []string
	IssuePatterns []string
}

// ValidateMilestones checks the milestone dependency graph. The returned
// error is structural (unreadable documents, duplicate ids, malformed
// edges); violations live in the report.
func ValidateMilestones(ctx context.Context, env *Env, opts MilestoneOptions) (*report.Report, error) {
	_, graph, err := env.loadGraph(ctx, opts.IssuePatterns, opts.ExtraEdges)
	if err != nil {
		return nil, err
	}
	result := milestone.Validate(graph, milestone.Options{DAGOnly: opts.DAGOnly})
	return &report.Report{Name: MilestoneChecks, Detail: result.Detail(), Violations: result.Violations}, nil
}

// RegistryOptions tune ValidateRegistry. Empty paths fall back to the
// configuration.
type RegistryOptions struct {
	Registry string
	Previous string
}

// ValidateRegistry checks a registry snapshot and, with a previous
// snapshot, the legality of every state change.
func ValidateRegistry(ctx context.Context, env *Env, opts RegistryOptions) (*report.Report, error) {
	cur, err := env.loadRegistry(env.path(opts.Registry, env.Config.RegistryPath()))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var prev *capability.Registry
	if previous := env.path(opts.Previous, env.Config.PreviousRegistryPath()); previous != "" {
		if prev, err = env.loadRegistry(previous); err != nil {
			return nil, err
		}
	}
	return &report.Report{Name: RegistryValidation, Violations: capability.Validate(cur, prev)}, nil
}

// ObligationOptions tune ValidateObligations.
type ObligationOptions struct {
	Registry    string
	Obligations string
}

// ValidateObligations checks the obligations table against the registry
// and the evidence on disk.
func ValidateObligations(ctx context.Context, env *Env, opts ObligationOptions) (*report.Report, error) {
	reg, err := env.loadRegistry(env.path(opts.Registry, env.Config.RegistryPath()))
	if err != nil {
		return nil, err
	}
	table, err := env.loadObligations(env.path(opts.Obligations, env.Config.ObligationsPath()))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ix, err := env.loadEvidence()
	if err != nil {
		return nil, err
	}
	violations := obligation.Check(reg, table, ix)
	detail := fmt.Sprintf("%d obligation entries, %d known theorems", len(table.Obligations), ix.TheoremCount())
	return &report.Report{Name: ObligationValidation, Detail: detail, Violations: violations}, nil
}
