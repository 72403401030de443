// Package gate composes the milestone, capability, obligation and readiness
// checks into the runs exposed by the command line.
package gate

import (
	"context"

	"github.com/kingrea/roadmap-gate/internal/capability"
	"github.com/kingrea/roadmap-gate/internal/config"
	"github.com/kingrea/roadmap-gate/internal/evidence"
	"github.com/kingrea/roadmap-gate/internal/logging"
	"github.com/kingrea/roadmap-gate/internal/milestone"
	"github.com/kingrea/roadmap-gate/internal/obligation"
)

// Report names used in verdict lines.
const (
	MilestoneChecks      = "milestone dependency checks"
	RegistryValidation   = "capability registry validation"
	ObligationValidation = "capability obligation validation"
)

// Env carries the resolved configuration and diagnostics logger of a run.
type Env struct {
	Config *config.Config
	Log    *logging.Logger
}

// NewEnv builds an environment, substituting a discarding logger for nil.
func NewEnv(cfg *config.Config, log *logging.Logger) *Env {
	if log == nil {
		log = logging.Nop()
	}
	return &Env{Config: cfg, Log: log}
}

// path resolves a flag value against the root, falling back to the
// configured default.
func (e *Env) path(flagValue, fallback string) string {
	if flagValue != "" {
		return e.Config.ResolvePath(flagValue)
	}
	return fallback
}

// loadGraph discovers, parses and merges the issue documents.
func (e *Env) loadGraph(ctx context.Context, patterns, extraEdges []string) ([]milestone.Document, *milestone.Graph, error) {
	if len(patterns) == 0 {
		patterns = e.Config.IssuePatterns()
	}
	paths, err := milestone.Discover(e.Config.Root, patterns)
	if err != nil {
		return nil, nil, err
	}
	e.Log.Debugf("discovered %d issue documents", len(paths))
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	docs, err := milestone.ParseDocuments(paths)
	if err != nil {
		return nil, nil, err
	}
	for i := range docs {
		docs[i].Path = e.Config.Rel(docs[i].Path)
		for j := range docs[i].Milestones {
			docs[i].Milestones[j].Document = docs[i].Path
		}
	}
	graph, err := milestone.Build(docs, milestone.EdgeTable(e.Config.ExplicitEdges()), extraEdges)
	if err != nil {
		return nil, nil, err
	}
	e.Log.Printf("loaded %d milestones from %d documents (%d edges)", graph.Len(), len(docs), graph.Dependencies().EdgeCount())
	return docs, graph, nil
}

// loadRegistry reads a registry and labels it with its root-relative path.
func (e *Env) loadRegistry(path string) (*capability.Registry, error) {
	reg, err := capability.Load(path)
	if err != nil {
		return nil, err
	}
	reg.Path = e.Config.Rel(path)
	e.Log.Debugf("loaded %d capabilities from %s", len(reg.Capabilities), reg.Path)
	return reg, nil
}

// loadObligations reads an obligations table and labels it with its
// root-relative path.
func (e *Env) loadObligations(path string) (*obligation.Table, error) {
	table, err := obligation.Load(path)
	if err != nil {
		return nil, err
	}
	table.Path = e.Config.Rel(path)
	e.Log.Debugf("loaded %d obligation entries from %s", len(table.Obligations), table.Path)
	return table, nil
}

func (e *Env) loadEvidence() (*evidence.Index, error) {
	ix, err := evidence.BuildIndex(e.Config.Root, e.Config.TheoremDirs())
	if err != nil {
		return nil, err
	}
	e.Log.Debugf("indexed %d theorems from %d lean files", ix.TheoremCount(), ix.LeanFiles())
	return ix, nil
}
