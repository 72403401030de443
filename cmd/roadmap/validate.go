package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/roadmap-gate/internal/gate"
)

func (a *app) validateMilestonesCmd() *cobra.Command {
	var opts gate.MilestoneOptions
	cmd := &cobra.Command{
		Use:   "validate-milestones",
		Short: "Check milestone dependencies for unknown ids, cycles and status order",
		Long: `Builds the milestone dependency graph from the issue documents (sequential
edges within a document, the configured explicit edges and any --extra-edge)
and reports unknown milestone references, every dependency cycle and, unless
--validate-dag is set, done milestones whose dependencies are not done.`,
		Example: `  roadmap validate-milestones
  roadmap validate-milestones --validate-dag --extra-edge M-02-1:M-01-4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := gate.ValidateMilestones(cmd.Context(), a.env, opts)
			if err != nil {
				return err
			}
			return a.print(r)
		},
	}
	cmd.Flags().BoolVar(&opts.DAGOnly, "validate-dag", false, "Only check node existence and acyclicity")
	cmd.Flags().StringArrayVar(&opts.ExtraEdges, "extra-edge", nil, "Additional CHILD:PARENT dependency edge (repeatable)")
	cmd.Flags().StringArrayVar(&opts.IssuePatterns, "issues", nil, "Glob locating issue documents, relative to --root (repeatable)")
	return cmd
}

func (a *app) validateRegistryCmd() *cobra.Command {
	var opts gate.RegistryOptions
	cmd := &cobra.Command{
		Use:   "validate-capability-registry",
		Short: "Check capability support states and their transitions",
		Long: `Validates one capability registry snapshot. With --previous, the previous
snapshot is validated as well and every capability must only have moved
forward along planned < fail_fast < implemented; removed capabilities are
reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := gate.ValidateRegistry(cmd.Context(), a.env, opts)
			if err != nil {
				return err
			}
			return a.print(r)
		},
	}
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Registry JSON (default from config)")
	cmd.Flags().StringVar(&opts.Previous, "previous", "", "Previous registry JSON to check transitions against")
	return cmd
}

func (a *app) validateObligationsCmd() *cobra.Command {
	var opts gate.ObligationOptions
	cmd := &cobra.Command{
		Use:   "validate-obligations",
		Short: "Check that implemented capabilities carry their evidence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := gate.ValidateObligations(cmd.Context(), a.env, opts)
			if err != nil {
				return err
			}
			return a.print(r)
		},
	}
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Registry JSON (default from config)")
	cmd.Flags().StringVar(&opts.Obligations, "obligations", "", "Obligations JSON (default from config)")
	return cmd
}

func (a *app) checkAllCmd() *cobra.Command {
	var (
		opts     gate.CheckAllOptions
		watch    bool
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "check-all",
		Short: "Run the milestone, registry and obligation checks together",
		Long: `Runs the three validators concurrently and prints their reports in a fixed
order, so the output matches running them one after another. With --watch the
checks rerun whenever an issue document, registry, obligations table or Lean
source changes, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				reports, err := gate.CheckAll(cmd.Context(), a.env, opts)
				if err != nil {
					return err
				}
				return a.print(reports...)
			}
			runs := 0
			return gate.Watch(cmd.Context(), a.env, a.env.WatchDirs(), debounce, func(ctx context.Context) error {
				reports, err := gate.CheckAll(ctx, a.env, opts)
				if err != nil {
					return err
				}
				runs++
				fmt.Fprintf(a.stdout, "== check-all run %d ==\n", runs)
				if err := a.print(reports...); err != nil && !errors.Is(err, errChecksFailed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&opts.Milestones.DAGOnly, "validate-dag", false, "Skip the milestone status pass")
	cmd.Flags().StringArrayVar(&opts.Milestones.ExtraEdges, "extra-edge", nil, "Additional CHILD:PARENT dependency edge (repeatable)")
	cmd.Flags().StringVar(&opts.Registry.Previous, "previous", "", "Previous registry JSON to check transitions against")
	cmd.Flags().BoolVar(&watch, "watch", false, "Rerun the checks whenever an input changes")
	cmd.Flags().DurationVar(&debounce, "debounce", gate.DefaultDebounce, "Quiet period before a rerun in --watch mode")
	return cmd
}
