package gate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kingrea/roadmap-gate/internal/report"
)

// CheckAllOptions bundle the options of the three validators.
type CheckAllOptions struct {
	Milestones  MilestoneOptions
	Registry    RegistryOptions
	Obligations ObligationOptions
}

// CheckAll runs the milestone, registry and obligation validators
// concurrently. Reports come back in that fixed order whatever the
// completion order, so output matches a sequential run byte for byte.
func CheckAll(ctx context.Context, env *Env, opts CheckAllOptions) ([]*report.Report, error) {
	reports := make([]*report.Report, 3)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := ValidateMilestones(ctx, env, opts.Milestones)
		reports[0] = r
		return err
	})
	g.Go(func() error {
		r, err := ValidateRegistry(ctx, env, opts.Registry)
		reports[1] = r
		return err
	})
	g.Go(func() error {
		r, err := ValidateObligations(ctx, env, opts.Obligations)
		reports[2] = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
