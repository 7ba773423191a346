package runner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
)

// Comparison is the outcome of one strategy in Compare.
type Comparison struct {
	Solver domain.SolverType `json:"solver"`
	Result *domain.Result    `json:"result"`
}

// Compare solves an independent clone of col with each strategy concurrently.
// An empty kinds list compares every strategy. Results keep the order of kinds.
// Non-convergence is reported in each result; only solve errors fail the group.
func (r *Runner) Compare(ctx context.Context, col *column.Column, kinds ...domain.SolverType) ([]Comparison, error) {
	if len(kinds) == 0 {
		kinds = domain.SolverTypes
	}

	out := make([]Comparison, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		clone := col.Clone()
		g.Go(func() error {
			res, err := r.Run(gctx, clone, kind)
			if err != nil {
				return fmt.Errorf("%s: %w", kind, err)
			}
			out[i] = Comparison{Solver: kind, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Best returns the converged comparison with the fewest iterations, breaking ties by
// elapsed time. ok is false when no strategy converged.
func Best(comparisons []Comparison) (best Comparison, ok bool) {
	for _, c := range comparisons {
		if c.Result == nil || !c.Result.Diagnostics.Converged {
			continue
		}
		if !ok || better(c.Result.Diagnostics, best.Result.Diagnostics) {
			best, ok = c, true
		}
	}
	return best, ok
}

func better(a, b domain.Diagnostics) bool {
	if a.Iterations != b.Iterations {
		return a.Iterations < b.Iterations
	}
	return a.Elapsed < b.Elapsed
}
