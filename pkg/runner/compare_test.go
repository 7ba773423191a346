package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower/internal/testutils"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/runner"
)

func TestCompare_AllStrategies(t *testing.T) {
	col := testutils.NewScenarioColumn(t)
	r := runner.NewRunner(runner.WithConcurrency(2))

	out, err := r.Compare(context.Background(), col)
	require.NoError(t, err)
	require.Len(t, out, len(domain.SolverTypes))

	for i, c := range out {
		assert.Equal(t, domain.SolverTypes[i], c.Solver, "order follows the requested kinds")
		require.NotNil(t, c.Result)
		assert.True(t, c.Result.Diagnostics.Converged, "%s: %s", c.Solver, c.Result.Diagnostics.AbortReason)
		assert.InDelta(t, 0.9975, c.Result.Top.MoleFraction("methane"), 5e-3)
	}
	assert.False(t, col.Initialized(), "strategies run on clones")

	best, ok := runner.Best(out)
	require.True(t, ok)
	for _, c := range out {
		assert.LessOrEqual(t, best.Result.Diagnostics.Iterations, c.Result.Diagnostics.Iterations)
	}
}

func TestCompare_Subset(t *testing.T) {
	out, err := runner.NewRunner().Compare(context.Background(), testutils.NewScenarioColumn(t),
		domain.SolverInsideOut, domain.SolverBroyden)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.SolverInsideOut, out[0].Solver)
	assert.Equal(t, domain.SolverBroyden, out[1].Solver)
}

func TestCompare_UnknownSolver(t *testing.T) {
	_, err := runner.NewRunner().Compare(context.Background(), testutils.NewScenarioColumn(t), domain.SolverType(42))
	assert.ErrorIs(t, err, domain.ErrUnknownSolver)
}

func TestBest(t *testing.T) {
	res := func(converged bool, iterations int, elapsed time.Duration) *domain.Result {
		return &domain.Result{Diagnostics: domain.Diagnostics{Converged: converged, Iterations: iterations, Elapsed: elapsed}}
	}

	_, ok := runner.Best([]runner.Comparison{{Solver: domain.SolverDirect, Result: res(false, 3, 0)}})
	assert.False(t, ok)

	best, ok := runner.Best([]runner.Comparison{
		{Solver: domain.SolverDirect, Result: res(true, 20, time.Second)},
		{Solver: domain.SolverDamped, Result: res(false, 5, time.Millisecond)},
		{Solver: domain.SolverBroyden, Result: res(true, 12, 3 * time.Second)},
		{Solver: domain.SolverInsideOut, Result: res(true, 12, time.Second)},
	})
	require.True(t, ok)
	assert.Equal(t, domain.SolverInsideOut, best.Solver)
}
