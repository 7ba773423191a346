package column_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower/internal/testutils"
	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
)

func TestSolve_Scenario(t *testing.T) {
	col := testutils.NewScenarioColumn(t)
	res, err := column.Solve(col, domain.SolverDirect)
	require.NoError(t, err)

	d := res.Diagnostics
	require.True(t, d.Converged, "abort reason: %s", d.AbortReason)
	assert.False(t, d.Aborted)
	assert.Empty(t, d.AbortReason)
	assert.NotEmpty(t, d.RunID)
	assert.Equal(t, domain.SolverDirect, d.Solver)
	assert.Len(t, d.History, d.Iterations)
	assert.LessOrEqual(t, d.TemperatureResidual, 1e-4)

	assert.InDelta(t, 0.9975, res.Top.MoleFraction("methane"), 2e-3)
	assert.InDelta(t, 0.0675, res.Bottom.MoleFraction("methane"), 1e-2)
	assert.Greater(t, res.Bottom.MoleFraction("propane"), res.Top.MoleFraction("propane"))
	assert.InDelta(t, 28.6, res.Top.TotalFlow(), 1)

	require.Len(t, res.Stages, 7)
	for i := 1; i < len(res.Stages); i++ {
		assert.Less(t, res.Stages[i].Temperature, res.Stages[i-1].Temperature,
			"temperature falls toward the condenser (stage %d)", i)
	}
	assert.Equal(t, domain.StageReboiler, res.Stages[0].Kind)
	assert.InDelta(t, 2e5, res.Stages[0].Duty, 1e-6)
}

func TestSolve_StrategiesAgree(t *testing.T) {
	results := map[domain.SolverType]*domain.Result{}
	for _, kind := range domain.SolverTypes {
		t.Run(kind.String(), func(t *testing.T) {
			res, err := column.Solve(testutils.NewScenarioColumn(t), kind)
			require.NoError(t, err)
			require.True(t, res.Diagnostics.Converged, "abort reason: %s", res.Diagnostics.AbortReason)
			results[kind] = res
		})
	}

	direct := results[domain.SolverDirect]
	require.NotNil(t, direct)
	for kind, res := range results {
		for i := range testutils.Components {
			assert.InDelta(t, direct.Top.Composition()[i], res.Top.Composition()[i], 0.01,
				"%s top %s", kind, testutils.Components[i])
			assert.InDelta(t, direct.Bottom.Composition()[i], res.Bottom.Composition()[i], 0.01,
				"%s bottom %s", kind, testutils.Components[i])
		}
	}
}

func TestSolve_Conservation(t *testing.T) {
	for _, kind := range []domain.SolverType{domain.SolverDirect, domain.SolverInsideOut} {
		t.Run(kind.String(), func(t *testing.T) {
			col := testutils.NewScenarioColumn(t)
			res, err := column.Solve(col, kind)
			require.NoError(t, err)
			require.True(t, res.Diagnostics.Converged)
			cfg := col.Config()

			feed := col.TotalFeed()
			out := res.Top.TotalFlow() + res.Bottom.TotalFlow()
			assert.LessOrEqual(t, math.Abs(feed.TotalFlow()-out)/feed.TotalFlow(), cfg.MassTolerance)

			var duty, absDuty float64
			for _, s := range res.Stages {
				duty += s.Duty
				absDuty += math.Abs(s.Duty)
			}
			imbalance := math.Abs(feed.Enthalpy + duty - res.Top.Enthalpy - res.Bottom.Enthalpy)
			assert.LessOrEqual(t, imbalance/(math.Abs(feed.Enthalpy)+absDuty), cfg.EnergyTolerance)

			for name, v := range column.ComponentBalance(col) {
				assert.Less(t, math.Abs(v), 1e-2, "component %s", name)
			}
		})
	}
}

func TestSolve_HotFeedStrategiesAgree(t *testing.T) {
	solve := func(t *testing.T, kind domain.SolverType) *domain.Result {
		t.Helper()
		col, err := column.New(testutils.IdealFlasher(t), testutils.ScenarioConfig())
		require.NoError(t, err)
		hot := testutils.ScenarioFeed()
		hot.Temperature = 1500
		require.NoError(t, col.AddFeed(hot, testutils.ScenarioFeedStage))
		res, err := column.Solve(col, kind)
		require.NoError(t, err)
		require.True(t, res.Diagnostics.Converged, "%s abort reason: %s", kind, res.Diagnostics.AbortReason)
		return res
	}

	direct := solve(t, domain.SolverDirect)
	for _, kind := range domain.SolverTypes {
		t.Run(kind.String(), func(t *testing.T) {
			res := solve(t, kind)
			require.Len(t, res.Stages, len(direct.Stages))
			for i := range res.Stages {
				assert.InDelta(t, direct.Stages[i].Temperature, res.Stages[i].Temperature, 1,
					"stage %d above the temperature band is not clamped", i)
			}
			assert.Greater(t, res.Stages[testutils.ScenarioFeedStage+1].Temperature, column.DefaultMaxTemperature)
			assert.InDelta(t, direct.Top.TotalFlow(), res.Top.TotalFlow(), 0.1)
		})
	}
}

func TestSolve_MultipleFeeds(t *testing.T) {
	col := testutils.NewScenarioColumn(t)
	require.NoError(t, col.AddFeed(domain.NewStream("light", testutils.Components, []float64{10, 5, 5}, 250, 21), 2))
	require.NoError(t, col.AddFeed(domain.NewStream("heavy", testutils.Components, []float64{0, 10, 10}, 240, 20), 4))

	res, err := col.Run()
	require.NoError(t, err)
	require.True(t, res.Diagnostics.Converged, "abort reason: %s", res.Diagnostics.AbortReason)
	assert.Equal(t, []int{2, 3, 4}, col.FeedStages())
	assert.InDelta(t, 140, res.Top.TotalFlow()+res.Bottom.TotalFlow(), 0.05)
}

func TestSolve_Idempotent(t *testing.T) {
	for _, kind := range domain.SolverTypes {
		t.Run(kind.String(), func(t *testing.T) {
			col := testutils.NewScenarioColumn(t)
			first, err := column.Solve(col, kind)
			require.NoError(t, err)
			require.True(t, first.Diagnostics.Converged)
			before := col.Temperatures()

			second, err := column.Solve(col, kind)
			require.NoError(t, err)
			assert.True(t, second.Diagnostics.Converged)
			assert.LessOrEqual(t, second.Diagnostics.Iterations, 3)
			assert.NotEqual(t, first.Diagnostics.RunID, second.Diagnostics.RunID)

			after := col.Temperatures()
			var change float64
			for i := range before {
				change += math.Abs(after[i] - before[i])
			}
			assert.LessOrEqual(t, change/float64(len(before)), col.Config().TemperatureTolerance)
		})
	}
}

func TestSolve_SingleStage(t *testing.T) {
	cfg := testutils.ScenarioConfig()
	cfg.Trays, cfg.HasReboiler, cfg.HasCondenser = 1, false, false
	cfg.Reboiler, cfg.Condenser = column.StageSpec{}, column.StageSpec{}
	cfg.BottomPressure, cfg.TopPressure = 20, 20
	flasher := testutils.IdealFlasher(t)

	col, err := column.New(flasher, cfg)
	require.NoError(t, err)
	require.NoError(t, col.AddFeed(testutils.ScenarioFeed(), 0))

	res, err := col.Run()
	require.NoError(t, err)
	assert.True(t, res.Diagnostics.Converged)
	assert.Equal(t, 1, res.Diagnostics.Iterations)

	eq, err := flasher.Equilibrate(col.TotalFeed(), domain.PH(20, col.TotalFeed().Enthalpy, 230))
	require.NoError(t, err)
	assert.InDelta(t, 230, res.Stages[0].Temperature, 1e-3)
	assert.InDelta(t, eq.Vapor.TotalFlow(), res.Top.TotalFlow(), 1e-6)
	assert.InDelta(t, eq.Liquid.TotalFlow(), res.Bottom.TotalFlow(), 1e-6)
	assert.InDelta(t, 27.506, res.Top.TotalFlow(), 1e-2)
}

func TestSolve_DefaultTolerances(t *testing.T) {
	cfg := testutils.ScenarioConfig()
	defaults := column.DefaultConfig()
	cfg.TemperatureTolerance = defaults.TemperatureTolerance
	cfg.MassTolerance = defaults.MassTolerance
	cfg.EnergyTolerance = defaults.EnergyTolerance
	cfg.MaxIterations = defaults.MaxIterations

	for _, kind := range domain.SolverTypes {
		t.Run(kind.String(), func(t *testing.T) {
			col, err := column.New(testutils.IdealFlasher(t), cfg)
			require.NoError(t, err)
			require.NoError(t, col.AddFeed(testutils.ScenarioFeed(), testutils.ScenarioFeedStage))

			res, err := column.Solve(col, kind)
			require.NoError(t, err)
			assert.True(t, res.Diagnostics.Converged, "abort reason: %s", res.Diagnostics.AbortReason)
			assert.InDelta(t, 0.9975, res.Top.MoleFraction("methane"), 5e-3)
		})
	}
}

func TestSolve_LifecycleHooks(t *testing.T) {
	var starts, ends, iterations int
	var last *domain.Diagnostics
	hooks := domain.LifecycleHooks{
		OnSolveStart: func(e *domain.SolveEvent) {
			starts++
			assert.Equal(t, domain.EventSolveStart, e.Type)
			assert.Equal(t, 7, e.Stages)
			assert.Nil(t, e.Diagnostics)
		},
		OnIteration: func(e *domain.IterationEvent) {
			iterations++
			assert.Equal(t, iterations, e.Record.Iteration)
			assert.Equal(t, "depropanizer", e.Column)
		},
		OnSolveEnd: func(e *domain.SolveEvent) {
			ends++
			last = e.Diagnostics
		},
	}
	col := testutils.NewScenarioColumn(t, column.WithLifecycleHooks(hooks))
	res, err := col.Run()
	require.NoError(t, err)

	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	assert.Equal(t, res.Diagnostics.Iterations, iterations)
	require.NotNil(t, last)
	assert.Equal(t, res.Diagnostics.RunID, last.RunID)
}
