package tower_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower"
	"github.com/aretw0/tower/internal/testutils"
	"github.com/aretw0/tower/pkg/adapters/file"
	"github.com/aretw0/tower/pkg/adapters/memory"
	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
)

func newEngine(t *testing.T, opts ...tower.Option) *tower.Engine {
	t.Helper()
	loader := memory.NewLoader(map[string]map[string]any{
		"depropanizer": testutils.ScenarioDefinition(),
	})
	eng, err := tower.New("", append([]tower.Option{tower.WithLoader(loader)}, opts...)...)
	require.NoError(t, err)
	return eng
}

func TestEngine_SolveNamed(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	res, err := eng.SolveNamed(ctx, "depropanizer", "")
	require.NoError(t, err)
	d := res.Diagnostics
	require.True(t, d.Converged, "abort reason: %s", d.AbortReason)
	assert.Equal(t, domain.SolverDirect, d.Solver, "the definition's default solver")
	assert.InDelta(t, 0.9975, res.Top.MoleFraction("methane"), 2e-3)
	assert.Len(t, res.Stages, 7)

	runs, err := eng.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{d.RunID}, runs)

	stored, err := eng.Run(ctx, d.RunID)
	require.NoError(t, err)
	assert.Equal(t, "depropanizer", stored.Column)
	assert.InDelta(t, res.Top.TotalFlow(), stored.Top.TotalFlow(), 1e-12)

	require.NoError(t, eng.DeleteRun(ctx, d.RunID))
	_, err = eng.Run(ctx, d.RunID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestEngine_SolverOverride(t *testing.T) {
	eng := newEngine(t)
	res, err := eng.SolveNamed(context.Background(), "depropanizer", "inside-out")
	require.NoError(t, err)
	assert.Equal(t, domain.SolverInsideOut, res.Diagnostics.Solver)
	assert.True(t, res.Diagnostics.Converged)

	_, err = eng.SolveNamed(context.Background(), "depropanizer", "newton")
	assert.ErrorIs(t, err, domain.ErrUnknownSolver)
}

func TestEngine_DirectoryLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "depropanizer.yaml"), []byte(testutils.ScenarioYAML), 0o644))

	eng, err := tower.New(dir, tower.WithStore(file.NewStore(filepath.Join(dir, "runs"))))
	require.NoError(t, err)

	names, err := eng.Definitions()
	require.NoError(t, err)
	assert.Equal(t, []string{"depropanizer"}, names)
	require.NoError(t, eng.Validate("depropanizer"))

	res, err := eng.SolveNamed(context.Background(), "depropanizer", "damped")
	require.NoError(t, err)
	assert.True(t, res.Diagnostics.Converged)
	assert.FileExists(t, filepath.Join(dir, "runs", res.Diagnostics.RunID+".json"))
}

func TestEngine_Errors(t *testing.T) {
	_, err := tower.New("")
	assert.Error(t, err, "a loader or a directory is required")

	eng := newEngine(t)
	_, err = eng.Column("debutanizer")
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)

	tests := []struct {
		name   string
		mutate func(doc map[string]any)
		want   error
	}{
		{"unknown component", func(doc map[string]any) {
			doc["components"] = []any{"methane", "ethane", "unobtainium"}
			doc["feeds"] = []any{map[string]any{"temperature": 230.0, "flows": map[string]any{"methane": 1.0}}}
		}, domain.ErrUnknownComponent},
		{"feed outside column", func(doc map[string]any) {
			doc["feeds"] = []any{map[string]any{"stage": 9, "temperature": 230.0, "flows": map[string]any{"methane": 1.0}}}
		}, domain.ErrFeedStageOutOfRange},
		{"inverted pressures", func(doc map[string]any) {
			doc["top_pressure"] = 25.0
		}, domain.ErrInvalidConfig},
		{"no feeds", func(doc map[string]any) {
			doc["feeds"] = []any{}
		}, domain.ErrNoFeeds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testutils.ScenarioDefinition()
			tt.mutate(doc)
			_, err := eng.Build(doc)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEngine_UnassignedFeed(t *testing.T) {
	doc := testutils.ScenarioDefinition()
	feed := doc["feeds"].([]any)[0].(map[string]any)
	delete(feed, "stage")

	col, err := newEngine(t).Build(doc)
	require.NoError(t, err)
	assert.Empty(t, col.FeedStages(), "placement waits for the first solve")

	res, err := col.Run()
	require.NoError(t, err)
	assert.True(t, res.Diagnostics.Converged)
	assert.Len(t, col.FeedStages(), 1)
}

func TestEngine_LocksNamedColumns(t *testing.T) {
	locker := memory.NewLocker()
	eng := newEngine(t, tower.WithLocker(locker), tower.WithLockTTL(time.Minute))

	unlock, err := locker.Lock(context.Background(), "column:depropanizer", time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = eng.SolveNamed(ctx, "depropanizer", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(context.Background()))
	_, err = eng.SolveNamed(context.Background(), "depropanizer", "")
	require.NoError(t, err, "the lock is free again")

	again, err := locker.Lock(context.Background(), "column:depropanizer", time.Minute)
	require.NoError(t, err, "the engine released its lock")
	require.NoError(t, again(context.Background()))
}

type failingStore struct{ *memory.Store }

func (failingStore) Save(context.Context, string, *domain.Result) error {
	return errors.New("disk full")
}

func TestEngine_SaveFailure(t *testing.T) {
	eng := newEngine(t, tower.WithStore(failingStore{memory.NewStore()}))
	res, err := eng.SolveNamed(context.Background(), "depropanizer", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, res, "the solved result is still returned")
}

func TestEngine_Hooks(t *testing.T) {
	var ends atomic.Int32
	hooks := domain.LifecycleHooks{
		OnSolveEnd: func(*domain.SolveEvent) { ends.Add(1) },
	}
	eng := newEngine(t, tower.WithLifecycleHooks(hooks))

	col, err := eng.Column("depropanizer")
	require.NoError(t, err)
	comparisons, err := eng.Compare(context.Background(), col)
	require.NoError(t, err)
	assert.Len(t, comparisons, len(domain.SolverTypes))
	assert.EqualValues(t, len(domain.SolverTypes), ends.Load())

	runs, err := eng.Runs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs, "comparisons are not persisted")
}

func TestEngine_Optimize(t *testing.T) {
	doc := testutils.ScenarioDefinition()
	delete(doc, "tolerances")
	delete(doc, "max_iterations")
	eng := newEngine(t, tower.WithLoader(memory.NewLoader(map[string]map[string]any{"depropanizer": doc})))

	spec := column.PuritySpec{Component: "methane", MinFraction: 0.995, Product: column.ProductTop}
	trays, res, err := eng.Optimize("depropanizer", spec, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, trays)
	require.NotNil(t, res)
	assert.True(t, spec.Met(res))

	_, _, err = eng.Optimize("debutanizer", spec, 7)
	assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, tower.Version)
	assert.NotContains(t, tower.Version, "\n")
}
