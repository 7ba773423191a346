package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tower/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractResult(column string) *domain.Result {
	comps := []string{"methane", "propane"}
	top := domain.NewStream("top", comps, []float64{0.9, 0.1}, 210, 20)
	bottom := domain.NewStream("bottom", comps, []float64{0.1, 0.9}, 330, 21)
	return &domain.Result{
		Column: column,
		Top:    top,
		Bottom: bottom,
		Stages: []domain.StageProfile{
			{Index: 0, Kind: domain.StageReboiler, Temperature: 330, Pressure: 21},
			{Index: 1, Kind: domain.StageCondenser, Temperature: 210, Pressure: 20},
		},
		Diagnostics: domain.Diagnostics{
			Solver:     domain.SolverInsideOut,
			Iterations: 12,
			Converged:  true,
			History:    []domain.IterationRecord{{Iteration: 1, Combined: 3.5}},
		},
	}
}

// RunResultStoreContract runs a suite of tests to verify that a ResultStore implementation
// adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		result := contractResult("deethanizer")

		err := store.Save(ctx, runID, result)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "deethanizer", loaded.Column)
		assert.Equal(t, domain.SolverInsideOut, loaded.Diagnostics.Solver)
		assert.Equal(t, 12, loaded.Diagnostics.Iterations)
		assert.Equal(t, result.Top.Flows, loaded.Top.Flows)
		assert.Len(t, loaded.Stages, 2)
		assert.Equal(t, domain.StageCondenser, loaded.Stages[1].Kind)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		loaded.Top.Flows[0] = -1

		again, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, 0.9, again.Top.Flows[0], "mutating a loaded result must not change the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, runID, contractResult("deethanizer"))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, id1, contractResult("a"))
		_ = store.Save(ctx, id2, contractResult("b"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}

// RunLockerContract verifies mutual exclusion and release for a DistributedLocker.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("150405.000")

	unlock, err := locker.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)

	blocked, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blocked, key, 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "second holder must wait for the first")

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err, "lock must be acquirable after release")
	require.NoError(t, unlock2(ctx))
}

// RunDefinitionLoaderContract verifies that a DefinitionLoader serves every expected name
// and rejects unknown ones.
func RunDefinitionLoaderContract(t *testing.T, loader DefinitionLoader, expected []string) {
	t.Helper()

	t.Run("Load", func(t *testing.T) {
		for _, name := range expected {
			doc, err := loader.Load(name)
			require.NoError(t, err, "definition %s", name)
			assert.NotEmpty(t, doc, "definition %s", name)
		}
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := loader.Load("non-existent-column")
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		names, err := loader.List()
		require.NoError(t, err)
		assert.ElementsMatch(t, expected, names)
		assert.IsNonDecreasing(t, names)
	})
}
