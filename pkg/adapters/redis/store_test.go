package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower/pkg/adapters/redis"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/ports"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleResult() *domain.Result {
	comps := []string{"ethane", "propane"}
	return &domain.Result{
		Column: "splitter",
		Top:    domain.NewStream("top", comps, []float64{1, 0.1}, 250, 10),
		Bottom: domain.NewStream("bottom", comps, []float64{0.1, 1}, 300, 11),
		Diagnostics: domain.Diagnostics{
			Solver:    domain.SolverBroyden,
			Converged: true,
		},
	}
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunResultStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	runID := "run-ttl"

	require.NoError(t, store.Save(ctx, runID, sampleResult()))

	runs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, runs, runID)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, runID)
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	// The index is pruned against the wall clock, not the miniredis clock.
	time.Sleep(1200 * time.Millisecond)

	runs, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "my-run", sampleResult()))

	assert.True(t, mr.Exists("custom:app:my-run"), "result key uses the custom prefix")
	assert.True(t, mr.Exists("custom:app:index"), "index uses the custom prefix")

	loaded, err := store.Load(ctx, "my-run")
	require.NoError(t, err)
	assert.Equal(t, domain.SolverBroyden, loaded.Diagnostics.Solver)
	assert.Equal(t, "splitter", loaded.Column)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	require.NoError(t, mr.Set("tower:run:broken", "{not json"))
	_, err := store.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRunNotFound)
}
