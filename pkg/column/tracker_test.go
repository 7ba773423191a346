package column

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/thermo"
)

func TestTracker_Budget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1

	tr := newTracker(cfg, 3)
	assert.Equal(t, 6, tr.limit, "limit is at least 2N")
	assert.Equal(t, 3, tr.step)
	assert.Equal(t, 6+3*12, tr.hardCap)

	tr = newTracker(cfg, 1)
	assert.Equal(t, 5, tr.limit, "limit is at least 5")

	cfg.MaxIterations = 40
	tr = newTracker(cfg, 10)
	assert.Equal(t, 40, tr.limit)
	assert.Equal(t, 5, tr.step)
	assert.Equal(t, 40+10*12, tr.hardCap)
}

func TestTracker_ExtendsUntilHardCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	tr := newTracker(cfg, 3)
	far := residuals{temperature: 1, mass: 1, energy: 1}

	iter := 0
	var v verdict
	for !v.exhausted && iter < 1000 {
		iter++
		v = tr.observe(iter, far)
		require.False(t, v.converged)
	}
	assert.True(t, v.exhausted)
	assert.Equal(t, 42, iter)
}

func TestTracker_Converges(t *testing.T) {
	cfg := DefaultConfig()
	tr := newTracker(cfg, 7)
	assert.False(t, tr.polishAvailable, "default tolerances equal the polish targets")

	v := tr.observe(1, residuals{temperature: 1e-3, mass: 1e-2, energy: 1e-2})
	assert.True(t, v.converged)

	v = newTracker(cfg, 7).observe(1, residuals{temperature: 1e-3, mass: 1e-2, energy: 0.5})
	assert.False(t, v.converged, "energy is enforced by default")

	cfg.EnforceEnergyTolerance = false
	v = newTracker(cfg, 7).observe(1, residuals{temperature: 1e-3, mass: 1e-2, energy: 0.5})
	assert.True(t, v.converged)
}

func TestTracker_Polish(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MassTolerance = 0.1
	tr := newTracker(cfg, 4)
	require.True(t, tr.polishAvailable)

	loose := residuals{temperature: 1e-3, mass: 0.05, energy: 1e-3}
	v := tr.observe(3, loose)
	assert.False(t, v.converged, "polish phase starts")
	assert.True(t, tr.polishing)

	v = tr.observe(4, residuals{temperature: 1e-3, mass: 1e-3, energy: 1e-3})
	assert.True(t, v.converged)
	assert.True(t, v.polished)

	tr = newTracker(cfg, 4)
	for iter := 3; iter < 3+polishIterationMargin; iter++ {
		require.False(t, tr.observe(iter, loose).converged)
	}
	v = tr.observe(3+polishIterationMargin, loose)
	assert.True(t, v.converged, "polish budget exhausted with the primary tolerances met")
	assert.False(t, v.polished)

	cfg.Polish = false
	v = newTracker(cfg, 4).observe(3, loose)
	assert.True(t, v.converged)
	assert.False(t, v.polished)
}

func TestGuard_Stagnation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxStagnantIterations = 3
	cfg.MaxSolveTime = 0
	g := newGuard(cfg, time.Now())

	_, abort := g.check(1, 10, time.Now())
	assert.False(t, abort)
	_, abort = g.check(2, 5, time.Now())
	assert.False(t, abort)
	_, abort = g.check(3, 4.9999, time.Now())
	assert.False(t, abort, "below the relative margin counts as stagnant")
	_, abort = g.check(4, 6, time.Now())
	assert.False(t, abort)
	reason, abort := g.check(5, 5, time.Now())
	assert.True(t, abort)
	assert.Contains(t, reason, "stalled after 3 iterations")
}

func TestGuard_WallTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSolveTime = time.Second
	start := time.Now()
	g := newGuard(cfg, start)

	_, abort := g.check(1, 1, start.Add(500*time.Millisecond))
	assert.False(t, abort)
	reason, abort := g.check(2, 0.5, start.Add(2*time.Second))
	assert.True(t, abort)
	assert.Contains(t, reason, "exceeded wall time 1s")
}

func TestGuard_NonFinite(t *testing.T) {
	g := newGuard(DefaultConfig(), time.Now())
	_, abort := g.nonFinite(1, residuals{temperature: 1, mass: 1, energy: 1})
	assert.False(t, abort)

	reason, abort := g.nonFinite(4, residuals{temperature: 1, mass: math.NaN(), energy: 1})
	assert.True(t, abort)
	assert.Contains(t, reason, "non-finite residual at iteration 4")
}

func TestAdaptiveFactor(t *testing.T) {
	cfg := DefaultConfig()
	f := newAdaptiveFactor(cfg, 0.5, 0.5, 1.2)

	f.adapt(10)
	assert.InDelta(t, 0.6, f.value, 1e-12, "first residual always improves on +Inf")
	f.adapt(9.9)
	assert.InDelta(t, 0.6, f.value, 1e-12, "within the dead band")
	f.adapt(5)
	f.adapt(2)
	assert.InDelta(t, 0.864, f.value, 1e-12)
	f.adapt(1)
	f.adapt(0.5)
	assert.Equal(t, 1.2, f.value, "clamped to the maximum")
	f.adapt(100)
	assert.Equal(t, 0.6, f.value)
	f.adapt(1000)
	assert.Equal(t, 0.5, f.value, "clamped to the minimum")
}

func TestResiduals_Combined(t *testing.T) {
	cfg := DefaultConfig()
	r := residuals{temperature: 5e-3, mass: 4e-2, energy: 1e-2}
	assert.InDelta(t, 2.0, r.combined(cfg), 1e-12)

	cfg.EnforceEnergyTolerance = false
	r.energy = 1
	assert.InDelta(t, 2.0, r.combined(cfg), 1e-12, "energy ignored when not enforced")

	r.energy = math.Inf(1)
	assert.True(t, math.IsInf(r.combined(cfg), 1), "non-finite energy still surfaces")
}

func TestColumnImbalance_RelativeToTotalFeed(t *testing.T) {
	names := []string{"methane", "ethane", "propane"}
	flasher, err := thermo.NewIdeal(names...)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Trays = 3
	cfg.BottomPressure, cfg.TopPressure = 21, 19
	c, err := New(flasher, cfg)
	require.NoError(t, err)
	require.NoError(t, c.AddFeed(domain.NewStream("feed", names, []float64{10, 10, 10}, 230, 20), 1))
	_, err = c.Run()
	require.NoError(t, err)

	// An inflated top vapor leaves the column out of balance.
	c.stages[2].vaporOut = c.stages[2].vaporOut.Scaled(1.1)

	feed := c.TotalFeed().TotalFlow()
	want := math.Abs(feed-c.TopProduct().TotalFlow()-c.BottomProduct().TotalFlow()) / feed
	mass, _ := c.columnImbalance()
	assert.Positive(t, mass)
	assert.InDelta(t, want, mass, 1e-15)

	r := c.measure(c.Temperatures(), c.Temperatures())
	assert.GreaterOrEqual(t, r.mass, mass, "the column term bounds the reported residual from below")
}
