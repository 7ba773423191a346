package column

import (
	"fmt"
	"math"
	"time"
)

// guard aborts a solve that cannot make progress. It is independent of the strategy.
type guard struct {
	maxStagnant int
	relative    float64
	absolute    float64
	maxTime     time.Duration
	started     time.Time

	best     float64
	stagnant int
}

func newGuard(cfg Config, started time.Time) *guard {
	return &guard{
		maxStagnant: cfg.MaxStagnantIterations,
		relative:    cfg.StagnationRelative,
		absolute:    cfg.StagnationAbsolute,
		maxTime:     cfg.MaxSolveTime,
		started:     started,
		best:        math.Inf(1),
	}
}

// nonFinite returns the abort reason for a residual that is NaN or infinite.
func (g *guard) nonFinite(iter int, r residuals) (string, bool) {
	if r.finite() {
		return "", false
	}
	return fmt.Sprintf("non-finite residual at iteration %d (temperature=%g mass=%g energy=%g)",
		iter, r.temperature, r.mass, r.energy), true
}

// check runs the wall-clock and stagnation tests after iteration iter.
func (g *guard) check(iter int, combined float64, now time.Time) (string, bool) {
	if g.maxTime > 0 {
		if elapsed := now.Sub(g.started); elapsed > g.maxTime {
			return fmt.Sprintf("exceeded wall time %s after %d iterations", g.maxTime, iter), true
		}
	}

	if combined < g.best*(1-g.relative) && g.best-combined > g.absolute {
		g.best = combined
		g.stagnant = 0
		return "", false
	}
	g.stagnant++
	if g.maxStagnant > 0 && g.stagnant >= g.maxStagnant {
		return fmt.Sprintf("stalled after %d iterations without improvement (best combined residual %.4g)",
			g.stagnant, g.best), true
	}
	return "", false
}
