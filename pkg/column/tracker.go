package column

import "math"

// tracker owns the iteration budget and the convergence decision.
//
// The base limit is max(MaxIterations, ceil(max(5, 2N))). When it is reached with the
// tolerances unmet, it is extended in steps of max(3, ceil(N/2)) up to a hard cap of
// limit + max(step, N)·12. Once the tolerances are met, an optional polish phase
// tightens them to the polish targets for max(6, ceil(N/2)) more iterations.
type tracker struct {
	cfg Config

	limit   int
	hardCap int
	step    int
	margin  int

	polishTemperature float64
	polishMass        float64
	polishEnergy      float64
	polishAvailable   bool
	polishDeadline    int
	polishing         bool
}

// verdict is the outcome of one observed iteration. The zero value means "keep going".
type verdict struct {
	converged bool
	polished  bool
	exhausted bool
}

func newTracker(cfg Config, stages int) *tracker {
	n := float64(stages)
	limit := max(cfg.MaxIterations, int(math.Ceil(math.Max(minTrayIterations, trayIterationFactor*n))))
	step := max(minOverflowIncrement, int(math.Ceil(n/2)))
	t := &tracker{
		cfg:               cfg,
		limit:             limit,
		step:              step,
		hardCap:           limit + max(step, stages)*iterationOverflowMultiplier,
		margin:            max(polishIterationMargin, int(math.Ceil(n/2))),
		polishTemperature: math.Min(cfg.TemperatureTolerance, temperaturePolishTarget),
		polishMass:        math.Min(cfg.MassTolerance, massPolishTarget),
		polishEnergy:      math.Min(cfg.EnergyTolerance, energyPolishTarget),
	}
	t.polishAvailable = cfg.Polish && (t.polishTemperature < cfg.TemperatureTolerance ||
		t.polishMass < cfg.MassTolerance ||
		(cfg.EnforceEnergyTolerance && t.polishEnergy < cfg.EnergyTolerance))
	return t
}

func (t *tracker) within(r residuals, temperature, mass, energy float64) bool {
	if r.temperature > temperature || r.mass > mass {
		return false
	}
	return !t.cfg.EnforceEnergyTolerance || r.energy <= energy
}

// observe judges iteration iter.
func (t *tracker) observe(iter int, r residuals) verdict {
	if t.within(r, t.cfg.TemperatureTolerance, t.cfg.MassTolerance, t.cfg.EnergyTolerance) {
		polished := t.polishAvailable && t.within(r, t.polishTemperature, t.polishMass, t.polishEnergy)
		if !t.polishAvailable || polished {
			return verdict{converged: true, polished: polished}
		}
		if !t.polishing {
			t.polishing = true
			t.polishDeadline = iter + t.margin
		}
		if iter >= t.polishDeadline {
			// polish budget spent, the primary tolerances still hold
			return verdict{converged: true}
		}
		return verdict{}
	}

	if iter >= t.limit {
		if t.limit >= t.hardCap {
			return verdict{exhausted: true}
		}
		t.limit = min(t.hardCap, t.limit+t.step)
	}
	return verdict{}
}
