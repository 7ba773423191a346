package column

import (
	"math"

	"github.com/aretw0/tower/pkg/domain"
)

// insideOutStrategy corrects temperatures in composition space. For every component it
// solves the stage balance −S_{j−1}·l_{j−1} + (1+S_j)·l_j − l_{j+1} = f_j with the
// stripping factors S = K·V/L of the last equilibration, blends the resulting sum-rates
// liquid flows with the constant-molal-overflow estimate (the current stage flows) and
// takes one bubble-point Newton step per stage.
type insideOutStrategy struct {
	cfg   Config
	relax adaptiveFactor

	// per-component scratch, reset every solve
	sub, diag, super, rhs, scratch, solution []float64
	blended                                  []float64
	// sumRates[j][i] is the sum-rates liquid flow of component i on stage j
	sumRates [][]float64
}

func newInsideOutStrategy(cfg Config, stages int) *insideOutStrategy {
	return &insideOutStrategy{
		cfg:      cfg,
		relax:    newAdaptiveFactor(cfg, cfg.InsideOutRelaxation, cfg.MinInsideOutRelaxation, cfg.MaxRelaxation),
		sub:      make([]float64, stages),
		diag:     make([]float64, stages),
		super:    make([]float64, stages),
		rhs:      make([]float64, stages),
		scratch:  make([]float64, stages),
		solution: make([]float64, stages),
		sumRates: make([][]float64, stages),
	}
}

func (o *insideOutStrategy) streamRelaxation() float64 {
	return math.Min(1, o.relax.value)
}

func (o *insideOutStrategy) adapt(combined float64) { o.relax.adapt(combined) }
func (o *insideOutStrategy) factor() float64 { return o.relax.value }

func (o *insideOutStrategy) update(c *Column, before, after []float64) {
	w := temperatureWeight(o.cfg, o.relax.value)
	if !o.solveSumRates(c) {
		// No usable correction: fall back to a damped substitution step.
		for i, s := range c.stages {
			next := before[i] + w*(after[i]-before[i])
			if math.Abs(next-after[i]) > temperatureEpsilon {
				s.enforceTemperature(c.flasher, next)
			}
		}
		return
	}

	for j, s := range c.stages {
		next := before[j] + w*(o.target(s, j, after[j])-before[j])
		if math.Abs(next-after[j]) > temperatureEpsilon {
			s.enforceTemperature(c.flasher, next)
		}
	}
}

// target is the temperature stage j should move to. Only two-phase stages free of a
// fixed specification take a Newton step, and only those are held to the temperature band.
func (o *insideOutStrategy) target(s *Stage, j int, t float64) float64 {
	if s.state == nil || !s.state.TwoPhase() || s.hasFixedSpec() {
		return t
	}
	t += o.newtonStep(s, j, t)
	return math.Max(o.cfg.MinTemperature, math.Min(o.cfg.MaxTemperature, t))
}

// solveSumRates fills sumRates. It reports false when a stage has no usable state or
// when a component system has a singular pivot.
func (o *insideOutStrategy) solveSumRates(c *Column) bool {
	n := len(c.stages)
	nc := len(c.components)
	if nc == 0 {
		return false
	}
	for _, s := range c.stages {
		if s.state == nil || len(s.state.KValues) != nc || s.liquidOut.TotalFlow() <= domain.FlowEpsilon {
			return false
		}
	}

	for j := range o.sumRates {
		if len(o.sumRates[j]) != nc {
			o.sumRates[j] = make([]float64, nc)
		}
	}
	for i := 0; i < nc; i++ {
		for j, s := range c.stages {
			strip := stripping(s, i)
			o.diag[j] = 1 + strip
			if j+1 < n {
				o.sub[j+1] = -strip
				o.super[j] = -1
			}
			o.rhs[j] = 0
			for _, f := range c.feeds[j] {
				o.rhs[j] += f.Flows[i]
			}
		}
		o.sub[0], o.super[n-1] = 0, 0
		if !solveTridiagonal(o.sub, o.diag, o.super, o.rhs, o.scratch, o.solution) {
			c.logger.Debug("singular stage balance, skipping composition correction", "component", c.components[i])
			return false
		}
		for j := range c.stages {
			o.sumRates[j][i] = math.Max(0, o.solution[j])
		}
	}
	return true
}

// stripping returns S = (K·V + D)/L for component i, where D is the distillate of a
// total condenser, which leaves with the liquid composition.
func stripping(s *Stage, i int) float64 {
	l := s.liquidOut.TotalFlow()
	return (s.state.KValues[i]*s.vaporOut.TotalFlow() + s.distillate.TotalFlow()) / l
}

// newtonStep returns ΔT = −ln(Σ K·x)·R·T²/ΔHvap for stage j, clamped to the configured step.
func (o *insideOutStrategy) newtonStep(s *Stage, j int, t float64) float64 {
	liquid := s.liquidOut.Flows
	total := 0.0
	if cap(o.blended) < len(liquid) {
		o.blended = make([]float64, len(liquid))
	}
	blended := o.blended[:len(liquid)]
	for i := range liquid {
		blended[i] = o.cfg.CMOWeight*liquid[i] + (1-o.cfg.CMOWeight)*o.sumRates[j][i]
		total += blended[i]
	}
	hvap := s.state.HeatOfVaporization
	if total <= domain.FlowEpsilon || !(hvap > 0) {
		return 0
	}
	sum := 0.0
	for i, l := range blended {
		sum += s.state.KValues[i] * l / total
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return 0
	}
	step := -math.Log(sum) * domain.GasConstant * t * t / hvap
	return math.Max(-o.cfg.MaxTemperatureStep, math.Min(o.cfg.MaxTemperatureStep, step))
}
