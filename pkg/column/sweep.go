package column

import (
	"math"
	"time"

	"github.com/aretw0/tower/pkg/domain"
)

// sweep runs one pass of tear-stream substitution. Starting from the lowest feed stage f:
// liquid is carried down to the reboiler, vapor up to the top, then liquid back down to f.
// Each tear stream is relaxed against the previous content of the slot it replaces.
func (c *Column) sweep(relaxation float64) {
	n := len(c.stages)
	f := c.FeedStage()

	for i := max(f, 1); i >= 1; i-- {
		s := c.stages[i-1]
		s.liquidIn = domain.Blend(s.liquidIn, c.stages[i].LiquidOutlet(), relaxation)
		c.solveStage(s)
	}
	for i := 1; i < n; i++ {
		s := c.stages[i]
		s.vaporIn = domain.Blend(s.vaporIn, c.stages[i-1].VaporOutlet(), relaxation)
		c.solveStage(s)
	}
	for i := n - 2; i >= f; i-- {
		s := c.stages[i]
		s.liquidIn = domain.Blend(s.liquidIn, c.stages[i+1].LiquidOutlet(), relaxation)
		c.solveStage(s)
	}
}

// solveStage equilibrates s and reports any fallback it had to take.
func (c *Column) solveStage(s *Stage) {
	before := s.fallbacks
	s.Solve(c.flasher)
	if s.fallbacks == before {
		return
	}
	c.diagnostics.StageFallbacks += s.fallbacks - before
	if c.hooks.OnStageFallback != nil {
		c.hooks.OnStageFallback(&domain.StageEvent{
			EventBase: c.event(domain.EventStageFallback),
			Stage:     s.index,
			Kind:      s.kind,
			Mode:      s.mode,
			Reason:    s.lastFallback,
		})
	}
}

// settledTemperatures reads the post-sweep temperatures. A non-finite value is replaced
// by the temperature the stage had before the sweep.
func (c *Column) settledTemperatures(previous []float64) []float64 {
	out := make([]float64, len(c.stages))
	for i, s := range c.stages {
		t := s.temperature
		if math.IsNaN(t) || math.IsInf(t, 0) {
			t = previous[i]
			s.temperature = t
		}
		out[i] = t
	}
	return out
}

func (c *Column) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		RunID:     c.diagnostics.RunID,
		Column:    c.name,
	}
}
