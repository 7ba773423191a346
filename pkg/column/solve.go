package column

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/tower/pkg/domain"
)

// Run solves the column with its configured strategy.
func (c *Column) Run() (*domain.Result, error) {
	return Solve(c, c.cfg.Solver)
}

// Solve iterates the column to convergence with the given strategy.
//
// Only configuration problems are returned as errors. Non-convergence is reported in the
// diagnostics of the result: the column is left in its last computed state with Aborted
// set and a reason.
func Solve(c *Column, kind domain.SolverType) (*domain.Result, error) {
	st, err := newStrategy(kind, c.cfg, len(c.stages))
	if err != nil {
		return nil, err
	}
	c.assignUnassignedFeeds()
	if len(c.feeds) == 0 {
		return nil, domain.ErrNoFeeds
	}
	c.loadFeeds()
	c.applyPressureProfile()

	started := time.Now()
	c.diagnostics = domain.Diagnostics{
		RunID:     uuid.NewString(),
		Solver:    kind,
		StartedAt: started,
	}
	logger := c.logger.With("run_id", c.diagnostics.RunID, "solver", kind.String())
	if c.hooks.OnSolveStart != nil {
		c.hooks.OnSolveStart(&domain.SolveEvent{
			EventBase: c.event(domain.EventSolveStart),
			Solver:    kind,
			Stages:    len(c.stages),
		})
	}
	logger.Debug("solve started", "stages", len(c.stages), "feeds", len(c.FeedStages()))

	if len(c.stages) == 1 {
		c.solveSingleStage()
	} else {
		if !c.initialized {
			c.initialize()
			c.initialized = true
			c.everInitialized = true
		}
		c.iterate(st, logger, started)
	}

	c.diagnostics.Elapsed = time.Since(started)
	d := c.Diagnostics()
	if c.hooks.OnSolveEnd != nil {
		c.hooks.OnSolveEnd(&domain.SolveEvent{
			EventBase:   c.event(domain.EventSolveEnd),
			Solver:      kind,
			Stages:      len(c.stages),
			Diagnostics: &d,
		})
	}

	attrs := []any{
		"iterations", d.Iterations,
		"converged", d.Converged,
		"temperature_residual", d.TemperatureResidual,
		"mass_residual", d.MassResidual,
		"energy_residual", d.EnergyResidual,
		"elapsed", d.Elapsed,
	}
	if d.Aborted {
		logger.Warn("solve aborted", append(attrs, "reason", d.AbortReason)...)
	} else {
		logger.Info("solve finished", attrs...)
	}
	return c.Result(), nil
}

// solveSingleStage equilibrates a one-stage column once.
func (c *Column) solveSingleStage() {
	s := c.stages[0]
	before := s.temperature
	s.clearConnections()
	c.solveStage(s)
	after := c.settledTemperatures([]float64{before})
	c.initialized = true
	c.everInitialized = true

	r := c.measure(after, after)
	c.record(1, r, r.combined(c.cfg), 1, false)
	if reason, abort := newGuard(c.cfg, c.diagnostics.StartedAt).nonFinite(1, r); abort {
		c.abort(reason)
		return
	}
	c.diagnostics.Converged = true
}

func (c *Column) iterate(st strategy, logger *slog.Logger, started time.Time) {
	track := newTracker(c.cfg, len(c.stages))
	g := newGuard(c.cfg, started)

	for iter := 1; ; iter++ {
		before := c.Temperatures()
		c.sweep(st.streamRelaxation())
		after := c.settledTemperatures(before)
		st.update(c, before, after)

		r := c.measure(before, after)
		combined := r.combined(c.cfg)
		st.adapt(combined)
		c.record(iter, r, combined, st.factor(), track.polishing)
		logger.Debug("iteration",
			"iteration", iter,
			"temperature_residual", r.temperature,
			"mass_residual", r.mass,
			"energy_residual", r.energy,
			"factor", st.factor())

		if reason, abort := g.nonFinite(iter, r); abort {
			c.abort(reason)
			return
		}
		v := track.observe(iter, r)
		if v.converged {
			c.diagnostics.Converged = true
			c.diagnostics.Polished = v.polished
			return
		}
		if reason, abort := g.check(iter, combined, time.Now()); abort {
			c.abort(reason)
			return
		}
		if v.exhausted {
			c.abort(fmt.Sprintf("iteration limit %d reached (temperature=%.3g mass=%.3g energy=%.3g)",
				track.limit, r.temperature, r.mass, r.energy))
			return
		}
	}
}

// record stores the residuals of iteration iter and fires OnIteration.
func (c *Column) record(iter int, r residuals, combined, factor float64, polishing bool) {
	rec := domain.IterationRecord{
		Iteration:           iter,
		TemperatureResidual: r.temperature,
		MassResidual:        r.mass,
		EnergyResidual:      r.energy,
		Combined:            combined,
		Factor:              factor,
		Polishing:           polishing,
	}
	c.diagnostics.Iterations = iter
	c.diagnostics.TemperatureResidual = r.temperature
	c.diagnostics.MassResidual = r.mass
	c.diagnostics.EnergyResidual = r.energy
	c.diagnostics.History = append(c.diagnostics.History, rec)

	if c.hooks.OnIteration != nil {
		c.hooks.OnIteration(&domain.IterationEvent{
			EventBase: c.event(domain.EventIteration),
			Solver:    c.diagnostics.Solver,
			Record:    rec,
		})
	}
}

func (c *Column) abort(reason string) {
	c.diagnostics.Aborted = true
	c.diagnostics.Converged = false
	c.diagnostics.AbortReason = reason
}
