package observability

import (
	"log/slog"

	"github.com/aretw0/tower/pkg/domain"
)

// LoggingHooks logs every lifecycle event: iterations at Debug, fallbacks at Warn,
// start and end at Info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSolveStart: func(e *domain.SolveEvent) {
			logger.Info("solve_start", "run_id", e.RunID, "column", e.Column, "solver", e.Solver.String(), "stages", e.Stages)
		},
		OnIteration: func(e *domain.IterationEvent) {
			r := e.Record
			logger.Debug("iteration",
				"run_id", e.RunID,
				"iteration", r.Iteration,
				"temperature_residual", r.TemperatureResidual,
				"mass_residual", r.MassResidual,
				"energy_residual", r.EnergyResidual,
				"combined", r.Combined,
				"factor", r.Factor,
				"polishing", r.Polishing,
			)
		},
		OnStageFallback: func(e *domain.StageEvent) {
			logger.Warn("stage_fallback", "run_id", e.RunID, "stage", e.Stage, "kind", e.Kind.String(), "mode", e.Mode.String(), "reason", e.Reason)
		},
		OnSolveEnd: func(e *domain.SolveEvent) {
			if e.Diagnostics == nil {
				return
			}
			d := e.Diagnostics
			logger.Info("solve_end",
				"run_id", e.RunID,
				"column", e.Column,
				"solver", e.Solver.String(),
				"converged", d.Converged,
				"iterations", d.Iterations,
				"reason", d.AbortReason,
			)
		},
	}
}

// Combine fans every event out to each hook set in order. Nil callbacks are skipped.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnSolveStart = chain(out.OnSolveStart, h.OnSolveStart)
		out.OnIteration = chain(out.OnIteration, h.OnIteration)
		out.OnStageFallback = chain(out.OnStageFallback, h.OnStageFallback)
		out.OnSolveEnd = chain(out.OnSolveEnd, h.OnSolveEnd)
	}
	return out
}

func chain[E any](first, next func(*E)) func(*E) {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(e *E) {
		first(e)
		next(e)
	}
}
