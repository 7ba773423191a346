/*
Package column implements the convergence core of a tray-by-tray distillation column.

A Column is an ordered stack of equilibrium stages: stage 0 is the reboiler when one is
configured, the last stage is the condenser when one is configured. Solving finds the
stage temperatures, flows and compositions that satisfy stage equilibrium together with
the column mass and energy balances.

# Key Components

  - Stage: Mixes its inbound streams and equilibrates them through a ports.Flasher.
  - Column: Topology, feed registry and pressure profile. Not safe for concurrent use.
  - Solve: Iterates a column with one of the four domain.SolverType strategies.
  - Diagnostics: Residuals, iteration history and the abort reason of the last solve.

# Strategies

  - Direct: sequential substitution with full relaxation.
  - Damped: temperatures blended with an adaptive relaxation factor.
  - Broyden: substitution accelerated by a clamped secant coefficient.
  - Inside-Out: per-component tridiagonal sum-rates correction with a bubble-point Newton step.

# Usage

	cfg := column.DefaultConfig()
	cfg.Trays, cfg.HasReboiler, cfg.HasCondenser = 5, true, true
	cfg.BottomPressure, cfg.TopPressure = 21, 19
	cfg.Condenser.RefluxRatio = 0.5

	flasher, err := thermo.NewIdeal("methane", "ethane", "propane")
	if err != nil {
		return err
	}
	col, err := column.New(flasher, cfg)
	if err != nil {
		return err
	}
	if err := col.AddFeed(feed, 3); err != nil {
		return err
	}
	res, err := column.Solve(col, domain.SolverInsideOut)

A solve that does not converge is not an error: the result carries Aborted and a reason,
and the column keeps its last computed state.
*/
package column
