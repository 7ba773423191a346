/*
Package tower is a steady-state convergence engine for multistage distillation columns.

A column is a vertical stack of equilibrium stages: an optional reboiler at the bottom,
trays, and an optional condenser at the top. Feeds enter at chosen stages, vapor rises,
liquid falls, and every stage reaches phase equilibrium through a pluggable flash
collaborator. Tower iterates stage by stage until temperatures, the overall mass balance
and the overall energy balance all settle, using one of four strategies.

# Key Features

  - Four Strategies: direct substitution, adaptive damping, Broyden-style temperature
    acceleration and an inside-out scheme with a tridiagonal sum-rates correction.
  - Adaptive Budget: the iteration limit grows with the column size and extends itself
    while the residuals are still dropping.
  - Guarded Solves: stagnation, wall-time and non-finite guards end a solve with a
    reason instead of an error.
  - Declarative Columns: definitions are plain YAML, JSON or TOML documents.
  - Pluggable Adapters: results persist to memory, files or Redis, and Redis locks keep
    replicas from solving the same column twice.

# Usage

Build an engine over a directory of definitions and solve one by name.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/tower"
	)

	func main() {
		eng, err := tower.New("./columns")
		if err != nil {
			log.Fatal(err)
		}

		res, err := eng.SolveNamed(context.Background(), "depropanizer", "")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Diagnostics.Converged, res.Top.MoleFraction("methane"))
	}

Non-convergence is never an error: inspect Result.Diagnostics for the outcome.
Errors are reserved for invalid definitions, cancelled contexts and storage failures.

Lower-level packages are available when the engine is too coarse:
pkg/column builds and solves columns directly, pkg/runner bounds concurrency,
pkg/report renders results and pkg/adapters/http serves everything over HTTP.
*/
package tower
