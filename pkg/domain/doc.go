/*
Package domain contains the core value types shared by the column solver and its adapters.

It defines streams, flash specifications and results, solver selection, diagnostics and
the lifecycle hooks used for observability. This package is kept pure and free of I/O,
so adapters (stores, HTTP, CLI) and the solver core can depend on it without cycles.

# Key Entities

  - Stream: A value-type material stream (component flows, temperature, pressure, enthalpy).
  - FlashSpec / Equilibrium: The request and answer exchanged with a flash collaborator.
  - SolverType: The convergence strategy selected for a solve.
  - Result / Diagnostics: Product streams and the bookkeeping of one solve call.
*/
package domain
