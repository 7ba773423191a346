/*
Package ports defines the driven ports (interfaces) of the column solver.

These interfaces decouple the convergence core from its collaborators, so the solver
can run against any thermodynamic package and its results can be kept in any store.

# Key Interfaces

  - Flasher: The thermodynamic equilibrium engine consumed by every stage.
  - ResultStore: Persists solve results for later inspection (memory, Redis).
  - DistributedLocker: Serializes solves of the same column across service replicas.
  - DefinitionLoader: Retrieves column definitions by name (files, memory).
*/
package ports
