/*
Package runner executes column solves off the caller's goroutine.

The convergence core is single-threaded and never observes a context. The runner
supplies the concurrency around it: a bounded pool of workers, per-run timeouts,
hard cancellation, and concurrent comparison of strategies on cloned columns.

# Key Components

  - Runner: Bounded worker pool with Run (one solve) and Wait (drain workers).
  - Compare: Solves clones of one column under several strategies with errgroup.
  - Best: Picks the fastest converged strategy from a comparison.

# Usage

	r := runner.NewRunner(runner.WithConcurrency(4), runner.WithTimeout(time.Minute))

	res, err := r.Run(ctx, col, domain.SolverInsideOut)
	if errors.Is(err, context.DeadlineExceeded) {
		// col is still owned by the abandoned worker; build a new one.
	}
*/
package runner
