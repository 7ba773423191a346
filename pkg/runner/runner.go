package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
)

// Runner executes column solves on a bounded pool of worker goroutines.
//
// The solver itself never checks a context. Run gives callers hard cancellation
// instead: when ctx ends first, Run returns at once and the worker's result is
// discarded when it eventually finishes.
type Runner struct {
	// Logger is used for run summaries and abandoned workers.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Timeout bounds each Run when positive.
	Timeout time.Duration

	slots   chan struct{}
	workers sync.WaitGroup
}

// NewRunner creates a Runner allowing runtime.NumCPU() concurrent solves.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		slots:  make(chan struct{}, runtime.NumCPU()),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

type outcome struct {
	result *domain.Result
	err    error
}

// Run solves col with the given strategy.
//
// If ctx ends before the solve completes, Run returns ctx.Err(). The worker keeps
// col until it finishes, so after a cancellation col must be discarded.
func (r *Runner) Run(ctx context.Context, col *column.Column, kind domain.SolverType) (*domain.Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	select {
	case r.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// An abandoned worker stops at its next iteration once the deadline has passed.
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if limit := col.Config().MaxSolveTime; left > 0 && (limit <= 0 || left < limit) {
			col.SetMaxSolveTime(left)
		}
	}

	done := make(chan outcome, 1)
	r.workers.Add(1)
	go func() {
		defer r.workers.Done()
		defer func() { <-r.slots }()
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("solve of %s panicked: %v", col.Name(), p)}
			}
		}()

		res, err := column.Solve(col, kind)
		done <- outcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		r.Logger.Warn("solve abandoned", "column", col.Name(), "solver", kind.String(), "err", ctx.Err())
		return nil, ctx.Err()
	}
}

// Wait blocks until every worker, including abandoned ones, has returned.
func (r *Runner) Wait() {
	r.workers.Wait()
}
