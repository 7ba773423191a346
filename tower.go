package tower

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/aretw0/tower/internal/dto"
	"github.com/aretw0/tower/pkg/adapters/file"
	"github.com/aretw0/tower/pkg/adapters/memory"
	"github.com/aretw0/tower/pkg/column"
	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/ports"
	"github.com/aretw0/tower/pkg/runner"
	"github.com/aretw0/tower/pkg/thermo"
)

// DefaultLockTTL bounds how long a crashed holder keeps a column locked.
const DefaultLockTTL = 5 * time.Minute

// Engine is the high-level entry point. It turns column definitions into columns,
// solves them on a bounded runner and keeps the results.
type Engine struct {
	loader   ports.DefinitionLoader
	store    ports.ResultStore
	locker   ports.DistributedLocker
	runner   *runner.Runner
	database *thermo.Database
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	lockTTL  time.Duration
}

// Option configures the Engine.
type Option func(*Engine)

// WithLoader injects a custom definition loader, bypassing the directory loader.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore sets where results are persisted. Defaults to an in-memory store.
func WithStore(s ports.ResultStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serializes solves of the same named column. Without one, solves never wait.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLockTTL sets the expiry of the column lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithRunner replaces the default runner (one slot per CPU, no timeout).
func WithRunner(r *runner.Runner) Option {
	return func(e *Engine) {
		e.runner = r
	}
}

// WithDatabase sets the component database used to build flashers.
func WithDatabase(db *thermo.Database) Option {
	return func(e *Engine) {
		e.database = db
	}
}

// WithLifecycleHooks registers observability hooks on every built column.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger for the engine and the columns it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine reading definitions from dir.
// dir may be empty when WithLoader is given.
func New(dir string, opts ...Option) (*Engine, error) {
	e := &Engine{lockTTL: DefaultLockTTL}
	for _, opt := range opts {
		opt(e)
	}

	if e.loader == nil {
		if dir == "" {
			return nil, errors.New("definitions directory is required without a custom loader")
		}
		e.loader = file.NewLoader(dir)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.runner == nil {
		e.runner = runner.NewRunner(runner.WithLogger(e.logger))
	}
	if e.database == nil {
		db, err := thermo.DefaultDatabase()
		if err != nil {
			return nil, fmt.Errorf("failed to load component database: %w", err)
		}
		e.database = db
	}
	return e, nil
}

// Definitions lists the column definitions the loader knows about.
func (e *Engine) Definitions() ([]string, error) {
	return e.loader.List()
}

// Store returns the result store.
func (e *Engine) Store() ports.ResultStore {
	return e.store
}

// Column loads the named definition and builds its column.
func (e *Engine) Column(name string) (*column.Column, error) {
	doc, err := e.loader.Load(name)
	if err != nil {
		return nil, err
	}
	col, err := e.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	return col, nil
}

// Build turns a decoded definition document into a fed, unsolved column.
func (e *Engine) Build(doc map[string]any) (*column.Column, error) {
	def, err := dto.Decode(doc)
	if err != nil {
		return nil, err
	}
	return e.build(def)
}

func (e *Engine) build(def dto.ColumnFile) (*column.Column, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	cfg, err := def.Config()
	if err != nil {
		return nil, err
	}
	feeds, err := def.Streams()
	if err != nil {
		return nil, err
	}
	flasher, err := thermo.NewIdealFrom(e.database, def.Components...)
	if err != nil {
		return nil, err
	}

	col, err := column.New(flasher, cfg,
		column.WithLogger(e.logger),
		column.WithLifecycleHooks(e.hooks),
	)
	if err != nil {
		return nil, err
	}
	for _, f := range feeds {
		if f.Assigned {
			err = col.AddFeed(f.Stream, f.Stage)
		} else {
			err = col.AddUnassignedFeed(f.Stream)
		}
		if err != nil {
			return nil, fmt.Errorf("feed %q: %w", f.Stream.Name, err)
		}
	}
	return col, nil
}

// Validate builds the named column without solving it.
func (e *Engine) Validate(name string) error {
	_, err := e.Column(name)
	return err
}

// Solve runs col with the given strategy and persists the result under its run ID.
// Named columns are locked for the duration of the solve when a locker is configured.
func (e *Engine) Solve(ctx context.Context, col *column.Column, kind domain.SolverType) (*domain.Result, error) {
	if e.locker != nil && col.Name() != "" {
		unlock, err := e.locker.Lock(ctx, "column:"+col.Name(), e.lockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(context.Background()); err != nil {
				e.logger.Warn("failed to release column lock", "column", col.Name(), "err", err)
			}
		}()
	}

	res, err := e.runner.Run(ctx, col, kind)
	if err != nil {
		return nil, err
	}
	if err := e.store.Save(ctx, res.Diagnostics.RunID, res); err != nil {
		return res, fmt.Errorf("failed to save run %s: %w", res.Diagnostics.RunID, err)
	}
	return res, nil
}

// SolveNamed loads and solves a definition. An empty solver keeps the definition's own.
func (e *Engine) SolveNamed(ctx context.Context, name, solver string) (*domain.Result, error) {
	col, err := e.Column(name)
	if err != nil {
		return nil, err
	}
	kind := col.Config().Solver
	if solver != "" {
		if kind, err = domain.ParseSolverType(solver); err != nil {
			return nil, err
		}
	}
	return e.Solve(ctx, col, kind)
}

// Compare solves copies of col with each strategy. Comparison results are not persisted.
func (e *Engine) Compare(ctx context.Context, col *column.Column, kinds ...domain.SolverType) ([]runner.Comparison, error) {
	return e.runner.Compare(ctx, col, kinds...)
}

// Optimize finds the smallest tray count of the named column meeting spec.
// Assigned feeds keep their relative height in the resized column.
func (e *Engine) Optimize(name string, spec column.PuritySpec, maxTrays int) (int, *domain.Result, error) {
	doc, err := e.loader.Load(name)
	if err != nil {
		return 0, nil, err
	}
	def, err := dto.Decode(doc)
	if err != nil {
		return 0, nil, err
	}
	base, err := e.build(def)
	if err != nil {
		return 0, nil, fmt.Errorf("column %q: %w", name, err)
	}
	baseStages := base.NumberOfStages()

	build := func(trays int) (*column.Column, error) {
		resized := def
		resized.Trays = trays
		resized.Feeds = make([]dto.FeedFile, len(def.Feeds))
		for i, f := range def.Feeds {
			if f.Stage != nil {
				stage := rescale(*f.Stage, baseStages, baseStages-def.Trays+trays)
				f.Stage = &stage
			}
			resized.Feeds[i] = f
		}
		return e.build(resized)
	}
	return column.OptimalTrayCount(build, spec, maxTrays)
}

// rescale maps a stage index of an n-stage column onto an m-stage column.
func rescale(stage, n, m int) int {
	if n <= 1 || m <= 1 {
		return 0
	}
	s := int(math.Round(float64(stage) * float64(m-1) / float64(n-1)))
	return min(max(s, 0), m-1)
}

// Runs lists the persisted run IDs.
func (e *Engine) Runs(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// Run loads a persisted result.
func (e *Engine) Run(ctx context.Context, id string) (*domain.Result, error) {
	return e.store.Load(ctx, id)
}

// DeleteRun removes a persisted result.
func (e *Engine) DeleteRun(ctx context.Context, id string) error {
	return e.store.Delete(ctx, id)
}

// Wait blocks until every abandoned solve worker has finished.
func (e *Engine) Wait() {
	e.runner.Wait()
}
