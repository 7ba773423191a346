package column

import (
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/tower/pkg/domain"
	"github.com/aretw0/tower/pkg/ports"
)

// Column is an ordered stack of stages: stage 0 is the reboiler when there is one and
// the last stage is the condenser when there is one.
//
// A Column is mutated in place by every solve and is not safe for concurrent use.
// Use Clone to solve independent copies in parallel.
type Column struct {
	name    string
	cfg     Config
	flasher ports.Flasher
	stages  []*Stage

	components []string
	feeds      map[int][]domain.Stream
	unassigned []domain.Stream

	initialized     bool
	everInitialized bool

	diagnostics domain.Diagnostics
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
}

// Option configures a Column.
type Option func(*Column)

// WithLogger sets the logger. Every record carries the column name.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Column) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Column) {
		c.hooks = hooks
	}
}

// New validates cfg and builds the stages. Configuration errors are returned here,
// before any solve is attempted.
func New(flasher ports.Flasher, cfg Config, opts ...Option) (*Column, error) {
	if flasher == nil {
		return nil, &domain.ConfigError{Field: "flasher", Value: nil, Reason: "is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Column{
		name:    cfg.Name,
		cfg:     cfg,
		flasher: flasher,
		feeds:   map[int][]domain.Stream{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.name != "" {
		c.logger = c.logger.With("column", c.name)
	}

	n := cfg.NumberOfStages()
	c.stages = make([]*Stage, n)
	for i := range c.stages {
		kind := domain.StageSimple
		switch {
		case i == 0 && cfg.HasReboiler:
			kind = domain.StageReboiler
		case i == n-1 && cfg.HasCondenser:
			kind = domain.StageCondenser
		}
		s := NewStage(i, kind)
		s.logger = c.logger.With("stage", i, "kind", kind.String())
		c.stages[i] = s
	}
	if cfg.HasReboiler {
		c.stages[0].applySpec(cfg.Reboiler)
	}
	if cfg.HasCondenser {
		c.stages[n-1].applySpec(cfg.Condenser)
	}
	c.applyPressureProfile()
	return c, nil
}

func (c *Column) Name() string { return c.name }
func (c *Column) Config() Config { return c.cfg }
func (c *Column) NumberOfStages() int { return len(c.stages) }
func (c *Column) Initialized() bool { return c.initialized }
func (c *Column) Components() []string { return c.components }
func (c *Column) Flasher() ports.Flasher { return c.flasher }

// Stage returns stage i, or nil when i is out of range.
func (c *Column) Stage(i int) *Stage {
	if i < 0 || i >= len(c.stages) {
		return nil
	}
	return c.stages[i]
}

// Reboiler returns stage 0 when the column has a reboiler.
func (c *Column) Reboiler() *Stage {
	if !c.cfg.HasReboiler {
		return nil
	}
	return c.stages[0]
}

// Condenser returns the last stage when the column has a condenser.
func (c *Column) Condenser() *Stage {
	if !c.cfg.HasCondenser {
		return nil
	}
	return c.stages[len(c.stages)-1]
}

// SetSolver selects the strategy used by Run.
func (c *Column) SetSolver(s domain.SolverType) { c.cfg.Solver = s }

// SetMaxSolveTime changes the wall-clock ceiling of later solves. Zero disables it.
func (c *Column) SetMaxSolveTime(d time.Duration) { c.cfg.MaxSolveTime = d }

// Diagnostics returns the record of the last solve.
func (c *Column) Diagnostics() domain.Diagnostics {
	d := c.diagnostics
	d.History = append([]domain.IterationRecord(nil), c.diagnostics.History...)
	return d
}

// Pressures returns the stage pressures, bottom first.
func (c *Column) Pressures() []float64 {
	out := make([]float64, len(c.stages))
	for i, s := range c.stages {
		out[i] = s.pressure
	}
	return out
}

// Temperatures returns the stage temperatures, bottom first.
func (c *Column) Temperatures() []float64 {
	out := make([]float64, len(c.stages))
	for i, s := range c.stages {
		out[i] = s.temperature
	}
	return out
}

// applyPressureProfile sets P_i = Pb − i·(Pb−Pt)/(N−1), or Pb for a single stage.
func (c *Column) applyPressureProfile() {
	n := len(c.stages)
	pb, pt := c.cfg.BottomPressure, c.cfg.TopPressure
	for i, s := range c.stages {
		if n == 1 {
			s.pressure = pb
			continue
		}
		s.pressure = pb - float64(i)*(pb-pt)/float64(n-1)
	}
}

// TopProduct returns the stream leaving the top stage: its vapor, plus the distillate
// of a total condenser.
func (c *Column) TopProduct() domain.Stream {
	top := c.stages[len(c.stages)-1]
	out := domain.Mix("top", top.VaporOutlet(), top.Distillate())
	if len(out.Flows) == 0 {
		return top.emptyStream()
	}
	out.Temperature = top.temperature
	out.Pressure = top.pressure
	return out
}

// BottomProduct returns the liquid leaving stage 0.
func (c *Column) BottomProduct() domain.Stream {
	out := c.stages[0].LiquidOutlet()
	out.Name = "bottom"
	return out
}

// Result assembles the products, the stage profile and the diagnostics of the last solve.
func (c *Column) Result() *domain.Result {
	res := &domain.Result{
		Column:      c.name,
		Top:         c.TopProduct(),
		Bottom:      c.BottomProduct(),
		Stages:      make([]domain.StageProfile, len(c.stages)),
		Diagnostics: c.Diagnostics(),
	}
	for i, s := range c.stages {
		vf := 0.0
		if s.state != nil {
			vf = s.state.VaporFraction
		}
		res.Stages[i] = domain.StageProfile{
			Index:         i,
			Kind:          s.kind,
			Temperature:   s.temperature,
			Pressure:      s.pressure,
			VaporFlow:     s.vaporOut.TotalFlow(),
			LiquidFlow:    s.liquidOut.TotalFlow() + s.distillate.TotalFlow(),
			Duty:          s.duty,
			VaporFraction: vf,
		}
	}
	return res
}

// Clone returns a deep copy: stages, slots, states and the feed registry.
// The flasher, logger and hooks are shared.
func (c *Column) Clone() *Column {
	out := *c
	out.stages = make([]*Stage, len(c.stages))
	for i, s := range c.stages {
		out.stages[i] = s.clone()
	}
	out.feeds = make(map[int][]domain.Stream, len(c.feeds))
	for k, v := range c.feeds {
		out.feeds[k] = cloneStreams(v)
	}
	out.unassigned = cloneStreams(c.unassigned)
	out.diagnostics = c.Diagnostics()
	return &out
}

func cloneStreams(in []domain.Stream) []domain.Stream {
	if in == nil {
		return nil
	}
	out := make([]domain.Stream, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
