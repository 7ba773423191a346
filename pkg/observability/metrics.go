package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/tower/pkg/domain"
)

// Outcome label values of the solves counter.
const (
	OutcomeConverged = "converged"
	OutcomeAborted   = "aborted"
)

// Metrics records solver activity as Prometheus collectors.
type Metrics struct {
	Solves     *prometheus.CounterVec
	Iterations *prometheus.HistogramVec
	Duration   *prometheus.HistogramVec
	Fallbacks  *prometheus.CounterVec
	Residual   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tower_solves_total",
				Help: "Total number of column solves by strategy and outcome",
			},
			[]string{"solver", "outcome"},
		),
		Iterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tower_solve_iterations",
				Help:    "Iterations per column solve",
				Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500},
			},
			[]string{"solver"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tower_solve_duration_seconds",
				Help:    "Wall time of column solves",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"solver"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tower_stage_fallbacks_total",
				Help: "Flash failures recovered by a temperature retry, by stage kind",
			},
			[]string{"kind"},
		),
		Residual: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tower_last_combined_residual",
				Help: "Combined residual of the latest iteration per column",
			},
			[]string{"column"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Solves, m.Iterations, m.Duration, m.Fallbacks, m.Residual)
	}
	return m
}

// Hooks returns lifecycle callbacks feeding the collectors.
// They are safe to share between concurrent solves.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnIteration: func(e *domain.IterationEvent) {
			m.Residual.WithLabelValues(e.Column).Set(e.Record.Combined)
		},
		OnStageFallback: func(e *domain.StageEvent) {
			m.Fallbacks.WithLabelValues(e.Kind.String()).Inc()
		},
		OnSolveEnd: func(e *domain.SolveEvent) {
			if e.Diagnostics == nil {
				return
			}
			d := e.Diagnostics
			solver := e.Solver.String()
			outcome := OutcomeAborted
			if d.Converged {
				outcome = OutcomeConverged
			}
			m.Solves.WithLabelValues(solver, outcome).Inc()
			m.Iterations.WithLabelValues(solver).Observe(float64(d.Iterations))
			m.Duration.WithLabelValues(solver).Observe(d.Elapsed.Seconds())
		},
	}
}
