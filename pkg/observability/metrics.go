package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/wattle/pkg/graph"
)

// Metrics holds the engine's Prometheus collectors. Wire it into an engine
// with Hooks; expose the registry however the host process serves metrics.
type Metrics struct {
	runsInFlight prometheus.Gauge
	runsTotal    *prometheus.CounterVec
	nodeVisits   *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them. A nil registerer
// falls back to the process-wide default.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		runsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wattle_runs_in_flight",
			Help: "Number of runs currently executing",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wattle_runs_total",
			Help: "Total number of completed runs",
		}, []string{"graph", "status"}),
		nodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wattle_node_visits_total",
			Help: "Total number of node visits",
		}, []string{"node"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "wattle_run_duration_seconds",
			Help: "Duration of completed runs",
		}, []string{"graph"}),
	}
	reg.MustRegister(m.runsInFlight, m.runsTotal, m.nodeVisits, m.runDuration)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors. The terminal
// marker step is not counted as a node visit.
func (m *Metrics) Hooks() graph.LifecycleHooks {
	return graph.LifecycleHooks{
		OnRunStart: func(_ context.Context, _ *graph.RunEvent) {
			m.runsInFlight.Inc()
		},
		OnStep: func(_ context.Context, e *graph.StepEvent) {
			if e.Terminal() {
				return
			}
			m.nodeVisits.WithLabelValues(e.Node).Inc()
		},
		OnRunEnd: func(_ context.Context, e *graph.RunEvent) {
			m.runsInFlight.Dec()
			m.runsTotal.WithLabelValues(e.Graph, string(e.Status)).Inc()
			m.runDuration.WithLabelValues(e.Graph).Observe(e.Duration.Seconds())
		},
	}
}

// Join fans lifecycle events out to every given hook set, in order. Nil
// callbacks are skipped, so partial hook sets combine cleanly.
func Join(hooks ...graph.LifecycleHooks) graph.LifecycleHooks {
	return graph.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *graph.RunEvent) {
			for _, h := range hooks {
				if h.OnRunStart != nil {
					h.OnRunStart(ctx, e)
				}
			}
		},
		OnStep: func(ctx context.Context, e *graph.StepEvent) {
			for _, h := range hooks {
				if h.OnStep != nil {
					h.OnStep(ctx, e)
				}
			}
		},
		OnRunEnd: func(ctx context.Context, e *graph.RunEvent) {
			for _, h := range hooks {
				if h.OnRunEnd != nil {
					h.OnRunEnd(ctx, e)
				}
			}
		},
	}
}
