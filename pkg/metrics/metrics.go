// Package metrics exports run events as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdziat/entrybatch/pkg/core"
)

// Observer is a core.Observer that records run events on its own registry.
type Observer struct {
	registry *prometheus.Registry

	attempts         *prometheus.CounterVec
	rows             *prometheus.CounterVec
	strategySwitches *prometheus.CounterVec
	chains           prometheus.Counter
	stateChanges     *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
}

// New creates an Observer. When withRuntime is set, Go runtime and process
// collectors are registered as well.
func New(withRuntime bool) *Observer {
	registry := prometheus.NewRegistry()
	if withRuntime {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	o := &Observer{
		registry: registry,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entrybatch_attempts_total",
			Help: "Total attempts by outcome and strategy mode.",
		}, []string{"outcome", "mode", "chained"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entrybatch_rows_total",
			Help: "Total classified records by status.",
		}, []string{"status", "chained"}),
		strategySwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entrybatch_strategy_switches_total",
			Help: "Total chain strategy switches.",
		}, []string{"from", "to"}),
		chains: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "entrybatch_chains_total",
			Help: "Total chain invocations.",
		}),
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "entrybatch_state_changes_total",
			Help: "Total run lifecycle transitions by target state.",
		}, []string{"state"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "entrybatch_run_duration_seconds",
			Help:    "Duration of finished runs.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"state"}),
	}

	registry.MustRegister(o.attempts)
	registry.MustRegister(o.rows)
	registry.MustRegister(o.strategySwitches)
	registry.MustRegister(o.chains)
	registry.MustRegister(o.stateChanges)
	registry.MustRegister(o.runDuration)

	return o
}

// Registry returns the Prometheus registry.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

func (o *Observer) OnAttempt(_ context.Context, e *core.AttemptEvent) {
	o.attempts.WithLabelValues(string(e.Outcome), string(e.Mode), boolLabel(e.Chained)).Inc()
}

func (o *Observer) OnRowResult(_ context.Context, _ string, res core.RowResult) {
	o.rows.WithLabelValues(string(res.Status), boolLabel(res.Chained)).Inc()
}

func (o *Observer) OnChainEvent(_ context.Context, e *core.ChainEvent) {
	switch e.Kind {
	case core.ChainStarted:
		o.chains.Inc()
	case core.ChainStrategySwitched:
		o.strategySwitches.WithLabelValues(string(e.From), string(e.To)).Inc()
	}
}

func (o *Observer) OnStateChange(_ context.Context, e *core.StateChange) {
	o.stateChanges.WithLabelValues(string(e.To)).Inc()
	if !e.To.Terminal() || e.Report == nil || e.Report.StartedAt.IsZero() {
		return
	}
	end := e.Report.FinishedAt
	if end.IsZero() {
		end = e.Timestamp
	}
	o.runDuration.WithLabelValues(string(e.To)).Observe(end.Sub(e.Report.StartedAt).Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

var (
	_ core.Observer          = (*Observer)(nil)
	_ core.LifecycleObserver = (*Observer)(nil)
)
