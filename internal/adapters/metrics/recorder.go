// Package metrics records provisioning runs as Prometheus metrics and writes
// them to a node_exporter textfile collector file.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/stashprov/internal/domain/compiler"
	"github.com/felixgeelhaar/stashprov/internal/domain/execution"
)

const namespace = "stashprov"

var statuses = []compiler.StepStatus{
	compiler.StatusApplied,
	compiler.StatusSatisfied,
	compiler.StatusNeedsApply,
	compiler.StatusSkipped,
	compiler.StatusFailed,
	compiler.StatusPending,
}

// Recorder holds the metrics for one process. Each Recorder owns its registry.
type Recorder struct {
	registry      *prometheus.Registry
	runInfo       *prometheus.GaugeVec
	runDuration   prometheus.Gauge
	lastSuccess   prometheus.Gauge
	steps         *prometheus.GaugeVec
	stepDuration  *prometheus.GaugeVec
	notifications *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_info",
			Help:      "Identity of the last run; always 1",
		}, []string{"run_id", "environment", "dry_run"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time the last successful run finished",
		}),
		steps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "steps",
			Help:      "Steps of the last run by final status",
		}, []string{"status"}),
		stepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "step",
			Name:      "duration_seconds",
			Help:      "Duration of each step in the last run",
		}, []string{"step"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Flushed notifications by action, resource and outcome",
		}, []string{"action", "resource", "outcome"}),
	}
	r.registry.MustRegister(r.runInfo, r.runDuration, r.lastSuccess, r.steps, r.stepDuration, r.notifications)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records a finished run.
func (r *Recorder) Observe(environment string, result *execution.RunResult) {
	r.runInfo.Reset()
	r.runInfo.WithLabelValues(result.RunID(), environment, fmt.Sprint(result.DryRun())).Set(1)
	r.runDuration.Set(result.Duration().Seconds())
	if result.Success() && !result.DryRun() {
		r.lastSuccess.Set(float64(result.StartedAt().Add(result.Duration()).Unix()))
	}

	counts := make(map[compiler.StepStatus]int, len(statuses))
	r.stepDuration.Reset()
	for _, sr := range result.Results() {
		counts[sr.Status()]++
		r.stepDuration.WithLabelValues(sr.StepID().String()).Set(sr.Duration().Seconds())
	}
	for _, s := range statuses {
		r.steps.WithLabelValues(s.String()).Set(float64(counts[s]))
	}

	for _, n := range result.Notifications() {
		outcome := "listed"
		switch {
		case n.Err != nil:
			outcome = "failed"
		case n.Dispatched:
			outcome = "dispatched"
		}
		r.notifications.WithLabelValues(n.Notification.Action, n.Notification.Resource, outcome).Inc()
	}
}

// WriteTextfile atomically writes the registry in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
