// Package metrics records import telemetry in a private Prometheus registry
// and optionally pushes it to a Pushgateway when a run finishes.
//
// A Recorder implements reconcile.Observer. The CLI is a short-lived process,
// so metrics are pushed instead of being exposed on a scrape endpoint.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"cmsimport/internal/reconcile"
)

const defaultJob = "cmsimport"

// Recorder collects row and search metrics for one process.
type Recorder struct {
	gatewayURL string
	job        string
	reg        *prometheus.Registry

	rows           *prometheus.CounterVec
	attempts       *prometheus.SummaryVec
	searchCalls    *prometheus.CounterVec
	searchDuration *prometheus.SummaryVec
	runs           *prometheus.CounterVec
}

// NewRecorder constructs a recorder. An empty gatewayURL keeps metrics local
// and makes Push a no-op.
func NewRecorder(job, gatewayURL string) (*Recorder, error) {
	if job == "" {
		job = defaultJob
	}
	reg := prometheus.NewRegistry()

	r := &Recorder{
		gatewayURL: gatewayURL,
		job:        job,
		reg:        reg,
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmsimport_rows_total",
				Help: "Deduplicated rows processed, partitioned by variant and action.",
			},
			[]string{"variant", "action"},
		),
		attempts: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "cmsimport_row_attempts",
				Help:       "Remote attempts spent per row, partitioned by variant and action.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"variant", "action"},
		),
		searchCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmsimport_search_calls_total",
				Help: "Existing-item search requests issued, partitioned by variant.",
			},
			[]string{"variant"},
		),
		searchDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "cmsimport_search_duration_seconds",
				Help:       "Wall time of the existing-item search phase, partitioned by variant and status.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"variant", "status"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cmsimport_runs_total",
				Help: "Completed batch runs, partitioned by variant and status.",
			},
			[]string{"variant", "status"},
		),
	}

	for name, c := range map[string]prometheus.Collector{
		"rows counter":     r.rows,
		"attempts summary": r.attempts,
		"search counter":   r.searchCalls,
		"search summary":   r.searchDuration,
		"runs counter":     r.runs,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
	}
	return r, nil
}

// ObserveOutcome implements reconcile.Observer.
func (r *Recorder) ObserveOutcome(variant string, outcome reconcile.Outcome) {
	action := string(outcome.Action)
	r.rows.WithLabelValues(variant, action).Inc()
	r.attempts.WithLabelValues(variant, action).Observe(float64(outcome.Attempts))
}

// ObserveSearch implements reconcile.Observer.
func (r *Recorder) ObserveSearch(variant string, calls int, elapsed time.Duration, err error) {
	r.searchCalls.WithLabelValues(variant).Add(float64(calls))
	r.searchDuration.WithLabelValues(variant, status(err)).Observe(elapsed.Seconds())
}

// ObserveRun counts a finished Receive call. A run with failed rows is
// reported as "partial".
func (r *Recorder) ObserveRun(variant string, report *reconcile.Report, err error) {
	label := status(err)
	if err == nil && report.HasFailures() {
		label = "partial"
	}
	r.runs.WithLabelValues(variant, label).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Enabled reports whether Push sends anything.
func (r *Recorder) Enabled() bool {
	return r.gatewayURL != ""
}

// Push sends the registry to the Pushgateway, replacing the job's group.
func (r *Recorder) Push() error {
	if !r.Enabled() {
		return nil
	}
	if err := push.New(r.gatewayURL, r.job).Gatherer(r.reg).Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
