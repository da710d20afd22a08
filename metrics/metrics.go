// Package metrics exposes job and lock counters through Prometheus.
//
// CLI runs are short-lived, so besides the /metrics handler of the server
// the registry can be dumped to a node_exporter textfile after each run.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "onmydesk"

// Metrics holds the collectors of one process. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	jobs         *prometheus.CounterVec
	lockTimeouts *prometheus.CounterVec
	duration     prometheus.Histogram
	lastRun      *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Report jobs run, by final status.",
		}, []string{"status"}),
		lockTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_timeouts_total",
			Help:      "Runs skipped because the lock file was held.",
		}, []string{"lock"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Report job execution time.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_last_run_timestamp_seconds",
			Help:      "End of the last completed batch, by kind.",
		}, []string{"kind"}),
	}
	m.Registry.MustRegister(m.jobs, m.lockTimeouts, m.duration, m.lastRun)
	return m
}

func (m *Metrics) JobFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) LockTimeout(lock string) {
	if m == nil {
		return
	}
	m.lockTimeouts.WithLabelValues(lock).Inc()
}

// BatchDone records the end of a processor or scheduler run.
func (m *Metrics) BatchDone(kind string, at time.Time) {
	if m == nil {
		return
	}
	m.lastRun.WithLabelValues(kind).Set(float64(at.Unix()))
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
