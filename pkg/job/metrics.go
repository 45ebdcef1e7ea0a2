package job

// metrics.go mirrors the teacher's pkg/metrics.go metricsSink abstraction:
// a noop sink by default, a Prometheus-backed sink when a registry is
// supplied via WithMetrics. Counters are scheduler-wide rather than
// per-shard, since a job queue has no sharding concept.

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metricsSink interface {
	incRun()
	incSteal()
	incStealMiss()
	setActiveJobs(n int64)
}

type noopMetrics struct{}

func (noopMetrics) incRun()             {}
func (noopMetrics) incSteal()           {}
func (noopMetrics) incStealMiss()       {}
func (noopMetrics) setActiveJobs(int64) {}

type promMetrics struct {
	runs       prometheus.Counter
	steals     prometheus.Counter
	stealMiss  prometheus.Counter
	activeJobs prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vkforge_job",
			Name:      "runs_total",
			Help:      "Number of jobs executed to completion.",
		}),
		steals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vkforge_job",
			Name:      "steals_total",
			Help:      "Number of jobs successfully stolen from another worker's deque.",
		}),
		stealMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vkforge_job",
			Name:      "steal_misses_total",
			Help:      "Number of steal attempts that found no work.",
		}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vkforge_job",
			Name:      "active_jobs",
			Help:      "Number of jobs queued and not yet taken by a worker.",
		}),
	}
	reg.MustRegister(pm.runs, pm.steals, pm.stealMiss, pm.activeJobs)
	return pm
}

func (m *promMetrics) incRun()               { m.runs.Inc() }
func (m *promMetrics) incSteal()             { m.steals.Inc() }
func (m *promMetrics) incStealMiss()         { m.stealMiss.Inc() }
func (m *promMetrics) setActiveJobs(n int64) { m.activeJobs.Set(float64(n)) }

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
