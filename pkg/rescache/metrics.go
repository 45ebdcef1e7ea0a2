package rescache

// metrics.go mirrors the teacher's pkg/metrics.go metricsSink abstraction:
// a noop sink by default, a Prometheus-backed sink when WithMetrics(reg)
// is supplied, so the hot path never pays for metric updates unless the
// caller opted in.
//
// © 2025 vkforge authors. MIT License.

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsSink interface {
	incHit(shard uint8)
	incMiss(shard uint8)
	incEvict(shard uint8)
	incRotation(shard uint8)
	setWeightedSize(shard uint8, value int64)
}

type noopMetrics struct{}

func (noopMetrics) incHit(uint8)             {}
func (noopMetrics) incMiss(uint8)            {}
func (noopMetrics) incEvict(uint8)           {}
func (noopMetrics) incRotation(uint8)        {}
func (noopMetrics) setWeightedSize(uint8, int64) {}

type promMetrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	evictions *prometheus.CounterVec
	rotations *prometheus.CounterVec
	poolBytes *prometheus.GaugeVec
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	label := []string{"shard"}
	pm := &promMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vkforge_rescache", Name: "hits_total", Help: "Number of pool hits.",
		}, label),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vkforge_rescache", Name: "misses_total", Help: "Number of pool misses.",
		}, label),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vkforge_rescache", Name: "evictions_total", Help: "Number of handles evicted by the CLOCK hand.",
		}, label),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vkforge_rescache", Name: "generation_rotations_total", Help: "Number of scratch-generation rotations.",
		}, label),
		poolBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vkforge_rescache", Name: "weighted_size", Help: "Weighted occupancy per shard.",
		}, label),
	}
	reg.MustRegister(pm.hits, pm.misses, pm.evictions, pm.rotations, pm.poolBytes)
	return pm
}

func (m *promMetrics) incHit(s uint8)      { m.hits.WithLabelValues(strconv.Itoa(int(s))).Inc() }
func (m *promMetrics) incMiss(s uint8)     { m.misses.WithLabelValues(strconv.Itoa(int(s))).Inc() }
func (m *promMetrics) incEvict(s uint8)    { m.evictions.WithLabelValues(strconv.Itoa(int(s))).Inc() }
func (m *promMetrics) incRotation(s uint8) { m.rotations.WithLabelValues(strconv.Itoa(int(s))).Inc() }
func (m *promMetrics) setWeightedSize(s uint8, v int64) {
	m.poolBytes.WithLabelValues(strconv.Itoa(int(s))).Set(float64(v))
}

func newMetricsSink(shardCount int, reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
