package rendergraph

// metrics.go mirrors the teacher's pkg/metrics.go metricsSink abstraction,
// exposing render-graph-specific counters/gauges instead of cache ones.

import "github.com/prometheus/client_golang/prometheus"

type metricsSink interface {
	setPassesCulled(n int64)
	incResourcesRealized()
}

type noopMetrics struct{}

func (noopMetrics) setPassesCulled(int64) {}
func (noopMetrics) incResourcesRealized() {}

type promMetrics struct {
	passesCulled      prometheus.Gauge
	resourcesRealized prometheus.Counter
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		passesCulled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vkforge_rendergraph",
			Name:      "passes_culled",
			Help:      "Number of passes culled by the most recent Compile.",
		}),
		resourcesRealized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vkforge_rendergraph",
			Name:      "resources_realized_total",
			Help:      "Number of backend resource allocations performed by Execute/ExecutePass.",
		}),
	}
	reg.MustRegister(pm.passesCulled, pm.resourcesRealized)
	return pm
}

func (m *promMetrics) setPassesCulled(n int64) { m.passesCulled.Set(float64(n)) }
func (m *promMetrics) incResourcesRealized()   { m.resourcesRealized.Inc() }

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
