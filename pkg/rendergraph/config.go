package rendergraph

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ashgrove/vkforge/pkg/rescache"
)

// Option configures a Graph at construction time, following the same
// functional-options convention used throughout this module.
type Option func(*config)

type config struct {
	registry *prometheus.Registry
	logger   *zap.Logger
	pool     *rescache.Pool[rescache.ResourceKey]
}

func defaultConfig() *config {
	return &config{logger: zap.NewNop()}
}

// WithLogger plugs an external zap.Logger. Only compile decisions
// (culling) and backend failures are logged; per-pass execution never is.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection for the graph.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithResourcePool attaches an optional descriptor→handle pool (see
// pkg/rescache). When set, realize consults the pool by descriptor before
// asking the backend for a fresh allocation, giving physical aliasing
// across frames for resources whose descriptor repeats; destroy then
// leaves the physical resource resident in the pool instead of tearing it
// down. When absent, every realize is a fresh backend allocation and every
// destroy actually releases it, matching spec.md's minimal implementation.
func WithResourcePool(pool *rescache.Pool[rescache.ResourceKey]) Option {
	return func(c *config) { c.pool = pool }
}
