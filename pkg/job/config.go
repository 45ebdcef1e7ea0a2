package job

// config.go follows the teacher's functional-options pattern
// (pkg/config.go's Option[K,V]/defaultConfig/applyOptions) adapted for a
// scheduler instead of a cache: no type parameters are needed since Job
// closures are already generic over their captured state.

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Queue at construction time.
type Option func(*config)

type config struct {
	threadCount int
	registry    *prometheus.Registry
	logger      *zap.Logger
}

func defaultConfig() *config {
	return &config{
		threadCount: 0, // 0 means "use GOMAXPROCS/NumCPU", resolved in Init
		logger:      zap.NewNop(),
	}
}

// WithThreadCount overrides the pool worker count. Zero (the default)
// means "use the number of logical CPUs", matching the source's
// num_threads==0 convention.
func WithThreadCount(n int) Option {
	return func(c *config) { c.threadCount = n }
}

// WithMetrics enables Prometheus metrics collection for the scheduler.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger plugs an external zap.Logger. The scheduler never logs from
// a worker's hot loop; only start/stop/adoption events are emitted.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
