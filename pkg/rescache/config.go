package rescache

// config.go defines the pool's internal configuration object and the
// functional options that construct it, matching the teacher's
// pkg/config.go defaultConfig/applyOptions pattern.
//
// © 2025 vkforge authors. MIT License.

import (
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures a Pool at construction time.
type Option func(*config)

type config struct {
	registry  *prometheus.Registry
	logger    *zap.Logger
	weightFn  func(Handle) int
	destroyFn DestroyFunc
	ttl       time.Duration
	disk      *diskTier
}

func defaultWeightFn(Handle) int { return 1 }

func defaultConfig() *config {
	return &config{
		logger:   zap.NewNop(),
		weightFn: defaultWeightFn,
		ttl:      5 * time.Minute,
	}
}

func (c *config) validate() error {
	if c.ttl <= 0 {
		return errInvalidTTL
	}
	return nil
}

// WithMetrics enables Prometheus metrics collection for the pool.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger plugs an external zap.Logger. The pool never logs on the hot
// path; only generation rotation and DestroyFunc failures are emitted.
// Disk-tier errors are not logged: PersistBlob returns them to the caller
// and LoadBlob reports them as a miss.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWeightFn overrides the default per-handle weight (1) used against
// the pool's capacity budget, e.g. weighting a texture handle by its
// descriptor's byte footprint.
func WithWeightFn(fn func(Handle) int) Option {
	return func(c *config) {
		if fn != nil {
			c.weightFn = fn
		}
	}
}

// WithDestroyFn registers the callback invoked when the CLOCK hand evicts
// a resident handle under capacity pressure. This is typically the
// backend's DestroyTexture/DestroyBuffer, wrapped to dispatch on
// Handle.Kind.
func WithDestroyFn(fn DestroyFunc) Option {
	return func(c *config) { c.destroyFn = fn }
}

// WithGenerationTTL sets the nominal lifetime of a scratch generation
// before rotation. Informational only — rescache rotates on byte budget,
// not a timer, but Generation.Age() callers use this to judge staleness.
func WithGenerationTTL(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithDiskTier attaches a Badger-backed L2 tier for PersistBlob/LoadBlob,
// persisting opaque serialized pipeline-state blobs across process
// restarts. The caller owns db's lifecycle (Open/Close).
func WithDiskTier(db *badger.DB) Option {
	return func(c *config) {
		if db != nil {
			c.disk = newDiskTier(db)
		}
	}
}

var (
	errInvalidCapacity = errors.New("rescache: capacity must be > 0")
	errInvalidShards   = errors.New("rescache: shard count must be a power of two and > 0")
	errInvalidTTL      = errors.New("rescache: generation TTL must be > 0")
)
