// Package rescache is a generation-ring + CLOCK backed pool mapping
// realized-resource descriptors to backend handles. pkg/rendergraph uses it
// as an optional pooling layer (WithResourcePool) so that resources whose
// descriptor repeats across frames are physically aliased instead of being
// torn down and recreated on every Execute, matching spec.md §4.7/§9's
// "aliasing is permitted... an optimizing implementation coalesces
// non-overlapping lifetime intervals" — here coalesced by descriptor
// identity rather than lifetime-interval packing.
//
// This is the direct successor of the teacher's pkg/cache (arena-cache): a
// sharded K/V object cache repurposed to a single-type-parameter
// descriptor→handle resource pool, since every backend handle is the same
// shape (Handle) regardless of descriptor kind. See DESIGN.md.
//
// © 2025 vkforge authors. MIT License.
package rescache

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"

	"go.uber.org/zap"

	"github.com/ashgrove/vkforge/pkg/backend"
)

// HandleKind discriminates which backend handle a Handle carries.
type HandleKind uint8

const (
	KindTexture HandleKind = iota
	KindBuffer
)

// Handle is the pool's fixed value type: an opaque backend-assigned
// identifier tagged with which union member is populated. It mirrors
// pkg/backend's TextureHandle/BufferHandle split without forcing Pool to
// take a second type parameter for the handle shape.
type Handle struct {
	Kind    HandleKind
	Texture backend.TextureHandle
	Buffer  backend.BufferHandle
}

// ResourceKey is the descriptor type pkg/rendergraph uses to key pooled
// texture/buffer resources. It is comparable (required by Pool[D]) since
// every field is a scalar or string.
type ResourceKey struct {
	Kind HandleKind
	Name string
	Tex  backend.TextureDesc
	Buf  backend.BufferDesc
}

// CreateFunc allocates a fresh backend resource for desc on a pool miss.
// The same instance may be invoked concurrently for different descriptors;
// GetOrCreate collapses concurrent calls for the *same* descriptor into one
// invocation via singleflight.
type CreateFunc[D comparable] func(ctx context.Context, desc D) (Handle, error)

// DestroyFunc releases a backend resource evicted by the pool's CLOCK hand
// or removed explicitly. It runs synchronously inside whichever call
// triggered the eviction (GetOrCreate or Evict) and must not block. Close
// does not invoke it for entries still resident.
type DestroyFunc func(ctx context.Context, h Handle) error

var errNoDiskTier = errors.New("rescache: no disk tier configured (use WithDiskTier)")

// Pool is a sharded descriptor→handle resource pool. D must be comparable;
// every concrete descriptor type used with this module (ResourceKey) is a
// flat struct of scalars and strings.
type Pool[D comparable] struct {
	shards []*shard[D]
	seed   maphash.Seed

	logger  *zap.Logger
	metrics metricsSink
	disk    *diskTier
}

// New constructs a Pool with the given total weighted capacity split
// evenly across shardCount shards (must be a power of two, matching the
// teacher's validation in pkg/cache.go's New).
func New[D comparable](capacity int64, shardCount uint8, opts ...Option) (*Pool[D], error) {
	if capacity <= 0 {
		return nil, errInvalidCapacity
	}
	if shardCount == 0 || shardCount&(shardCount-1) != 0 {
		return nil, errInvalidShards
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &Pool[D]{
		seed:    maphash.MakeSeed(),
		logger:  cfg.logger,
		metrics: newMetricsSink(int(shardCount), cfg.registry),
		disk:    cfg.disk,
	}
	p.shards = make([]*shard[D], shardCount)
	perShard := capacity / int64(shardCount)
	for i := range p.shards {
		p.shards[i] = newShard[D](uint8(i), perShard, cfg, p.metrics)
	}
	return p, nil
}

func (p *Pool[D]) hash(desc D) uint64 { return maphash.Comparable(p.seed, desc) }

func (p *Pool[D]) shardFor(desc D) *shard[D] {
	return p.shards[p.hash(desc)%uint64(len(p.shards))]
}

// GetOrCreate returns the pooled handle for desc, calling create exactly
// once across all concurrent callers on a miss (singleflight-guarded,
// mirroring the teacher's loaderGroup.load).
func (p *Pool[D]) GetOrCreate(ctx context.Context, desc D, create CreateFunc[D]) (Handle, error) {
	s := p.shardFor(desc)
	h, _, err := s.getOrCreate(ctx, p.hash(desc), desc, create)
	if err != nil {
		return Handle{}, err
	}
	return h, nil
}

// Evict removes desc from the pool, invoking DestroyFunc if one is
// configured. It is a no-op if desc is not resident.
func (p *Pool[D]) Evict(ctx context.Context, desc D) {
	p.shardFor(desc).evict(ctx, desc)
}

// Len returns the total number of resident handles across all shards.
func (p *Pool[D]) Len() int {
	total := 0
	for _, s := range p.shards {
		total += s.len()
	}
	return total
}

// WeightedSize returns the sum of every resident entry's weight (as
// computed by WithWeightFn, default 1 per handle).
func (p *Pool[D]) WeightedSize() int64 {
	var total int64
	for _, s := range p.shards {
		total += s.weightedSize()
	}
	return total
}

// LoadBlob consults the optional disk tier for a previously persisted blob
// keyed by desc. Returns (nil, false) if no disk tier is configured or the
// descriptor has never been persisted.
func (p *Pool[D]) LoadBlob(desc D) ([]byte, bool) {
	if p.disk == nil {
		return nil, false
	}
	return p.disk.load(diskKey(desc))
}

// PersistBlob writes an opaque blob (e.g. a compiled pipeline-state object)
// to the disk tier keyed by desc, so a later process run can skip
// recreating it. Returns errNoDiskTier if WithDiskTier was not supplied.
func (p *Pool[D]) PersistBlob(desc D, blob []byte) error {
	if p.disk == nil {
		return errNoDiskTier
	}
	return p.disk.persist(diskKey(desc), blob)
}

// diskKey formats desc directly rather than hashing it: Pool's own
// maphash seed is randomized per process (by design, for hash-flooding
// resistance) and would make an L2 blob unreachable across a restart if
// used to derive its key.
func diskKey[D comparable](desc D) []byte {
	return []byte(fmt.Sprintf("rescache:%+v", desc))
}

// Close releases every shard's resources. It does not close a disk tier
// supplied via WithDiskTier — the caller owns that *badger.DB's lifecycle.
func (p *Pool[D]) Close() {
	for _, s := range p.shards {
		s.close()
	}
}
