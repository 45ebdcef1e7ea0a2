package rescache

// shard.go owns one slice of the descriptor key-space, mirroring the
// teacher's pkg/shard.go (getOrLoad/sizeBytes/close) adapted to a
// descriptor→handle pool: the index maps the descriptor directly to a
// clockpro.Entry (D is comparable, so no manual hash/collision handling is
// needed the way the teacher's arbitrary-K cache required), CLOCK tracks
// eviction order, and genring supplies the generation ID stamped on each
// entry and the weight budget that triggers a rotation. The shard does not
// use the generations' arenas.
//
// © 2025 vkforge authors. MIT License.

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ashgrove/vkforge/internal/clockpro"
	"github.com/ashgrove/vkforge/internal/genring"
)

type shard[D comparable] struct {
	idx uint8

	mu    sync.RWMutex
	index map[D]*clockpro.Entry[D, Handle]
	clock *clockpro.Clock[D, Handle]
	gens  *genring.Ring

	loaders loaderGroup[D]

	hits, misses, evictions, rotations atomic.Uint64

	logger    *zap.Logger
	metrics   metricsSink
	destroyFn DestroyFunc
}

func newShard[D comparable](idx uint8, capWeight int64, cfg *config, metrics metricsSink) *shard[D] {
	s := &shard[D]{
		idx:       idx,
		index:     make(map[D]*clockpro.Entry[D, Handle], 256),
		gens:      genring.New(max64(capWeight, 1), cfg.ttl),
		logger:    cfg.logger,
		metrics:   metrics,
		destroyFn: cfg.destroyFn,
	}
	s.clock = clockpro.New[D, Handle](capWeight, cfg.weightFn, s.onEvict)
	return s
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// onEvict is the clockpro eject callback: it removes the index entry (the
// teacher's original never did this — see internal/clockpro doc comment —
// so a pooled Get could return a handle whose backend resource had
// already been torn down) and invokes the pool's DestroyFunc, if any.
func (s *shard[D]) onEvict(desc D, h Handle, _ clockpro.EvictionReason) {
	delete(s.index, desc)
	s.evictions.Add(1)
	s.metrics.incEvict(s.idx)
	if s.destroyFn != nil {
		if err := s.destroyFn(context.Background(), h); err != nil {
			s.logger.Warn("rescache: destroy evicted handle failed", zap.Error(err))
		}
	}
}

// getOrCreate returns the pooled handle for desc, invoking create at most
// once across concurrent callers for the same descHash on a miss.
func (s *shard[D]) getOrCreate(ctx context.Context, descHash uint64, desc D, create CreateFunc[D]) (h Handle, hit bool, err error) {
	s.mu.RLock()
	if e, ok := s.index[desc]; ok {
		e.Touch()
		h = e.Handle
		s.mu.RUnlock()
		s.hits.Add(1)
		s.metrics.incHit(s.idx)
		return h, true, nil
	}
	s.mu.RUnlock()
	s.misses.Add(1)
	s.metrics.incMiss(s.idx)

	created, err, _ := s.loaders.do(ctx, descHash, func() (Handle, error) {
		return create(ctx, desc)
	})
	if err != nil {
		return Handle{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.index[desc]; ok {
		// Another goroutine inserted desc while we were outside the lock
		// (e.g. this call lost the singleflight race to a prior wave that
		// already committed). Reuse it rather than double-inserting.
		e.Touch()
		return e.Handle, true, nil
	}

	gen := s.gens.Active()
	weight := int64(1)
	e := &clockpro.Entry[D, Handle]{Desc: desc, Handle: created, GenID: gen.ID()}
	s.clock.Insert(e)
	weight = int64(e.Weight)
	s.index[desc] = e

	if s.gens.CheckRotationNeeded(weight) {
		s.rotate()
	}
	return created, false, nil
}

// evict removes desc from the shard directly, invoking DestroyFunc.
func (s *shard[D]) evict(ctx context.Context, desc D) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[desc]
	if !ok {
		return
	}
	delete(s.index, desc)
	s.clock.Remove(e)
	s.evictions.Add(1)
	s.metrics.incEvict(s.idx)
	if s.destroyFn != nil {
		if err := s.destroyFn(ctx, e.Handle); err != nil {
			s.logger.Warn("rescache: destroy failed", zap.Error(err))
		}
	}
}

func (s *shard[D]) rotate() {
	dead := s.gens.Rotate()
	s.rotations.Add(1)
	s.metrics.incRotation(s.idx)
	s.metrics.setWeightedSize(s.idx, s.clock.Size())
	s.logger.Debug("rescache: generation rotated", zap.Uint8("shard", s.idx))
	_ = dead // generation identifiers on resident entries remain valid scalars
}

func (s *shard[D]) len() int {
	s.mu.RLock()
	n := len(s.index)
	s.mu.RUnlock()
	return n
}

func (s *shard[D]) weightedSize() int64 {
	s.mu.RLock()
	n := s.clock.Size()
	s.mu.RUnlock()
	return n
}

func (s *shard[D]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = nil
	s.clock = nil
	s.gens = nil
}
