// Package genring maintains a circular buffer ("ring") of generations, each
// owning a small scratch arena that is released in one shot when the
// generation rotates out of the window. Rotation is driven by a byte budget
// and the caller's Rotate calls, not by elapsed time. pkg/rescache uses the
// generation identifiers and the byte budget only; it does not allocate from
// the scratch arenas.
//
// Unlike the teacher's original genring, generations here never own the
// entries pkg/rescache actually indexes: clockpro.Entry values live on the
// normal Go heap (see pkg/rescache/shard.go), so releasing a generation's
// arena can never leave a dangling pointer inside a live entry. The ring
// only tracks a generation identifier and a rolling byte budget, used to
// decide when to rotate and to tag entries with the generation that
// produced them for diagnostics.
//
// genring does not use its own locks: the parent shard already serializes
// access with its own mutex, matching the concurrency note in spec.md §5
// ("the arena is not thread-safe; each thread either owns its own arena or
// allocates under an externally held lock").
//
// © 2025 vkforge authors. MIT License.
package genring

import (
	"sync/atomic"
	"time"

	"github.com/ashgrove/vkforge/internal/arena"
)

// scratchCapacity bounds each generation's arena. It is sized for
// descriptor-encoding scratch use, not for storing cached values (the
// teacher's original design), so it stays small and fixed regardless of
// the pool's overall capacity.
const scratchCapacity = 64 << 10 // 64 KiB

const defaultGenerations = 4

// Generation is one rotation slot: an identifier, a scratch arena, and an
// approximate byte-weight accounting used to decide when to rotate.
type Generation struct {
	id      uint32
	arena   *arena.Arena // nil once rotated out
	created time.Time
	bytes   atomic.Int64
}

func newGeneration(id uint32) *Generation {
	return &Generation{
		id:      id,
		arena:   arena.New(scratchCapacity, arena.SoftFail),
		created: time.Now(),
	}
}

// ID returns the stable identifier for the generation.
func (g *Generation) ID() uint32 { return g.id }

// Arena exposes the generation's scratch arena. It is valid until the
// generation rotates out: the Rotate call that drops the generation releases
// its arena before returning it, after which Arena returns nil.
func (g *Generation) Arena() *arena.Arena { return g.arena }

// Age reports how long ago the generation was created.
func (g *Generation) Age() time.Duration { return time.Since(g.created) }

func (g *Generation) addBytes(n int64) { g.bytes.Add(n) }
func (g *Generation) size() int64      { return g.bytes.Load() }

func (g *Generation) free() {
	if g.arena != nil {
		g.arena.Release()
		g.arena = nil
	}
}

// Ring is a fixed-size rotation of generations sized for a shard's byte
// budget and TTL.
type Ring struct {
	gens        []*Generation
	activeIdx   int
	ttl         time.Duration
	perGenBytes int64
	idCtr       atomic.Uint32
}

// New constructs a generation ring for a shard with the given byte budget
// (used purely to decide when CheckRotationNeeded fires) and TTL (informs
// Active().Age() callers; the ring itself does not time-trigger rotation —
// the caller decides when to call Rotate).
func New(capBytes int64, ttl time.Duration) *Ring {
	if capBytes <= 0 {
		panic("genring: capBytes must be positive")
	}
	if ttl <= 0 {
		panic("genring: ttl must be positive")
	}
	r := &Ring{
		ttl:         ttl,
		perGenBytes: capBytes / defaultGenerations,
	}
	if r.perGenBytes == 0 {
		r.perGenBytes = capBytes
	}
	r.gens = make([]*Generation, defaultGenerations)
	r.idCtr.Store(1)
	r.gens[0] = newGeneration(r.idCtr.Load())
	return r
}

// Active returns the generation currently handing out scratch space.
func (r *Ring) Active() *Generation { return r.gens[r.activeIdx] }

// CheckRotationNeeded records delta bytes against the active generation and
// reports whether its share of the byte budget has been exceeded.
func (r *Ring) CheckRotationNeeded(delta int64) bool {
	g := r.Active()
	g.addBytes(delta)
	return g.size() > r.perGenBytes
}

// Rotate advances the ring, allocating a fresh generation and freeing the
// arena of whichever generation falls out of the window. The freed
// generation is returned (nil before the ring is fully warmed up) so the
// caller can still read its ID for a brief grace period.
func (r *Ring) Rotate() *Generation {
	nextIdx := (r.activeIdx + 1) % len(r.gens)
	dead := r.gens[nextIdx]
	if dead != nil {
		dead.free()
	}
	newID := r.idCtr.Add(1)
	r.gens[nextIdx] = newGeneration(newID)
	r.activeIdx = nextIdx
	return dead
}

// LiveBytes sums the approximate byte accounting across all generations.
func (r *Ring) LiveBytes() int64 {
	var total int64
	for _, g := range r.gens {
		if g != nil {
			total += g.size()
		}
	}
	return total
}
