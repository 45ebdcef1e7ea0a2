// Package cmdbucket implements a sorted command bucket: render commands are
// recorded into per-key packet chains and later dispatched in ascending key
// order, each chain executed front-to-back.
//
// Grounded on original_source/rpe/test/test_commands.c, the only surviving
// artifact of the command-bucket subsystem in the retrieval pack (the
// header/implementation themselves were filtered out) — this package's
// API shape and the append-extends-a-chain semantics are reconstructed
// from that test's usage, not ported line for line. The C original passed
// an explicit auxiliary data block ahead of each command struct so a
// dispatch callback (a bare function pointer with no captured state) could
// still reach extra data; Go closures capture their own state directly, so
// that block is dropped here and a command's dispatch function closes over
// whatever it needs instead. See SPEC_FULL.md §4 and DESIGN.md.
//
// © 2025 vkforge authors. MIT License.
package cmdbucket

import (
	"github.com/ashgrove/vkforge/internal/arena"
	"github.com/ashgrove/vkforge/internal/radixsort"
)

// Packet is one recorded command in a bucket. Packets created by
// AppendCommand are linked via next at the tail of an existing packet's
// chain and execute after every packet already in it during Submit,
// regardless of their own key.
type Packet struct {
	key  uint64
	next *Packet
	run  func(driver any)
}

// Bucket collects command packets keyed for a stable sort-by-key dispatch
// pass. All per-command storage is carved from arena, so a bucket is
// typically torn down by resetting (or discarding) that arena once
// Submit has run.
type Bucket struct {
	arena *arena.Arena
	heads []*Packet
}

// Init constructs an empty bucket. capacityHint seeds the initial head
// slice capacity; it has no correctness effect.
func Init(capacityHint int, a *arena.Arena) *Bucket {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Bucket{
		arena: a,
		heads: make([]*Packet, 0, capacityHint),
	}
}

// AddCommand allocates a new command of type T, keyed for sort order, and
// registers it as a new chain head. dispatch is invoked with driver and
// the allocated command during Submit. The returned packet is the chain
// head to pass to a later AppendCommand call.
func AddCommand[T any](b *Bucket, key uint64, dispatch func(driver any, cmd *T)) (*Packet, *T) {
	cmd := arena.New1[T](b.arena)
	pkt := &Packet{
		key: key,
		run: func(driver any) { dispatch(driver, cmd) },
	}
	b.heads = append(b.heads, pkt)
	return pkt, cmd
}

// AppendCommand extends prev's chain with a new command of type T. The new
// packet inherits no key of its own: it always runs immediately after prev
// (and anything already chained after prev), in the same dispatch pass as
// prev's chain head. The returned packet may itself be passed to a further
// AppendCommand call to extend the chain again.
func AppendCommand[T any](b *Bucket, prev *Packet, dispatch func(driver any, cmd *T)) (*Packet, *T) {
	cmd := arena.New1[T](b.arena)
	pkt := &Packet{
		run: func(driver any) { dispatch(driver, cmd) },
	}
	tail := prev
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = pkt
	return pkt, cmd
}

// Submit sorts chain heads by key (stably, via LSD radix sort) and
// dispatches every packet in every chain in that order, driver passed
// through to each dispatch callback unchanged.
func (b *Bucket) Submit(driver any) {
	n := len(b.heads)
	if n == 0 {
		return
	}
	keys := arena.MakeSlice[uint64](b.arena, n)
	order := arena.MakeSlice[uint64](b.arena, n)
	for i, h := range b.heads {
		keys[i] = h.key
		order[i] = uint64(i)
	}
	radixsort.Sort(keys, order, b.arena)

	for _, i := range order {
		for p := b.heads[i]; p != nil; p = p.next {
			p.run(driver)
		}
	}
	b.heads = b.heads[:0]
}
