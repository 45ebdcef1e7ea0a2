// Package hashset implements a leap-frog open-addressing hash set: each
// slot stores {hash, value, delta[2]}, where delta[0] points to the first
// node displaced because of a collision at this slot ("child" chain) and
// delta[1] points to the next node in an existing chain ("sibling" chain).
// A zero delta means "no further link". Hash values 0 and math.MaxUint64
// are reserved as "empty" and "tombstone" sentinels respectively, so a
// user hash landing on either is remapped.
//
// Grounded on original_source/libs/utility/src/utility/hash_set.h's node
// layout and capacity/resize policy (initial capacity 255, doubling
// resize-on-full); the probing algorithm itself is original code written to
// match that layout, since the .c implementation was not present in the
// retrieval pack.
//
// © 2025 vkforge authors. MIT License.
package hashset

import "math"

const (
	hashEmpty     = 0
	hashTombstone = math.MaxUint64
	initCapacity  = 255
)

type node[V any] struct {
	hash     uint64
	value    V
	used     bool
	delta0   uint32 // offset to first child displaced by this slot
	delta1   uint32 // offset to next sibling in this slot's chain
}

// Set is a generic open-addressing hash set keyed by a precomputed 64-bit
// hash with leap-frog collision chaining.
type Set[K comparable, V any] struct {
	nodes    []node[V]
	keys     []K
	capacity uint32
	size     uint32
	hashFn   HashFunc[K]
}

// New constructs a hash set using the default murmur2 hasher.
func New[K comparable, V any]() *Set[K, V] {
	return NewWithHasher[K, V](DefaultHasher[K]())
}

// NewWithHasher constructs a hash set using a caller-supplied hasher (e.g.
// StringHasher for string-shaped keys).
func NewWithHasher[K comparable, V any](hashFn HashFunc[K]) *Set[K, V] {
	s := &Set[K, V]{
		nodes:    make([]node[V], initCapacity),
		keys:     make([]K, initCapacity),
		capacity: initCapacity,
		hashFn:   hashFn,
	}
	return s
}

func normalizeHash(h uint64) uint64 {
	if h == hashEmpty || h == hashTombstone {
		return 1
	}
	return h
}

func (s *Set[K, V]) slot(h uint64) uint32 {
	return uint32(h % uint64(s.capacity))
}

// find returns the slot index holding key, or false if absent.
func (s *Set[K, V]) find(key K, h uint64) (uint32, bool) {
	idx := s.slot(h)
	n := &s.nodes[idx]
	for {
		if n.used && n.hash == h && s.keys[idx] == key {
			return idx, true
		}
		if n.delta1 == 0 {
			return 0, false
		}
		idx = idx + n.delta1
		idx = idx % s.capacity
		n = &s.nodes[idx]
	}
}

// Get returns the value stored for key.
func (s *Set[K, V]) Get(key K) (V, bool) {
	h := normalizeHash(s.hashFn(key))
	idx, ok := s.find(key, h)
	if !ok {
		var zero V
		return zero, false
	}
	return s.nodes[idx].value, true
}

// Find reports whether key is present.
func (s *Set[K, V]) Find(key K) bool {
	_, ok := s.find(key, normalizeHash(s.hashFn(key)))
	return ok
}

// Insert adds key/value, growing the table first if it is full. If key
// already exists, its value is overwritten (matching hash_set_insert's
// upsert semantics).
func (s *Set[K, V]) Insert(key K, value V) {
	h := normalizeHash(s.hashFn(key))
	if idx, ok := s.find(key, h); ok {
		s.nodes[idx].value = value
		return
	}
	if s.size >= s.capacity {
		s.resize(s.capacity * 2)
	}
	s.insertInto(key, value, h)
	s.size++
}

// Set is an alias for Insert, matching hash_set_set's upsert-only contract.
func (s *Set[K, V]) Set(key K, value V) { s.Insert(key, value) }

func (s *Set[K, V]) insertInto(key K, value V, h uint64) {
	home := s.slot(h)
	if !s.nodes[home].used {
		// home may be a tombstone Erase left behind that is still a
		// mid-chain link for some other key's chain (Erase never touches
		// delta0/delta1), so its existing deltas must survive reuse or
		// that chain's tail becomes unreachable.
		d0, d1 := s.nodes[home].delta0, s.nodes[home].delta1
		s.nodes[home] = node[V]{hash: h, value: value, used: true, delta0: d0, delta1: d1}
		s.keys[home] = key
		return
	}
	// Home slot occupied by some other chain's member; walk to the end of
	// the chain rooted here (following delta1 sibling links) and link a
	// free slot found via linear probing.
	free := s.findFreeSlot(home)
	d0, d1 := s.nodes[free].delta0, s.nodes[free].delta1
	s.nodes[free] = node[V]{hash: h, value: value, used: true, delta0: d0, delta1: d1}
	s.keys[free] = key

	idx := home
	for s.nodes[idx].delta1 != 0 {
		idx = (idx + s.nodes[idx].delta1) % s.capacity
	}
	offset := free - idx
	if free < idx {
		offset = free + s.capacity - idx
	}
	s.nodes[idx].delta1 = offset
	if idx == home && s.nodes[home].delta0 == 0 {
		s.nodes[home].delta0 = offset
	}
}

func (s *Set[K, V]) findFreeSlot(from uint32) uint32 {
	idx := from
	for {
		idx = (idx + 1) % s.capacity
		if !s.nodes[idx].used {
			return idx
		}
		if idx == from {
			panic("hashset: no free slot found despite capacity check")
		}
	}
}

// Erase removes key and returns its value, if present. The slot's delta0/
// delta1 links are left intact: this slot may still be a link in another
// key's chain, and insertInto preserves them if the slot is later reused.
func (s *Set[K, V]) Erase(key K) (V, bool) {
	h := normalizeHash(s.hashFn(key))
	idx, ok := s.find(key, h)
	if !ok {
		var zero V
		return zero, false
	}
	v := s.nodes[idx].value
	s.nodes[idx].used = false
	s.nodes[idx].hash = hashTombstone
	var zeroKey K
	s.keys[idx] = zeroKey
	s.size--
	return v, true
}

// Clear empties the set without shrinking its backing storage.
func (s *Set[K, V]) Clear() {
	for i := range s.nodes {
		s.nodes[i] = node[V]{}
	}
	s.size = 0
}

// Len returns the number of live entries.
func (s *Set[K, V]) Len() int { return int(s.size) }

func (s *Set[K, V]) resize(newCapacity uint32) {
	old := s.nodes
	oldKeys := s.keys
	s.nodes = make([]node[V], newCapacity)
	s.keys = make([]K, newCapacity)
	s.capacity = newCapacity
	s.size = 0
	for i, n := range old {
		if n.used {
			s.Insert(oldKeys[i], n.value)
		}
	}
}

// Iterator walks live entries in slot order. Iteration order is not
// insertion order.
type Iterator[K comparable, V any] struct {
	set *Set[K, V]
	idx uint32
}

// Iter returns an iterator positioned before the first live entry.
func (s *Set[K, V]) Iter() *Iterator[K, V] {
	return &Iterator[K, V]{set: s, idx: 0}
}

// Next advances the iterator and returns the next live (key, value), or
// false once exhausted.
func (it *Iterator[K, V]) Next() (K, V, bool) {
	for it.idx < it.set.capacity {
		i := it.idx
		it.idx++
		if it.set.nodes[i].used {
			return it.set.keys[i], it.set.nodes[i].value, true
		}
	}
	var zk K
	var zv V
	return zk, zv, false
}

// Erase removes the entry the iterator last returned and returns an
// iterator positioned so a subsequent Next() yields the successor, matching
// hash_set_iter_erase's "erase returns successor" contract.
func (it *Iterator[K, V]) Erase() *Iterator[K, V] {
	if it.idx == 0 {
		return it
	}
	cur := it.idx - 1
	if it.set.nodes[cur].used {
		it.set.nodes[cur].used = false
		it.set.nodes[cur].hash = hashTombstone
		it.set.size--
	}
	return it
}
