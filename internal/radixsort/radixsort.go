// Package radixsort implements an LSD **base-10** radix sort over uint64
// keys, carrying a parallel payload array through every pass so the result
// is a stable permutation of (key, payload) pairs.
//
// This is the exact algorithm used by
// original_source/libs/utility/src/utility/sort.c's count_sort/radix_sort:
// repeated stable counting sort keyed on successive decimal digits of the
// maximum key, not a binary/byte radix sort.
//
// © 2025 vkforge authors. MIT License.
package radixsort

import (
	"math"

	"github.com/ashgrove/vkforge/internal/arena"
)

// Sort permutes keys and payload in place so keys ends up non-decreasing;
// payload (e.g. original indices, or command-bucket packet indices) is
// carried through every pass in lockstep, so the caller can recover which
// original element ended up at each sorted position. Scratch buffers for
// the counting-sort passes are bump-allocated from a, not make(), so a
// hot sort path (e.g. cmdbucket.Submit) never triggers a per-frame
// garbage-collected allocation.
//
// Both slices must have equal, non-zero length.
func Sort(keys, payload []uint64, a *arena.Arena) {
	n := len(keys)
	if n == 0 {
		return
	}
	if len(payload) != n {
		panic("radixsort: keys and payload length mismatch")
	}

	max := keys[0]
	for _, k := range keys[1:] {
		if k > max {
			max = k
		}
	}

	tmpKeys := arena.MakeSlice[uint64](a, n)
	tmpPayload := arena.MakeSlice[uint64](a, n)

	for pos := uint64(1); max/pos > 0; pos *= 10 {
		countSortPass(keys, payload, tmpKeys, tmpPayload, pos)
		if pos > math.MaxUint64/10 {
			break // pos was already the highest decimal digit of a uint64
		}
	}
}

// countSortPass performs one stable counting-sort pass keyed on digit
// (key/pos)%10, writing the new order into keys/payload.
func countSortPass(keys, payload, tmpKeys, tmpPayload []uint64, pos uint64) {
	n := len(keys)
	var bucket [10]int

	for i := 0; i < n; i++ {
		bucket[(keys[i]/pos)%10]++
	}
	for i := 1; i < 10; i++ {
		bucket[i] += bucket[i-1]
	}
	for i := n - 1; i >= 0; i-- {
		digit := (keys[i] / pos) % 10
		bucket[digit]--
		tmpKeys[bucket[digit]] = keys[i]
		tmpPayload[bucket[digit]] = payload[i]
	}
	copy(keys, tmpKeys)
	copy(payload, tmpPayload)
}
