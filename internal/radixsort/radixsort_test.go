package radixsort

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/ashgrove/vkforge/internal/arena"
)

func testArena(t *testing.T) *arena.Arena {
	t.Helper()
	a := arena.New(1<<20, arena.SoftFail)
	t.Cleanup(a.Release)
	return a
}

func TestSortOrdersKeys(t *testing.T) {
	keys := []uint64{170, 45, 75, 90, 802, 24, 2, 66}
	payload := make([]uint64, len(keys))
	for i := range payload {
		payload[i] = uint64(i)
	}

	Sort(keys, payload, testArena(t))

	if !sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i] < keys[j] }) {
		t.Fatalf("keys not sorted: %v", keys)
	}
}

func TestSortIsStable(t *testing.T) {
	// Duplicate keys with distinguishable payloads should preserve relative
	// order among equal keys.
	keys := []uint64{5, 3, 5, 3, 5}
	payload := []uint64{0, 1, 2, 3, 4}

	Sort(keys, payload, testArena(t))

	var fivesOrder, threesOrder []uint64
	for i, k := range keys {
		if k == 5 {
			fivesOrder = append(fivesOrder, payload[i])
		} else if k == 3 {
			threesOrder = append(threesOrder, payload[i])
		}
	}
	wantFives := []uint64{0, 2, 4}
	wantThrees := []uint64{1, 3}
	for i := range wantFives {
		if fivesOrder[i] != wantFives[i] {
			t.Fatalf("fives not stable: got %v want %v", fivesOrder, wantFives)
		}
	}
	for i := range wantThrees {
		if threesOrder[i] != wantThrees[i] {
			t.Fatalf("threes not stable: got %v want %v", threesOrder, wantThrees)
		}
	}
}

func TestSortRandomMatchesReference(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	n := 500
	keys := make([]uint64, n)
	payload := make([]uint64, n)
	for i := range keys {
		keys[i] = uint64(r.Intn(1_000_000))
		payload[i] = uint64(i)
	}

	want := make([]uint64, n)
	copy(want, keys)
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	Sort(keys, payload, testArena(t))
	for i := range keys {
		if keys[i] != want[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, keys[i], want[i])
		}
	}
}
