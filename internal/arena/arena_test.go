package arena

import "testing"

func TestAllocBumpsOffset(t *testing.T) {
	a := New(4096, HardFail)
	defer a.Release()

	p := New1[int64](a)
	*p = 42
	if a.Offset() == 0 {
		t.Fatalf("expected non-zero offset after allocation")
	}
	if *p != 42 {
		t.Fatalf("value corrupted: got %d", *p)
	}
}

func TestAllocAlignment(t *testing.T) {
	a := New(4096, HardFail)
	defer a.Release()

	_ = a.Alloc(1, 1, 3, Uninitialized) // misalign the offset
	buf := a.Alloc(8, 8, 1, Zeroed)
	if len(buf) != 8 {
		t.Fatalf("expected 8 byte region, got %d", len(buf))
	}
	if a.Offset()%8 != 0 {
		t.Fatalf("expected 8-byte aligned offset, got %d", a.Offset())
	}
}

func TestAllocSoftFailReturnsNil(t *testing.T) {
	a := New(16, SoftFail)
	defer a.Release()

	buf := a.Alloc(1, 1, 1024, Uninitialized)
	if buf != nil {
		t.Fatalf("expected nil on exhaustion, got %d bytes", len(buf))
	}
}

func TestAllocHardFailPanics(t *testing.T) {
	a := New(16, HardFail)
	defer a.Release()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on exhaustion")
		}
	}()
	a.Alloc(1, 1, 1024, Uninitialized)
}

func TestResetRewindsOffset(t *testing.T) {
	a := New(4096, HardFail)
	defer a.Release()

	a.Alloc(64, 8, 1, Zeroed)
	if a.Offset() == 0 {
		t.Fatalf("expected allocation to advance offset")
	}
	a.Reset()
	if a.Offset() != 0 {
		t.Fatalf("expected Reset to rewind offset, got %d", a.Offset())
	}
}

func TestArrayGrowthDoubles(t *testing.T) {
	a := New(1<<20, HardFail)
	defer a.Release()

	arr := NewArray[int](a, 2)
	for i := 0; i < 10; i++ {
		arr.Append(i)
	}
	if arr.Len() != 10 {
		t.Fatalf("expected len 10, got %d", arr.Len())
	}
	// 10 appends from capacity 2 double it three times: 2 -> 4 -> 8 -> 16.
	if arr.Cap() != 16 {
		t.Fatalf("expected cap 16 after doubling growth, got %d", arr.Cap())
	}
	for i := 0; i < 10; i++ {
		if *arr.Get(i) != i {
			t.Fatalf("element %d corrupted: got %d", i, *arr.Get(i))
		}
	}
}

func TestArrayRemoveCompacts(t *testing.T) {
	a := New(1<<16, HardFail)
	defer a.Release()

	arr := NewArray[int](a, 4)
	arr.Append(1)
	arr.Append(2)
	arr.Append(3)
	arr.Remove(1)
	if arr.Len() != 2 {
		t.Fatalf("expected len 2, got %d", arr.Len())
	}
	if *arr.Get(0) != 1 || *arr.Get(1) != 3 {
		t.Fatalf("unexpected contents after remove: %v", arr.Slice())
	}
}
