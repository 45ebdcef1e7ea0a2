// Package arena provides a linear bump allocator. Memory is reserved once and
// handed out by simply advancing an offset; individual allocations are never
// freed, only the arena as a whole via Reset (rewind) or Release (unmap).
//
// This mirrors a manual C-style arena rather than Go's experimental
// goexperiment.arenas package: vkforge needs explicit begin/end/offset
// bookkeeping, alignment control and a soft-fail/hard-fail admission policy,
// none of which the experimental stdlib package exposes.
//
// © 2025 vkforge authors. MIT License.
package arena

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ashgrove/vkforge/internal/unsafehelpers"
)

// FailMode controls what happens when an allocation would exceed capacity.
type FailMode uint8

const (
	// HardFail panics on out-of-memory, mirroring the allocator's default
	// behaviour in the source engine.
	HardFail FailMode = iota
	// SoftFail returns nil on out-of-memory instead of panicking.
	SoftFail
)

// ZeroFill controls whether freshly bumped memory is zeroed before use.
type ZeroFill uint8

const (
	// Zeroed clears the allocated region before returning it.
	Zeroed ZeroFill = iota
	// Uninitialized skips zeroing; the caller must not rely on contents.
	Uninitialized
)

// Arena is a contiguous block of reserved memory handed out via bump
// allocation. It is not safe for concurrent use; callers serialise access
// themselves (as rescache's shards do with their own mutex).
type Arena struct {
	begin  []byte
	offset int
	mmap   bool
	fail   FailMode
}

// New reserves capacity bytes of memory. The block comes from an anonymous
// mmap (matching the source's ARENA_MEM_TYPE_VMEM mode); if the mmap call
// fails the arena falls back to a heap-allocated slab (ARENA_MEM_TYPE_STDLIB).
// The package imports golang.org/x/sys/unix unconditionally, so it builds
// only on Unix-like GOOS values; there is no Windows virtual-memory path.
func New(capacity int, fail FailMode) *Arena {
	if capacity <= 0 {
		panic("arena: capacity must be positive")
	}
	if buf, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE); err == nil {
		return &Arena{begin: buf, mmap: true, fail: fail}
	}
	return &Arena{begin: make([]byte, capacity), fail: fail}
}

// Cap returns the total reserved capacity in bytes.
func (a *Arena) Cap() int { return len(a.begin) }

// Offset returns the current bump offset (bytes in use).
func (a *Arena) Offset() int { return a.offset }

// Alloc reserves count*typeSize bytes aligned to align (which must be a
// power of two) and returns a []byte view of the region. Returns nil when
// the arena is exhausted and FailMode is SoftFail; panics otherwise.
func (a *Arena) Alloc(typeSize, align, count int, zero ZeroFill) []byte {
	if typeSize <= 0 || count < 0 {
		panic("arena: invalid allocation size")
	}
	if count == 0 {
		return nil
	}
	if !unsafehelpers.IsPowerOfTwo(uintptr(align)) {
		panic("arena: align must be a power of two")
	}
	aligned := int(unsafehelpers.AlignUp(uintptr(a.offset), uintptr(align)))
	need := typeSize * count
	end := aligned + need
	if end > len(a.begin) {
		if a.fail == SoftFail {
			return nil
		}
		panic(fmt.Sprintf("arena: out of memory: need %d bytes, have %d/%d used", need, a.offset, len(a.begin)))
	}
	region := a.begin[aligned:end]
	a.offset = end
	if zero == Zeroed {
		for i := range region {
			region[i] = 0
		}
	}
	return region
}

// AllocBytes copies buf into the arena and returns the new, arena-owned
// slice.
func (a *Arena) AllocBytes(buf []byte) []byte {
	dst := a.Alloc(1, 1, len(buf), Uninitialized)
	copy(dst, buf)
	return dst
}

// New1 allocates a zeroed T inside the arena and returns a pointer to it.
func New1[T any](a *Arena) *T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	buf := a.Alloc(size, align, 1, Zeroed)
	if buf == nil {
		return nil
	}
	return (*T)(unsafe.Pointer(&buf[0]))
}

// MakeSlice allocates n zeroed Ts and returns them as a slice whose backing
// array is owned by the arena.
func MakeSlice[T any](a *Arena, n int) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	buf := a.Alloc(size, align, n, Zeroed)
	if buf == nil {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), n)
}

// Reset rewinds the offset to zero without releasing the reserved memory.
// No individual deallocations are performed; previously returned pointers
// become invalid for reuse by the caller's own convention.
func (a *Arena) Reset() {
	a.offset = 0
}

// Release returns the reserved memory to the operating system (or drops the
// heap slab for GC). After Release the arena must not be used again.
func (a *Arena) Release() {
	if a.mmap && a.begin != nil {
		_ = unix.Munmap(a.begin)
	}
	a.begin = nil
	a.offset = 0
}
