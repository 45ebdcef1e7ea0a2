// Package job implements a work-stealing job scheduler: a fixed pool of
// worker goroutines (plus goroutines explicitly adopted by the caller),
// each backed by its own work-stealing deque, scheduling arbitrary
// closures with parent/child completion tracking so a single wait call can
// join an entire job tree.
//
// Grounded on
// original_source/libs/utility/src/utility/job_queue.h/.c: Job/ThreadInfo
// layout, ref_count/run_count propagation, the park/wake protocol and the
// parallel_for recursive splitter. See SPEC_FULL.md §3/§9 for the
// ThreadToken adaptation replacing the source's OS-thread-id lookup.
//
// © 2025 vkforge authors. MIT License.
package job

import (
	"math"
	"sync/atomic"
)

// MaxThreadCount bounds the number of pool workers plus adopted threads a
// single Queue can track, matching JOB_QUEUE_MAX_THREAD_COUNT.
const MaxThreadCount = 32

// ringSize is the fixed per-thread work-stealing deque capacity, matching
// JOB_QUEUE_MAX_JOB_COUNT.
const ringSize = 1024

const noParent = math.MaxUint32

// Func is the work performed by a Job. Unlike the source's func(void*)
// pair, Go closures capture their own arguments, so no separate args
// pointer is needed.
type Func func()

// Job is a single unit of schedulable work. Fields are arranged so the
// struct occupies close to one cache line on 64-bit platforms, avoiding
// false sharing between jobs executed by different workers; Job is always
// heap-allocated directly (never arena-backed), since fn is a closure that
// may hold Go-GC-tracked pointers the arena's raw memory would hide from
// the collector.
type Job struct {
	fn        Func
	refCount  atomic.Int32
	runCount  atomic.Int32
	parentIdx uint32
	idx       uint32
	_         [32]byte // pad toward a 64-byte cache line
}

// Done reports whether the job and all of its descendants have finished
// running.
func (j *Job) Done() bool {
	return j.runCount.Load() <= 0
}
