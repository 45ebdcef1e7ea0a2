package job

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRunAndWaitExecutesJob(t *testing.T) {
	q := Init(WithThreadCount(4))
	defer q.Destroy()

	token := q.AdoptThread()

	var ran atomic.Bool
	j := q.CreateJob(func() { ran.Store(true) }, nil)
	q.RunAndWait(token, j)

	if !ran.Load() {
		t.Fatal("job did not run")
	}
}

func TestParentWaitsForChildren(t *testing.T) {
	q := Init(WithThreadCount(4))
	defer q.Destroy()

	token := q.AdoptThread()

	var count atomic.Int32
	parent := q.CreateJob(func() {}, nil)
	for i := 0; i < 50; i++ {
		child := q.CreateJob(func() { count.Add(1) }, parent)
		q.RunJob(token, child)
	}
	q.RunJob(token, parent)
	q.WaitAndRelease(token, parent)

	if got := count.Load(); got != 50 {
		t.Fatalf("expected 50 children to run, got %d", got)
	}
}

func TestParallelForCoversWholeRange(t *testing.T) {
	q := Init(WithThreadCount(4))
	defer q.Destroy()

	token := q.AdoptThread()

	const n = 10000
	var seen [n]atomic.Bool
	q.ParallelFor(token, n, func(start, end int) {
		for i := start; i < end; i++ {
			seen[i].Store(true)
		}
	}, WithMinCount(16))

	for i := range seen {
		if !seen[i].Load() {
			t.Fatalf("index %d was never visited", i)
		}
	}
}

func TestAdoptThreadAllowsIndependentScheduling(t *testing.T) {
	q := Init(WithThreadCount(2))
	defer q.Destroy()

	done := make(chan struct{})
	go func() {
		token := q.AdoptThread()
		var ran atomic.Bool
		j := q.CreateJob(func() { ran.Store(true) }, nil)
		q.RunAndWait(token, j)
		if !ran.Load() {
			t.Error("adopted-thread job did not run")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("adopted thread job did not complete in time")
	}
}

func TestDestroyJoinsAllWorkers(t *testing.T) {
	q := Init(WithThreadCount(8))
	token := q.AdoptThread()

	var n atomic.Int32
	parent := q.CreateJob(func() {}, nil)
	for i := 0; i < 200; i++ {
		child := q.CreateJob(func() { n.Add(1) }, parent)
		q.RunJob(token, child)
	}
	q.RunJob(token, parent)
	q.WaitAndRelease(token, parent)

	q.Destroy()

	if n.Load() != 200 {
		t.Fatalf("expected all 200 jobs to run before destroy, got %d", n.Load())
	}
}
