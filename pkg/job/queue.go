package job

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ashgrove/vkforge/internal/hashset"
	"github.com/ashgrove/vkforge/internal/wsqueue"
	"github.com/ashgrove/vkforge/internal/xoro"
)

// ThreadToken is an opaque handle identifying a goroutine registered with a
// Queue, either a pool worker or a caller that went through AdoptThread.
// Go goroutines have no stable OS-thread identity to key a registry by (the
// way the source keys thread_map by gettid()), so callers thread this token
// explicitly through RunJob/RunAndWait/WaitAndRelease instead.
type ThreadToken uint64

type threadInfo struct {
	deque    *wsqueue.Deque[uint32]
	rng      *xoro.Rand
	token    ThreadToken
	joinable bool
}

// Queue is a work-stealing job scheduler.
type Queue struct {
	jobsMu   sync.Mutex
	jobCache []*Job

	threadsMu sync.Mutex
	threads   []*threadInfo // pool workers first, then adopted threads
	poolCount int
	tokenMap  *hashset.Set[ThreadToken, *threadInfo]
	nextToken atomic.Uint64

	activeJobs    atomic.Int32
	exitRequested atomic.Bool

	waitMu   sync.Mutex
	waitCond *sync.Cond

	wg sync.WaitGroup

	logger  *zap.Logger
	metrics metricsSink
}

// Init constructs a Queue and starts its pool workers.
func Init(opts ...Option) *Queue {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	n := cfg.threadCount
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	if n > MaxThreadCount {
		n = MaxThreadCount
	}

	q := &Queue{
		logger:   cfg.logger,
		metrics:  newMetricsSink(cfg.registry),
		tokenMap: hashset.New[ThreadToken, *threadInfo](),
	}
	q.waitCond = sync.NewCond(&q.waitMu)

	for i := 0; i < n; i++ {
		token := ThreadToken(q.nextToken.Add(1))
		info := &threadInfo{
			deque:    wsqueue.New[uint32](ringSize),
			rng:      xoro.New(uint32(token), 0x1234),
			token:    token,
			joinable: true,
		}
		q.threads = append(q.threads, info)
		q.tokenMap.Insert(token, info)
		q.poolCount++

		q.wg.Add(1)
		go q.threadLoop(info)
	}

	q.logger.Info("job queue started", zap.Int("threads", n))
	return q
}

// Destroy signals every pool worker to exit and blocks until they have all
// joined. Adopted threads are never joined (they were never spawned by the
// Queue); the caller is responsible for their lifetime.
func (q *Queue) Destroy() {
	q.exitRequested.Store(true)
	q.waitMu.Lock()
	q.waitCond.Broadcast()
	q.waitMu.Unlock()
	q.wg.Wait()
	q.logger.Info("job queue destroyed")
}

// CreateJob allocates a new job. If parent is non-nil, the parent's
// run-count is bumped so that waiting on parent also waits for this job
// (and any of its own children).
func (q *Queue) CreateJob(fn Func, parent *Job) *Job {
	j := &Job{fn: fn, parentIdx: noParent}
	j.refCount.Store(1)
	j.runCount.Store(1)
	if parent != nil {
		parent.runCount.Add(1)
		j.parentIdx = parent.idx
	}

	q.jobsMu.Lock()
	j.idx = uint32(len(q.jobCache))
	q.jobCache = append(q.jobCache, j)
	q.jobsMu.Unlock()
	return j
}

func (q *Queue) getJob(idx uint32) *Job {
	q.jobsMu.Lock()
	j := q.jobCache[idx]
	q.jobsMu.Unlock()
	return j
}

// AdoptThread registers the calling goroutine with the Queue so it may run
// RunJob/RunAndWait/WaitAndRelease, returning a token to pass to those
// calls. Adopted threads never run the background pool loop; they drive
// execution only while blocked inside WaitAndRelease/RunAndWait.
func (q *Queue) AdoptThread() ThreadToken {
	token := ThreadToken(q.nextToken.Add(1))

	q.threadsMu.Lock()
	defer q.threadsMu.Unlock()
	if len(q.threads) >= MaxThreadCount {
		panic("job: adopted thread count would exceed MaxThreadCount")
	}
	info := &threadInfo{
		deque:    wsqueue.New[uint32](ringSize),
		rng:      xoro.New(uint32(token), 0x1234),
		token:    token,
		joinable: false,
	}
	q.threads = append(q.threads, info)
	q.tokenMap.Insert(token, info)
	q.logger.Debug("thread adopted", zap.Uint64("token", uint64(token)))
	return token
}

func (q *Queue) threadInfoFor(token ThreadToken) *threadInfo {
	q.threadsMu.Lock()
	info, ok := q.tokenMap.Get(token)
	q.threadsMu.Unlock()
	if !ok {
		panic("job: unknown ThreadToken - was the goroutine adopted or spawned by this Queue?")
	}
	return info
}

func (q *Queue) hasActiveJobs() bool {
	return q.activeJobs.Load() > 0
}

func (q *Queue) wake(count int) {
	q.waitMu.Lock()
	if count == 1 {
		q.waitCond.Signal()
	} else {
		q.waitCond.Broadcast()
	}
	q.waitMu.Unlock()
}

func (q *Queue) wakeAll() {
	q.waitMu.Lock()
	q.waitCond.Broadcast()
	q.waitMu.Unlock()
}

func (q *Queue) push(info *threadInfo, idx uint32) {
	info.deque.Push(idx)
	old := q.activeJobs.Add(1) - 1
	if old >= 0 {
		q.wake(int(old + 1))
	}
}

func (q *Queue) pop(info *threadInfo) (*Job, bool) {
	q.activeJobs.Add(-1)
	idx, ok := info.deque.Pop()
	var j *Job
	if ok {
		j = q.getJob(idx)
	}
	if j == nil {
		old := q.activeJobs.Add(1) - 1
		if old >= 0 {
			q.wake(int(old + 1))
		}
	}
	return j, j != nil
}

func (q *Queue) stealFromQueue(victim *threadInfo) (*Job, bool) {
	q.activeJobs.Add(-1)
	idx, ok := victim.deque.Steal()
	var j *Job
	if ok {
		j = q.getJob(idx)
	}
	if j == nil {
		old := q.activeJobs.Add(1) - 1
		if old >= 0 {
			q.wake(int(old + 1))
		}
		q.metrics.incStealMiss()
	} else {
		q.metrics.incSteal()
	}
	return j, j != nil
}

func (q *Queue) stealFromState(self *threadInfo) (*Job, bool) {
	for {
		q.threadsMu.Lock()
		n := len(q.threads)
		var victim *threadInfo
		if n >= 2 {
			for {
				cand := q.threads[self.rng.Intn(n)]
				if cand != self {
					victim = cand
					break
				}
			}
		}
		q.threadsMu.Unlock()

		if victim == nil {
			if !q.hasActiveJobs() {
				return nil, false
			}
			continue
		}
		if j, ok := q.stealFromQueue(victim); ok {
			return j, true
		}
		if !q.hasActiveJobs() {
			return nil, false
		}
	}
}

func (q *Queue) jobCompleted(j *Job) bool { return j.Done() }

func (q *Queue) decrementRef(j *Job) {
	c := j.refCount.Add(-1)
	if c < 0 {
		panic("job: ref count underflow")
	}
	// No job-cache compaction on refCount reaching zero: the source's own
	// job_queue.c leaves this as an open TODO ("delete job from array"),
	// and nothing in this scheduler requires reclaiming job slots eagerly.
}

func (q *Queue) threadFinish(j *Job) {
	wake := false
	cur := j
	for cur != nil {
		newVal := cur.runCount.Add(-1)
		oldVal := newVal + 1
		if oldVal != 1 {
			break
		}
		var parent *Job
		if cur.parentIdx != noParent {
			parent = q.getJob(cur.parentIdx)
		}
		q.decrementRef(cur)
		cur = parent
		wake = true
	}
	if wake {
		q.wakeAll()
	}
}

func (q *Queue) threadExecute(info *threadInfo) (*Job, bool) {
	j, ok := q.pop(info)
	if !ok {
		j, ok = q.stealFromState(info)
	}
	q.metrics.setActiveJobs(int64(q.activeJobs.Load()))
	if ok {
		j.fn()
		q.metrics.incRun()
		q.threadFinish(j)
	}
	return j, ok
}

func (q *Queue) threadLoop(info *threadInfo) {
	defer q.wg.Done()
	for {
		_, ok := q.threadExecute(info)
		if !ok {
			q.waitMu.Lock()
			for !q.exitRequested.Load() && !q.hasActiveJobs() {
				q.waitCond.Wait()
			}
			q.waitMu.Unlock()
		}
		if q.exitRequested.Load() {
			return
		}
	}
}

// RunJob schedules job for execution on the calling goroutine's worker
// deque. The caller must have been adopted (AdoptThread) or be a pool
// worker's own goroutine.
func (q *Queue) RunJob(token ThreadToken, j *Job) {
	info := q.threadInfoFor(token)
	q.push(info, j.idx)
}

// RunAndWait schedules job and blocks the caller until it (and its
// descendants) complete, helping execute other queued work in the
// meantime.
func (q *Queue) RunAndWait(token ThreadToken, j *Job) {
	j.refCount.Add(1)
	q.RunJob(token, j)
	q.WaitAndRelease(token, j)
}

// WaitAndRelease blocks the calling goroutine until job completes,
// executing other queued/stolen jobs while it waits, then releases the
// caller's reference to job.
func (q *Queue) WaitAndRelease(token ThreadToken, j *Job) {
	info := q.threadInfoFor(token)
	for {
		_, executed := q.threadExecute(info)
		if !executed {
			if q.jobCompleted(j) {
				break
			}
			q.waitMu.Lock()
			if !q.jobCompleted(j) && !q.exitRequested.Load() && !q.hasActiveJobs() {
				q.waitCond.Wait()
			}
			q.waitMu.Unlock()
		}
		if q.jobCompleted(j) || q.exitRequested.Load() {
			break
		}
	}
	q.decrementRef(j)
}
