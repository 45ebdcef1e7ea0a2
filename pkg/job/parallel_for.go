package job

// parallel_for.go implements the recursive range-splitting helper described
// in SPEC_FULL.md §4: a single parent job is created up front, left/right
// halves are scheduled as its children recursively until a range is small
// enough or the split depth budget runs out, and one WaitAndRelease on the
// parent joins the whole tree.

const (
	defaultMaxSplit = 12
	defaultMinCount = 64
)

// ParallelForOption configures a single ParallelFor call.
type ParallelForOption func(*parallelForConfig)

type parallelForConfig struct {
	maxSplit int
	minCount int
}

func defaultParallelForConfig() *parallelForConfig {
	return &parallelForConfig{maxSplit: defaultMaxSplit, minCount: defaultMinCount}
}

// WithMaxSplit bounds the recursion depth of the range splitter.
func WithMaxSplit(n int) ParallelForOption {
	return func(c *parallelForConfig) { c.maxSplit = n }
}

// WithMinCount sets the split threshold: a range shorter than twice n is
// not split further and runs as a single job.
func WithMinCount(n int) ParallelForOption {
	return func(c *parallelForConfig) { c.minCount = n }
}

// ParallelFor splits [0, count) into ranges and runs fn(start, end) for
// each, parallelized across the Queue. It blocks until every range has
// completed.
func (q *Queue) ParallelFor(token ThreadToken, count int, fn func(start, end int), opts ...ParallelForOption) {
	if count <= 0 {
		return
	}
	cfg := defaultParallelForConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	parent := q.CreateJob(func() {}, nil)

	var split func(start, end, depth int)
	split = func(start, end, depth int) {
		n := end - start
		if depth >= cfg.maxSplit || n < 2*cfg.minCount {
			s, e := start, end
			child := q.CreateJob(func() { fn(s, e) }, parent)
			q.RunJob(token, child)
			return
		}
		mid := start + n/2
		split(start, mid, depth+1)
		split(mid, end, depth+1)
	}
	split(0, count, 0)

	// The parent's own run-count contribution (set to 1 at creation) is
	// only cleared by running the parent itself, same as any other job;
	// schedule it last so every child has already been queued.
	q.RunJob(token, parent)
	q.WaitAndRelease(token, parent)
}
