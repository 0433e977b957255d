package concurrent

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrReactorStopped names the condition of a stopped reactor. Execute does
// not return it: tasks posted after Stop are silently dropped.
var ErrReactorStopped = errors.New("concurrent: reactor is stopped")

// ReactorOption configures a Reactor at construction time.
type ReactorOption func(*reactorConfig)

type reactorConfig struct {
	queueDepth int
}

// WithQueueDepth sets the reactor's task queue buffer depth. The default is
// 256, generous enough that a burst of I/O completions does not block the
// goroutines posting them.
func WithQueueDepth(depth int) ReactorOption {
	return func(c *reactorConfig) { c.queueDepth = depth }
}

// Reactor is a single-threaded FIFO task queue: the one true point of
// asynchronous completion every Connection, Acceptor and Session is driven
// through, so that per-connection work is always strictly serialized on one
// goroutine and never needs its own locking.
type Reactor struct {
	tasks   chan func()
	stopped atomic.Bool
	closeMu sync.Mutex
}

// NewReactor constructs a Reactor. It does not start running until Run or
// RunUntilIdle is called.
func NewReactor(opts ...ReactorOption) *Reactor {
	cfg := reactorConfig{queueDepth: 256}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Reactor{tasks: make(chan func(), cfg.queueDepth)}
}

// Execute posts task onto the reactor's queue. It is safe to call from any
// goroutine, including from within a task the reactor is currently running.
func (r *Reactor) Execute(task func()) {
	defer func() { recover() }()
	if r.stopped.Load() {
		return
	}
	r.tasks <- task
}

// Run drains the queue, executing each task in order, until Stop is called.
// It blocks the calling goroutine and is normally run on a dedicated
// goroutine for the lifetime of the process.
func (r *Reactor) Run() {
	for task := range r.tasks {
		task()
	}
}

// RunUntilIdle drains whatever tasks are queued right now, including tasks
// that queue further tasks, until the queue is momentarily empty. It never
// blocks waiting for new work, which makes it the deterministic "step the
// reactor" primitive for tests that drive the reactor without a second,
// always-running goroutine.
func (r *Reactor) RunUntilIdle() {
	for {
		select {
		case task := <-r.tasks:
			task()
		default:
			return
		}
	}
}

// Stop closes the task queue. Run returns once the queue drains; further
// calls to Execute are silently dropped.
func (r *Reactor) Stop() {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.stopped.CompareAndSwap(false, true) {
		close(r.tasks)
	}
}
