package parallel

import (
	"sync"
	"sync/atomic"
)

// SerialQueue runs submitted work on a single goroutine in submission order.
//
// It is the execution engine behind a lane: everything submitted to one
// SerialQueue happens-before everything submitted after it. Work is never
// stolen or reordered.
//
// Thread safety: Submit may be called from any goroutine.
type SerialQueue struct {
	// work is the ordered backlog.
	work chan func()

	// done signals the worker to stop.
	done chan struct{}

	// wg waits for the worker to finish.
	wg sync.WaitGroup

	// submitMu orders Submit against Close so that no work is sent after
	// the worker has drained.
	submitMu sync.RWMutex

	// running indicates whether the queue is accepting work.
	running atomic.Bool
}

// DefaultQueueDepth is the backlog size used when depth <= 0.
const DefaultQueueDepth = 64

// NewSerialQueue creates a queue with the given backlog depth and starts its
// worker. If depth is 0 or negative, DefaultQueueDepth is used.
func NewSerialQueue(depth int) *SerialQueue {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}

	q := &SerialQueue{
		work: make(chan func(), depth),
		done: make(chan struct{}),
	}
	q.running.Store(true)

	q.wg.Add(1)
	go q.worker()

	return q
}

// worker is the main loop of the queue goroutine.
func (q *SerialQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.done:
			// Drain remaining work before exiting
			q.drain()
			return
		case fn := <-q.work:
			if fn != nil {
				fn()
			}
		}
	}
}

// drain executes everything still buffered, in order.
func (q *SerialQueue) drain() {
	for {
		select {
		case fn := <-q.work:
			if fn != nil {
				fn()
			}
		default:
			return
		}
	}
}

// Submit appends fn to the backlog. It blocks while the backlog is full.
// Returns false if the queue is closed and fn was not accepted.
func (q *SerialQueue) Submit(fn func()) bool {
	if fn == nil {
		return false
	}

	q.submitMu.RLock()
	defer q.submitMu.RUnlock()

	if !q.running.Load() {
		return false
	}
	q.work <- fn
	return true
}

// Close stops accepting work, runs everything already submitted, and waits
// for the worker to exit. Close is safe to call multiple times.
func (q *SerialQueue) Close() {
	q.submitMu.Lock()
	if !q.running.CompareAndSwap(true, false) {
		q.submitMu.Unlock()
		return
	}
	q.submitMu.Unlock()

	close(q.done)
	q.wg.Wait()
}

// IsRunning returns true if the queue is still accepting work.
func (q *SerialQueue) IsRunning() bool {
	return q.running.Load()
}
