package lane

import "context"

// outcome is the result of one lane operation.
type outcome struct {
	err      error
	panicked bool
	panicVal any
}

func (o outcome) failed() bool { return o.err != nil || o.panicked }

// Signal is a one-shot completion marker recorded against a point in a
// lane's enqueued work. It completes once every operation enqueued on the
// lane up to that point has finished and the device has retired them.
//
// A Signal may be waited on from any goroutine, any number of times.
type Signal struct {
	label string
	done  chan struct{}

	// Written once before done is closed.
	result outcome
}

func newSignal(label string) *Signal {
	return &Signal{label: label, done: make(chan struct{})}
}

// Completed returns a signal that is already complete with err.
func Completed(label string, err error) *Signal {
	s := newSignal(label)
	s.complete(outcome{err: err})
	return s
}

func (s *Signal) complete(o outcome) {
	s.result = o
	close(s.done)
}

// Label returns the name the signal was recorded with.
func (s *Signal) Label() string { return s.label }

// Done returns a channel closed when the signal completes.
func (s *Signal) Done() <-chan struct{} { return s.done }

// IsComplete reports whether the signal has completed without blocking.
func (s *Signal) IsComplete() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal completes and returns the error of the
// operation it marks, unmodified.
//
// If the operation panicked, Wait panics with the same value on the calling
// goroutine.
func (s *Signal) Wait() error {
	<-s.done
	return s.resolve()
}

// WaitContext is like Wait but returns ctx.Err() if ctx ends first.
// The signal itself is unaffected.
func (s *Signal) WaitContext(ctx context.Context) error {
	select {
	case <-s.done:
		return s.resolve()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the operation error if the signal has completed, nil otherwise.
// It never panics; a panicked operation reports ErrPanicked.
func (s *Signal) Err() error {
	if !s.IsComplete() {
		return nil
	}
	if s.result.panicked {
		return ErrPanicked
	}
	return s.result.err
}

func (s *Signal) resolve() error {
	if s.result.panicked {
		panic(s.result.panicVal)
	}
	return s.result.err
}
