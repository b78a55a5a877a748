package lane

import (
	"context"
	"fmt"
	"sync"

	"code.hybscloud.com/atomix"

	"github.com/gogpu/overlap/internal/parallel"
)

// Lane is an ordered asynchronous command queue bound to one device.
//
// Enqueue and WaitSignal never block the caller (beyond backlog
// backpressure); operations run on the lane's own goroutine in the order
// they were enqueued. A lane's index never changes.
//
// Lane is safe for concurrent use, but operations enqueued concurrently from
// several goroutines are ordered arbitrarily relative to each other.
type Lane struct {
	index    int
	device   DeviceID
	priority Priority
	label    string

	exec      *parallel.SerialQueue
	queue     Queue
	closeOnce sync.Once

	submitted atomix.Uint64
	retired   atomix.Uint64

	// upstream holds a dependency failure observed by a barrier, consumed by
	// the next operation. Only touched on the lane goroutine.
	upstream *outcome
}

// New opens a device queue and starts a lane on it.
func New(dev Device, index int, priority Priority, label string) (*Lane, error) {
	if dev == nil {
		return nil, fmt.Errorf("lane: device is required")
	}
	if !dev.Available() {
		return nil, fmt.Errorf("lane: device %q is not available", dev.Name())
	}
	q, err := dev.OpenQueue(index, priority)
	if err != nil {
		return nil, fmt.Errorf("lane: open queue %d on %s: %w", index, dev.Name(), err)
	}
	return &Lane{
		index:    index,
		device:   dev.ID(),
		priority: priority,
		label:    label,
		exec:     parallel.NewSerialQueue(0),
		queue:    q,
	}, nil
}

// Index returns the lane index.
func (l *Lane) Index() int { return l.index }

// Device returns the device the lane is bound to.
func (l *Lane) Device() DeviceID { return l.device }

// Priority returns the lane priority hint.
func (l *Lane) Priority() Priority { return l.priority }

// Label returns the lane's descriptive name.
func (l *Lane) Label() string { return l.label }

// Pending returns the number of enqueued operations that have not retired.
func (l *Lane) Pending() uint64 {
	return l.submitted.LoadAcquire() - l.retired.LoadAcquire()
}

// Enqueue appends fn to the lane and records a signal immediately after it.
//
// fn runs on the lane goroutine. Its error, or a panic, becomes the signal's
// outcome. If the lane previously waited on a failed signal, fn is skipped
// and the failure is forwarded instead.
func (l *Lane) Enqueue(label string, fn func() error) *Signal {
	sig := newSignal(label)
	l.submitted.AddAcqRel(1)
	ok := l.exec.Submit(func() {
		var o outcome
		if l.upstream != nil {
			o, l.upstream = *l.upstream, nil
		} else {
			o = invoke(fn)
		}
		l.retire(label, &o)
		sig.complete(o)
	})
	if !ok {
		l.retired.AddAcqRel(1)
		sig.complete(outcome{err: ErrLaneClosed})
	}
	return sig
}

// WaitSignal makes all work enqueued on l after this call wait until sig
// completes. The caller is not blocked.
//
// If sig completes with a failure, the next operation enqueued on l is
// skipped and inherits that failure.
func (l *Lane) WaitSignal(sig *Signal) {
	if sig == nil {
		return
	}
	l.exec.Submit(func() {
		<-sig.Done()
		if sig.result.failed() {
			o := sig.result
			l.upstream = &o
		}
	})
}

// Record returns a signal that completes once everything enqueued so far has
// finished. A dependency failure waiting to be forwarded is left in place.
func (l *Lane) Record(label string) *Signal {
	sig := newSignal(label)
	l.submitted.AddAcqRel(1)
	ok := l.exec.Submit(func() {
		var o outcome
		l.retire(label, &o)
		sig.complete(o)
	})
	if !ok {
		l.retired.AddAcqRel(1)
		sig.complete(outcome{err: ErrLaneClosed})
	}
	return sig
}

// Synchronize blocks until all work enqueued on the lane has retired on the
// device. A dependency failure waiting to be forwarded is left in place.
func (l *Lane) Synchronize(ctx context.Context) error {
	return l.settle(ctx, "synchronize", false)
}

// Recover is Synchronize for the lane's owner after an abort: it also
// discards a dependency failure that no operation consumed, so later work
// runs normally.
func (l *Lane) Recover(ctx context.Context) error {
	return l.settle(ctx, "recover", true)
}

func (l *Lane) settle(ctx context.Context, label string, discard bool) error {
	sig := newSignal(label)
	l.submitted.AddAcqRel(1)
	ok := l.exec.Submit(func() {
		var o outcome
		if discard {
			l.upstream = nil
		}
		l.retire(label, &o)
		sig.complete(o)
	})
	if !ok {
		l.retired.AddAcqRel(1)
		return nil
	}
	return sig.WaitContext(ctx)
}

// Close drains the lane and releases its device queue.
// Close is safe to call multiple times.
func (l *Lane) Close() {
	l.closeOnce.Do(func() {
		l.exec.Close()
		l.queue.Close()
	})
}

// retire waits for the device to catch up and counts the operation.
// A device failure is reported only when the operation itself succeeded.
func (l *Lane) retire(label string, o *outcome) {
	if err := l.queue.Retire(label); err != nil && !o.failed() {
		o.err = err
	}
	l.retired.AddAcqRel(1)
}

// invoke runs fn and captures its error or panic.
func invoke(fn func() error) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{panicked: true, panicVal: r}
		}
	}()
	if fn == nil {
		return outcome{}
	}
	return outcome{err: fn()}
}
