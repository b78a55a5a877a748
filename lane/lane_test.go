package lane

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeDevice implements Device for testing.
type fakeDevice struct {
	available bool
	openErr   error
	retireErr error

	mu      sync.Mutex
	opened  []int
	retired atomic.Int64
	closed  atomic.Int64
}

func (d *fakeDevice) Name() string    { return "fake" }
func (d *fakeDevice) ID() DeviceID    { return 7 }
func (d *fakeDevice) Available() bool { return d.available }
func (d *fakeDevice) Close()          {}

func (d *fakeDevice) OpenQueue(index int, _ Priority) (Queue, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.mu.Lock()
	d.opened = append(d.opened, index)
	d.mu.Unlock()
	return &fakeQueue{dev: d}, nil
}

type fakeQueue struct{ dev *fakeDevice }

func (q *fakeQueue) Retire(string) error {
	q.dev.retired.Add(1)
	return q.dev.retireErr
}

func (q *fakeQueue) Close() { q.dev.closed.Add(1) }

func newTestLane(t *testing.T, dev *fakeDevice, index int) *Lane {
	t.Helper()
	l, err := New(dev, index, PriorityDefault, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(l.Close)
	return l
}

// =============================================================================
// Construction
// =============================================================================

func TestNew(t *testing.T) {
	dev := &fakeDevice{available: true}
	l, err := New(dev, 3, PriorityHigh, "compute")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer l.Close()

	if l.Index() != 3 {
		t.Errorf("Index() = %d, want 3", l.Index())
	}
	if l.Device() != 7 {
		t.Errorf("Device() = %d, want 7", l.Device())
	}
	if l.Priority() != PriorityHigh {
		t.Errorf("Priority() = %v, want High", l.Priority())
	}
	if l.Label() != "compute" {
		t.Errorf("Label() = %q, want compute", l.Label())
	}
	if len(dev.opened) != 1 || dev.opened[0] != 3 {
		t.Errorf("opened queues = %v, want [3]", dev.opened)
	}
}

func TestNew_Errors(t *testing.T) {
	openErr := errors.New("no queue")
	tests := []struct {
		name string
		dev  Device
	}{
		{"nil device", nil},
		{"unavailable", &fakeDevice{available: false}},
		{"open fails", &fakeDevice{available: true, openErr: openErr}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.dev, 0, PriorityDefault, "x")
			if err == nil {
				l.Close()
				t.Fatal("New() error = nil, want error")
			}
		})
	}
}

func TestNew_WrapsOpenError(t *testing.T) {
	openErr := errors.New("no queue")
	_, err := New(&fakeDevice{available: true, openErr: openErr}, 0, PriorityDefault, "x")
	if !errors.Is(err, openErr) {
		t.Errorf("New() error = %v, want wrapping %v", err, openErr)
	}
}

// =============================================================================
// Ordering
// =============================================================================

func TestLane_EnqueueOrder(t *testing.T) {
	l := newTestLane(t, &fakeDevice{available: true}, 0)

	var mu sync.Mutex
	var got []int
	var last *Signal
	for i := range 100 {
		last = l.Enqueue("op", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		})
	}
	if err := last.Wait(); err != nil {
		t.Fatalf("Wait() = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("op %d ran at position %d", v, i)
		}
	}
	if len(got) != 100 {
		t.Fatalf("ran %d ops, want 100", len(got))
	}
}

func TestLane_RetiresEveryOperation(t *testing.T) {
	dev := &fakeDevice{available: true}
	l := newTestLane(t, dev, 0)

	for range 5 {
		l.Enqueue("op", func() error { return nil })
	}
	if err := l.Synchronize(context.Background()); err != nil {
		t.Fatalf("Synchronize() = %v", err)
	}
	if got := dev.retired.Load(); got != 6 {
		t.Errorf("retired = %d, want 6 (5 ops + synchronize)", got)
	}
	if l.Pending() != 0 {
		t.Errorf("Pending() = %d after Synchronize, want 0", l.Pending())
	}
}

// =============================================================================
// Cross-lane dependencies
// =============================================================================

func TestLane_WaitSignalOrdersAcrossLanes(t *testing.T) {
	dev := &fakeDevice{available: true}
	producer := newTestLane(t, dev, 0)
	consumer := newTestLane(t, dev, 1)

	release := make(chan struct{})
	var produced atomic.Bool
	sigP := producer.Enqueue("produce", func() error {
		<-release
		produced.Store(true)
		return nil
	})

	consumer.WaitSignal(sigP)
	var sawProduced atomic.Bool
	sigC := consumer.Enqueue("consume", func() error {
		sawProduced.Store(produced.Load())
		return nil
	})

	// WaitSignal must not block the host.
	select {
	case <-sigC.Done():
		t.Fatal("consumer completed before producer was released")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	if err := sigC.Wait(); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if !sawProduced.Load() {
		t.Error("consumer ran before producer finished")
	}
}

func TestLane_WaitSignalForwardsFailure(t *testing.T) {
	dev := &fakeDevice{available: true}
	producer := newTestLane(t, dev, 0)
	consumer := newTestLane(t, dev, 1)

	boom := errors.New("transform failed")
	sigP := producer.Enqueue("produce", func() error { return boom })

	consumer.WaitSignal(sigP)
	var ran atomic.Bool
	sigC := consumer.Enqueue("consume", func() error {
		ran.Store(true)
		return nil
	})

	if err := sigC.Wait(); err != boom {
		t.Errorf("Wait() = %v, want %v unmodified", err, boom)
	}
	if ran.Load() {
		t.Error("dependent operation ran after failed dependency")
	}

	// The failure is consumed once; later work runs normally.
	sig := consumer.Enqueue("next", func() error { return nil })
	if err := sig.Wait(); err != nil {
		t.Errorf("next Wait() = %v, want nil", err)
	}
}

func TestLane_SynchronizeKeepsPendingFailure(t *testing.T) {
	dev := &fakeDevice{available: true}
	l := newTestLane(t, dev, 0)

	stale := errors.New("stale")
	l.WaitSignal(Completed("failed", stale))
	if err := l.Synchronize(context.Background()); err != nil {
		t.Fatalf("Synchronize() = %v", err)
	}

	var ran atomic.Bool
	sig := l.Enqueue("op", func() error {
		ran.Store(true)
		return nil
	})
	if err := sig.Wait(); err != stale {
		t.Errorf("Wait() = %v, want forwarded %v", err, stale)
	}
	if ran.Load() {
		t.Error("operation ran on a failed dependency after Synchronize")
	}
}

func TestLane_RecoverDiscardsUnconsumedFailure(t *testing.T) {
	dev := &fakeDevice{available: true}
	l := newTestLane(t, dev, 0)

	l.WaitSignal(Completed("failed", errors.New("stale")))
	if err := l.Recover(context.Background()); err != nil {
		t.Fatalf("Recover() = %v", err)
	}
	if err := l.Enqueue("op", func() error { return nil }).Wait(); err != nil {
		t.Errorf("Wait() = %v, want nil after Recover", err)
	}
	if got := dev.retired.Load(); got != 2 {
		t.Errorf("retired = %d, want 2 (recover + op)", got)
	}
}

// =============================================================================
// Failures
// =============================================================================

func TestLane_PanicPropagatesToWaiter(t *testing.T) {
	l := newTestLane(t, &fakeDevice{available: true}, 0)

	sig := l.Enqueue("op", func() error { panic("kaboom") })

	defer func() {
		if r := recover(); r != "kaboom" {
			t.Errorf("recovered %v, want kaboom", r)
		}
	}()
	<-sig.Done()
	if err := sig.Err(); !errors.Is(err, ErrPanicked) {
		t.Errorf("Err() = %v, want ErrPanicked", err)
	}
	_ = sig.Wait()
	t.Error("Wait() returned, want panic")
}

func TestLane_PanicDoesNotKillLane(t *testing.T) {
	l := newTestLane(t, &fakeDevice{available: true}, 0)

	l.Enqueue("op", func() error { panic("kaboom") })
	sig := l.Enqueue("after", func() error { return nil })
	if err := sig.Wait(); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}

func TestLane_RetireErrorReported(t *testing.T) {
	retireErr := errors.New("device lost")
	l := newTestLane(t, &fakeDevice{available: true, retireErr: retireErr}, 0)

	if err := l.Enqueue("op", func() error { return nil }).Wait(); !errors.Is(err, retireErr) {
		t.Errorf("Wait() = %v, want %v", err, retireErr)
	}

	// Operation error wins over device error.
	opErr := errors.New("op")
	if err := l.Enqueue("op", func() error { return opErr }).Wait(); err != opErr {
		t.Errorf("Wait() = %v, want %v", err, opErr)
	}
}

func TestLane_EnqueueAfterClose(t *testing.T) {
	dev := &fakeDevice{available: true}
	l, err := New(dev, 0, PriorityDefault, "x")
	if err != nil {
		t.Fatal(err)
	}
	l.Close()
	l.Close()

	if err := l.Enqueue("op", func() error { return nil }).Wait(); !errors.Is(err, ErrLaneClosed) {
		t.Errorf("Wait() = %v, want ErrLaneClosed", err)
	}
	if err := l.Record("r").Wait(); !errors.Is(err, ErrLaneClosed) {
		t.Errorf("Record Wait() = %v, want ErrLaneClosed", err)
	}
	if err := l.Synchronize(context.Background()); err != nil {
		t.Errorf("Synchronize() after Close = %v, want nil", err)
	}
	if err := l.Recover(context.Background()); err != nil {
		t.Errorf("Recover() after Close = %v, want nil", err)
	}
	if got := dev.closed.Load(); got != 1 {
		t.Errorf("queue closed %d times, want 1", got)
	}
}

func TestLane_Record(t *testing.T) {
	l := newTestLane(t, &fakeDevice{available: true}, 0)

	release := make(chan struct{})
	l.Enqueue("slow", func() error {
		<-release
		return nil
	})
	rec := l.Record("marker")
	if rec.IsComplete() {
		t.Fatal("Record completed before preceding work")
	}
	close(release)
	if err := rec.Wait(); err != nil {
		t.Errorf("Wait() = %v", err)
	}
}
