package overlap

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/overlap/internal/parallel"
	"github.com/gogpu/overlap/lane"
)

// Pool is a fixed-size set of lanes available for checkout from any
// goroutine.
//
// At every observation Available()+InUse() == Size(). A pool whose device is
// unavailable, or whose configuration is disabled, is degraded: Size is 0
// and every acquire returns ErrUnavailable without blocking.
type Pool struct {
	device  lane.Device
	ownsDev bool
	lanes   []*lane.Lane

	mu       sync.Mutex
	free     []int  // stack of available lane indices
	out      []bool // out[i] reports whether lane i is checked out
	released chan struct{}
	closed   bool
}

// NewPool validates cfg, applies opts and opens cfg.LaneCount lanes.
//
// An invalid configuration fails with an error wrapping ErrConfiguration and
// opens nothing. An unavailable device does not fail construction; the pool
// is degraded instead.
func NewPool(cfg Config, opts ...Option) (*Pool, error) {
	s := newSettings(cfg, opts)
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	dev, owned := openDevice(s)
	lanes := openLanes(dev, s.cfg.LaneCount, s.cfg.Priority, func(i int) string {
		return fmt.Sprintf("pool-%d", i)
	})

	p := &Pool{
		device:   dev,
		ownsDev:  owned,
		lanes:    lanes,
		out:      make([]bool, len(lanes)),
		released: make(chan struct{}),
	}
	p.fillFree()

	if len(lanes) == 0 {
		Logger().Warn("overlap: lane pool degraded", "device", dev.Name())
	}
	return p, nil
}

// fillFree marks every lane available. Caller holds mu or owns p.
func (p *Pool) fillFree() {
	p.free = p.free[:0]
	for i := len(p.lanes) - 1; i >= 0; i-- {
		p.free = append(p.free, i)
		p.out[i] = false
	}
}

// Size returns the number of usable lanes.
func (p *Pool) Size() int { return len(p.lanes) }

// Degraded reports whether the pool has no usable lanes.
func (p *Pool) Degraded() bool { return len(p.lanes) == 0 }

// Device returns the accelerator ordinal the lanes are bound to.
func (p *Pool) Device() lane.DeviceID { return p.device.ID() }

// Available returns the number of lanes not checked out.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// InUse returns the number of lanes checked out.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lanes) - len(p.free)
}

// AcquireOne checks out one lane.
//
// If none is free and blocking is false, it returns ErrUnavailable at once.
// If blocking is true, it waits for a Release or Reset until ctx ends, in
// which case ctx.Err() is returned. A degraded pool returns ErrUnavailable
// in both modes.
func (p *Pool) AcquireOne(ctx context.Context, blocking bool) (*lane.Lane, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrClosed
		}
		if len(p.lanes) == 0 {
			p.mu.Unlock()
			return nil, ErrUnavailable
		}
		if n := len(p.free); n > 0 {
			idx := p.free[n-1]
			p.free = p.free[:n-1]
			p.out[idx] = true
			p.mu.Unlock()
			return p.lanes[idx], nil
		}
		wake := p.released
		p.mu.Unlock()

		if !blocking {
			return nil, ErrUnavailable
		}
		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// AcquireMany checks out up to n lanes without blocking. It may return
// fewer, or none.
func (p *Pool) AcquireMany(n int) []*lane.Lane {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || n <= 0 {
		return nil
	}
	n = min(n, len(p.free))
	lanes := make([]*lane.Lane, 0, n)
	for range n {
		idx := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		p.out[idx] = true
		lanes = append(lanes, p.lanes[idx])
	}
	return lanes
}

// Release returns lanes to the pool. Nil lanes, lanes from another pool and
// lanes that are not checked out are ignored, so releasing twice is safe.
func (p *Pool) Release(lanes ...*lane.Lane) {
	p.mu.Lock()
	defer p.mu.Unlock()

	returned := 0
	for _, l := range lanes {
		idx, ok := p.owned(l)
		if !ok || !p.out[idx] {
			continue
		}
		p.out[idx] = false
		p.free = append(p.free, idx)
		returned++
	}
	if returned > 0 {
		p.wakeLocked()
	}
}

// owned returns the index of l if it belongs to p.
func (p *Pool) owned(l *lane.Lane) (int, bool) {
	if l == nil {
		return 0, false
	}
	idx := l.Index()
	if idx < 0 || idx >= len(p.lanes) || p.lanes[idx] != l {
		return 0, false
	}
	return idx, true
}

// wakeLocked wakes every blocked acquirer. Caller holds mu.
func (p *Pool) wakeLocked() {
	close(p.released)
	p.released = make(chan struct{})
}

// SynchronizeAll blocks until the work enqueued on every lane has retired,
// checked out or not. Holders keep any pending dependency failure.
func (p *Pool) SynchronizeAll(ctx context.Context) error {
	return p.eachLane(func(l *lane.Lane) error { return l.Synchronize(ctx) })
}

func (p *Pool) eachLane(fn func(*lane.Lane) error) error {
	return parallel.Each(len(p.lanes), func(i int) error {
		if err := fn(p.lanes[i]); err != nil {
			return fmt.Errorf("lane %d: %w", i, err)
		}
		return nil
	})
}

// Reset waits for every lane and then marks all of them available,
// whoever holds them. It recovers a pool whose callers lost their lanes,
// so failures those callers left pending are discarded.
func (p *Pool) Reset(ctx context.Context) error {
	if err := p.eachLane(func(l *lane.Lane) error { return l.Recover(ctx) }); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.fillFree()
	p.wakeLocked()
	Logger().Debug("overlap: lane pool reset", "size", len(p.lanes))
	return nil
}

// Close drains and closes every lane and, if the pool opened it, the
// device. Blocked acquirers return ErrClosed. Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.wakeLocked()
	p.mu.Unlock()

	closeLanes(p.lanes)
	if p.ownsDev {
		p.device.Close()
	}
	return nil
}
