package backend

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/overlap/lane"
)

// Backend name constants.
const (
	// BackendNull is the name of the unavailable placeholder device.
	BackendNull = "null"
	// BackendHost is the name of the host-emulated device.
	BackendHost = "host"
	// BackendWGPU is the name of the gogpu/wgpu HAL device.
	BackendWGPU = "wgpu"
)

// HostDevice is an always-available device whose queues have no device-side
// work: retiring a queue returns as soon as the lane's host work is done.
//
// It keeps the overlapped execution path usable on machines without an
// accelerator, where stages still overlap on the host, and it is the device
// used by tests.
type HostDevice struct {
	mu          sync.Mutex
	id          lane.DeviceID
	initialized bool
	queues      map[int]*hostQueue

	retired atomic.Int64
}

// init registers the host backend on package import.
func init() {
	Register(BackendHost, func(id lane.DeviceID) Backend {
		return NewHostDevice(id)
	})
}

// NewHostDevice creates an uninitialized host device.
func NewHostDevice(id lane.DeviceID) *HostDevice {
	return &HostDevice{id: id, queues: make(map[int]*hostQueue)}
}

// Name returns the backend identifier.
func (d *HostDevice) Name() string { return BackendHost }

// ID returns the device ordinal.
func (d *HostDevice) ID() lane.DeviceID { return d.id }

// Init marks the device ready.
func (d *HostDevice) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
	return nil
}

// Available reports whether Init has been called and Close has not.
func (d *HostDevice) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// OpenQueue opens a host queue.
func (d *HostDevice) OpenQueue(index int, _ lane.Priority) (lane.Queue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, ErrNotInitialized
	}
	q := &hostQueue{dev: d, index: index}
	d.queues[index] = q
	return q, nil
}

// OpenQueues returns the number of queues currently open.
func (d *HostDevice) OpenQueues() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Retired returns the total number of retire points reached on all queues.
func (d *HostDevice) Retired() int64 {
	return d.retired.Load()
}

// Close releases the device.
func (d *HostDevice) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
	clear(d.queues)
}

type hostQueue struct {
	dev    *HostDevice
	index  int
	closed atomic.Bool
}

func (q *hostQueue) Retire(string) error {
	if q.closed.Load() {
		return ErrNotInitialized
	}
	q.dev.retired.Add(1)
	return nil
}

func (q *hostQueue) Close() {
	if !q.closed.CompareAndSwap(false, true) {
		return
	}
	q.dev.mu.Lock()
	if q.dev.queues[q.index] == q {
		delete(q.dev.queues, q.index)
	}
	q.dev.mu.Unlock()
}
