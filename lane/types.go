package lane

import (
	"errors"
	"strconv"
)

// ErrLaneClosed is reported by signals of work enqueued after Close.
var ErrLaneClosed = errors.New("lane: closed")

// ErrPanicked is what Signal.Err reports for an operation that panicked.
var ErrPanicked = errors.New("lane: operation panicked")

// Priority is a scheduling hint passed to the device runtime.
// Lower values mean higher priority.
type Priority int

const (
	// PriorityDefault is the runtime's normal priority.
	PriorityDefault Priority = 0

	// PriorityHigh asks the runtime to prefer this lane's work.
	PriorityHigh Priority = -1
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityDefault:
		return "Default"
	case PriorityHigh:
		return "High"
	default:
		return "Priority(" + strconv.Itoa(int(p)) + ")"
	}
}

// IsStandard reports whether p is one of the named priorities.
// Other values are accepted but unusual.
func (p Priority) IsStandard() bool {
	return p == PriorityDefault || p == PriorityHigh
}

// DeviceID identifies an accelerator device (adapter ordinal).
type DeviceID int

// Device is an accelerator runtime capable of opening ordered queues.
//
// Implementations must be safe for concurrent use.
type Device interface {
	// Name returns the device backend name (e.g., "wgpu", "host", "null").
	Name() string

	// ID returns the device ordinal the device was opened for.
	ID() DeviceID

	// Available reports whether the device can execute work. An unavailable
	// device refuses OpenQueue; callers select a sequential strategy instead.
	Available() bool

	// OpenQueue opens a device queue for the lane with the given index.
	OpenQueue(index int, priority Priority) (Queue, error)

	// Close releases device resources. Queues must be closed first.
	Close()
}

// Queue is the device side of a lane.
type Queue interface {
	// Retire blocks until all device work submitted through this queue so
	// far has completed. The label names the point for diagnostics.
	Retire(label string) error

	// Close releases the queue.
	Close()
}
