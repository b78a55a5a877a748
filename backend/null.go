package backend

import "github.com/gogpu/overlap/lane"

// NullDevice stands in for an absent accelerator.
//
// It is always safe to construct and reports itself unavailable, so pools
// built on it are degraded and orchestrators run their sequential path.
type NullDevice struct {
	id lane.DeviceID
}

// init registers the null backend on package import.
func init() {
	Register(BackendNull, func(id lane.DeviceID) Backend {
		return NewNullDevice(id)
	})
}

// NewNullDevice creates a null device for the given ordinal.
func NewNullDevice(id lane.DeviceID) *NullDevice {
	return &NullDevice{id: id}
}

// Name returns the backend identifier.
func (d *NullDevice) Name() string { return BackendNull }

// ID returns the device ordinal.
func (d *NullDevice) ID() lane.DeviceID { return d.id }

// Init always succeeds.
func (d *NullDevice) Init() error { return nil }

// Available always returns false.
func (d *NullDevice) Available() bool { return false }

// OpenQueue always fails with ErrBackendNotAvailable.
func (d *NullDevice) OpenQueue(int, lane.Priority) (lane.Queue, error) {
	return nil, ErrBackendNotAvailable
}

// Close is a no-op.
func (d *NullDevice) Close() {}
