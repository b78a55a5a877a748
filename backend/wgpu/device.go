// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/overlap/backend"
	"github.com/gogpu/overlap/lane"
)

// DefaultRetireTimeout bounds how long a lane queue waits for one
// submission to complete.
const DefaultRetireTimeout = 5 * time.Second

func init() {
	backend.Register(backend.BackendWGPU, func(id lane.DeviceID) backend.Backend {
		return New(id)
	})
}

// Option configures a Device.
type Option func(*Device)

// WithVariant selects the HAL implementation, e.g. gputypes.BackendVulkan.
// The HAL package must be imported for its variant to be registered.
func WithVariant(v gputypes.Backend) Option {
	return func(d *Device) { d.variant = v }
}

// WithRetireTimeout sets the per-submission completion timeout.
// Non-positive values select DefaultRetireTimeout.
func WithRetireTimeout(timeout time.Duration) Option {
	return func(d *Device) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithProvider makes Init adopt the HAL device and queue of an existing
// device provider. The provider must expose HalDevice and HalQueue.
func WithProvider(p gpucontext.DeviceProvider) Option {
	return func(d *Device) { d.provider = p }
}

// Device is a lane device backed by a HAL device and queue.
type Device struct {
	id       lane.DeviceID
	variant  gputypes.Backend
	timeout  time.Duration
	provider gpucontext.DeviceProvider

	// mu serializes HAL queue and encoder access.
	mu       sync.Mutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	info     gputypes.AdapterInfo
	external bool
	ready    bool
	compute  bool

	submitted atomix.Uint64
	completed atomix.Uint64
}

// New creates an uninitialized device for the given adapter ordinal.
func New(id lane.DeviceID, opts ...Option) *Device {
	d := &Device{
		id:      id,
		variant: gputypes.BackendVulkan,
		timeout: DefaultRetireTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the backend identifier.
func (d *Device) Name() string { return backend.BackendWGPU }

// ID returns the adapter ordinal.
func (d *Device) ID() lane.DeviceID { return d.id }

// SetLogger sets the logger for this package and the HAL.
func (d *Device) SetLogger(l *slog.Logger) { setLogger(l) }

// Init opens the HAL device, or adopts the provider's, and runs the
// compute probe. A device that cannot load a compute module fails with
// ErrNoCompute.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ready {
		return nil
	}
	var err error
	if d.provider != nil {
		err = d.adoptProvider()
	} else {
		err = d.openStandalone()
	}
	if err != nil {
		d.release()
		return err
	}

	if err := d.probeCompute(); err != nil {
		slogger().Warn("wgpu: compute probe failed", "error", err)
		d.release()
		return fmt.Errorf("%w: %w", ErrNoCompute, err)
	}
	d.compute = true
	d.ready = true
	slogger().Info("wgpu: device ready",
		"adapter", d.info.Name,
		"type", d.info.DeviceType,
		"ordinal", int(d.id),
		"external", d.external,
		"compute", d.compute)
	return nil
}

// openStandalone creates an instance on the configured HAL and opens the
// adapter named by the device ordinal.
func (d *Device) openStandalone() error {
	halBackend, ok := hal.GetBackend(d.variant)
	if !ok {
		return fmt.Errorf("%w: %v", ErrHALUnavailable, d.variant)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	d.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	idx := int(d.id)
	if idx < 0 || idx >= len(adapters) {
		return fmt.Errorf("%w: %d (have %d)", ErrNoAdapter, idx, len(adapters))
	}
	selected := adapters[idx]

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("wgpu: open device: %w", err)
	}
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.info = selected.Info
	return nil
}

// adoptProvider uses the provider's HAL device and queue.
func (d *Device) adoptProvider() error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := d.provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	d.device = device
	d.queue = queue
	d.external = true

	info := d.provider.AdapterInfo()
	d.info = gputypes.AdapterInfo{Name: info.Name, DeviceType: deviceType(info.Type)}
	return nil
}

// deviceType maps a provider adapter type to its HAL equivalent.
func deviceType(t gpucontext.AdapterType) gputypes.DeviceType {
	switch t {
	case gpucontext.AdapterTypeDiscrete:
		return gputypes.DeviceTypeDiscreteGPU
	case gpucontext.AdapterTypeIntegrated:
		return gputypes.DeviceTypeIntegratedGPU
	case gpucontext.AdapterTypeSoftware:
		return gputypes.DeviceTypeCPU
	default:
		return gputypes.DeviceTypeOther
	}
}

// Available reports whether Init succeeded and Close has not been called.
func (d *Device) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// ComputeReady reports whether the compute probe succeeded.
func (d *Device) ComputeReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.compute
}

// AdapterInfo returns information about the opened adapter.
func (d *Device) AdapterInfo() gputypes.AdapterInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

// Submitted returns the number of retire submissions made on the device.
func (d *Device) Submitted() uint64 { return d.submitted.LoadAcquire() }

// Completed returns the number of retire submissions observed complete.
func (d *Device) Completed() uint64 { return d.completed.LoadAcquire() }

// OpenQueue opens a lane queue on the shared HAL queue. The priority is
// recorded for logging only; the HAL exposes a single queue.
func (d *Device) OpenQueue(index int, priority lane.Priority) (lane.Queue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		return nil, backend.ErrNotInitialized
	}
	slogger().Debug("wgpu: lane queue opened", "lane", index, "priority", priority.String())
	return &laneQueue{dev: d, index: index}, nil
}

// Close waits for the device to go idle and releases what Init opened.
// Adopted provider resources are left to their owner.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ready && d.device != nil {
		if err := d.device.WaitIdle(); err != nil {
			slogger().Warn("wgpu: wait idle failed", "error", err)
		}
	}
	d.release()
	d.ready = false
	d.compute = false
}

// release destroys owned HAL objects. Caller holds mu.
func (d *Device) release() {
	if !d.external && d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
	d.external = false
}
