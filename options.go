package overlap

import "github.com/gogpu/overlap/lane"

// Option configures a Pool or Orchestrator during creation.
//
// Example:
//
//	// Default configuration, first available accelerator.
//	p, err := overlap.NewPool(overlap.DefaultConfig())
//
//	// Host-emulated lanes with a larger pool.
//	p, err := overlap.NewPool(overlap.DefaultConfig(),
//		overlap.WithBackend(backend.BackendHost),
//		overlap.WithLaneCount(8))
type Option func(*settings)

// settings holds the resolved construction options.
type settings struct {
	cfg    Config
	device lane.Device
}

func newSettings(cfg Config, opts []Option) settings {
	s := settings{cfg: cfg}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithConfig replaces the whole configuration. Options after it still apply.
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		s.cfg = cfg
	}
}

// WithEnabled sets the master switch.
func WithEnabled(enabled bool) Option {
	return func(s *settings) {
		s.cfg.Enabled = enabled
	}
}

// WithLaneCount sets the pool size.
func WithLaneCount(n int) Option {
	return func(s *settings) {
		s.cfg.LaneCount = n
	}
}

// WithPriority sets the lane priority hint.
func WithPriority(p lane.Priority) Option {
	return func(s *settings) {
		s.cfg.Priority = p
	}
}

// WithDeviceID sets the accelerator ordinal.
func WithDeviceID(id lane.DeviceID) Option {
	return func(s *settings) {
		s.cfg.Device = id
	}
}

// WithBatchSize sets the number of inputs per batch.
func WithBatchSize(n int) Option {
	return func(s *settings) {
		s.cfg.BatchSize = n
	}
}

// WithBackend selects a registered backend by name.
func WithBackend(name string) Option {
	return func(s *settings) {
		s.cfg.Backend = name
	}
}

// WithDevice builds lanes on an already opened device instead of opening
// one from the registry. The caller keeps ownership: Close does not close
// the device.
func WithDevice(d lane.Device) Option {
	return func(s *settings) {
		s.device = d
	}
}
