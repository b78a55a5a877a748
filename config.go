package overlap

import (
	"fmt"

	"github.com/gogpu/overlap/lane"
)

// Default configuration values.
const (
	DefaultLaneCount = 3
	DefaultBatchSize = 8
)

// Config describes a lane set and how the pipeline batches its input.
//
// Pools and orchestrators copy the Config they are built with; changing it
// afterwards has no effect.
type Config struct {
	// Enabled is the master switch. When false, pools are degraded and
	// orchestrators run the sequential path.
	Enabled bool

	// LaneCount is the number of lanes in a Pool. Must be at least 1.
	// Orchestrators always use exactly two dedicated lanes.
	LaneCount int

	// Priority is passed to the device when lane queues are opened.
	// Values other than PriorityDefault and PriorityHigh are accepted but
	// logged.
	Priority lane.Priority

	// Device is the accelerator ordinal.
	Device lane.DeviceID

	// BatchSize is the number of inputs per pipeline batch. Must be at
	// least 1.
	BatchSize int

	// Backend names a registered backend. Empty selects the first
	// accelerator that initializes.
	Backend string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		LaneCount: DefaultLaneCount,
		Priority:  lane.PriorityDefault,
		BatchSize: DefaultBatchSize,
	}
}

// Validate reports an error wrapping ErrConfiguration if c cannot be used.
// Out of range values are rejected, never clamped.
func (c Config) Validate() error {
	if c.LaneCount < 1 {
		return fmt.Errorf("%w: lane count %d, must be at least 1", ErrConfiguration, c.LaneCount)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size %d, must be at least 1", ErrConfiguration, c.BatchSize)
	}
	return nil
}
