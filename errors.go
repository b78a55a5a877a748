package overlap

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

var (
	// ErrConfiguration is returned by constructors for invalid settings.
	ErrConfiguration = errors.New("overlap: invalid configuration")

	// ErrUnavailable is returned by pool acquires when no lane can be handed
	// out right now, or ever for a degraded pool. It matches iox.ErrWouldBlock.
	ErrUnavailable = fmt.Errorf("overlap: lane unavailable: %w", iox.ErrWouldBlock)

	// ErrClosed is returned when a closed pool or orchestrator is used.
	ErrClosed = errors.New("overlap: closed")

	// ErrOutputMismatch is returned by Benchmark when verification finds the
	// overlapped and sequential outputs differ.
	ErrOutputMismatch = errors.New("overlap: overlapped and sequential outputs differ")
)
