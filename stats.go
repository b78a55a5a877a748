package overlap

import "time"

// Statistics describes one Process call.
//
// Stage times are the sums over all batches of the time spent inside the
// stage functions. In overlapped mode they can add up to more than
// TotalTime.
type Statistics struct {
	TotalItems   int
	TotalBatches int

	TotalTime     time.Duration
	TransformTime time.Duration
	ComputeTime   time.Duration
	FinalizeTime  time.Duration

	ThroughputItemsPerSec float64

	// Overlapped reports whether the overlapped path produced the results.
	Overlapped bool
}

// TotalTimeMs returns TotalTime in milliseconds.
func (s Statistics) TotalTimeMs() float64 { return ms(s.TotalTime) }

// TransformTimeMs returns TransformTime in milliseconds.
func (s Statistics) TransformTimeMs() float64 { return ms(s.TransformTime) }

// ComputeTimeMs returns ComputeTime in milliseconds.
func (s Statistics) ComputeTimeMs() float64 { return ms(s.ComputeTime) }

// FinalizeTimeMs returns FinalizeTime in milliseconds.
func (s Statistics) FinalizeTimeMs() float64 { return ms(s.FinalizeTime) }

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// addBatch accumulates one batch's stage timings.
func (s *Statistics) addBatch(t stageTimes) {
	s.TotalBatches++
	s.TransformTime += t.transform
	s.ComputeTime += t.compute
	s.FinalizeTime += t.finalize
}

// finish records the wall time and derives throughput.
func (s *Statistics) finish(items int, elapsed time.Duration) {
	s.TotalItems = items
	s.TotalTime = elapsed
	if elapsed > 0 {
		s.ThroughputItemsPerSec = float64(items) / elapsed.Seconds()
	}
}

// stageTimes holds the time one batch spent in each stage.
type stageTimes struct {
	transform time.Duration
	compute   time.Duration
	finalize  time.Duration
}
