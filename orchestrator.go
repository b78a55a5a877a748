package overlap

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gogpu/overlap/internal/parallel"
	"github.com/gogpu/overlap/lane"
)

// Dedicated lane indices of an orchestrator.
const (
	transformLane = 0
	computeLane   = 1
)

// Orchestrator runs a transform, compute, finalize pipeline over batches of
// input.
//
// With a usable device it owns two dedicated lanes and overlaps the
// transform of batch i+1 with the compute of batch i. Otherwise it runs the
// sequential path. Both paths return the same results, in input order.
//
// Process calls on one Orchestrator are serialized.
type Orchestrator[In, T, D, Out any] struct {
	transform func([]In) (T, error)
	compute   func(T) (D, error)
	finalize  func(D, []In) ([]Out, error)

	batchSize int
	device    lane.Device
	ownsDev   bool
	lanes     []*lane.Lane // nil, or exactly the transform and compute lanes

	mu     sync.Mutex
	closed bool
}

// NewOrchestrator creates an orchestrator from the three stage functions.
//
// transform turns a batch of inputs into device-ready data, compute runs the
// device work on it, and finalize turns the device output back into one
// result per input. The configuration starts from DefaultConfig; opts are
// applied on top. LaneCount is validated but the orchestrator itself always
// uses two lanes.
func NewOrchestrator[In, T, D, Out any](
	transform func([]In) (T, error),
	compute func(T) (D, error),
	finalize func(D, []In) ([]Out, error),
	opts ...Option,
) (*Orchestrator[In, T, D, Out], error) {
	if transform == nil || compute == nil || finalize == nil {
		return nil, fmt.Errorf("%w: transform, compute and finalize are required", ErrConfiguration)
	}
	s := newSettings(DefaultConfig(), opts)
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	dev, owned := openDevice(s)
	lanes := openLanes(dev, 2, s.cfg.Priority, func(i int) string {
		if i == transformLane {
			return "transform"
		}
		return "compute"
	})

	o := &Orchestrator[In, T, D, Out]{
		transform: transform,
		compute:   compute,
		finalize:  finalize,
		batchSize: s.cfg.BatchSize,
		device:    dev,
		ownsDev:   owned,
		lanes:     lanes,
	}
	Logger().Debug("overlap: orchestrator ready",
		"overlapped", o.Overlapped(), "batch_size", o.batchSize, "device", dev.Name())
	return o, nil
}

// Overlapped reports whether Process uses the overlapped path.
func (o *Orchestrator[In, T, D, Out]) Overlapped() bool { return len(o.lanes) == 2 }

// BatchSize returns the number of inputs per batch.
func (o *Orchestrator[In, T, D, Out]) BatchSize() int { return o.batchSize }

// Process runs the pipeline over inputs and returns one result per input,
// in input order.
//
// Errors returned by the stage functions are returned unmodified; a panic in
// a stage function is re-raised on the calling goroutine with the same
// value. In both cases, and when ctx ends, all device work issued by the
// call is drained before Process returns and partial results are dropped.
func (o *Orchestrator[In, T, D, Out]) Process(ctx context.Context, inputs []In) ([]Out, error) {
	out, _, err := o.ProcessWithStats(ctx, inputs)
	return out, err
}

// ProcessWithStats is like Process and also reports timing statistics.
func (o *Orchestrator[In, T, D, Out]) ProcessWithStats(ctx context.Context, inputs []In) ([]Out, Statistics, error) {
	return o.run(ctx, inputs, o.Overlapped())
}

// ProcessSequential runs the sequential path even when lanes are usable.
func (o *Orchestrator[In, T, D, Out]) ProcessSequential(ctx context.Context, inputs []In) ([]Out, Statistics, error) {
	return o.run(ctx, inputs, false)
}

func (o *Orchestrator[In, T, D, Out]) run(ctx context.Context, inputs []In, overlapped bool) ([]Out, Statistics, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, Statistics{}, ErrClosed
	}
	if len(inputs) == 0 {
		return []Out{}, Statistics{}, nil
	}

	stats := Statistics{Overlapped: overlapped}
	start := time.Now()
	var (
		out []Out
		err error
	)
	if overlapped {
		out, err = o.runOverlapped(ctx, inputs, &stats)
	} else {
		out, err = o.runSequential(ctx, inputs, &stats)
	}
	if err != nil {
		return nil, Statistics{}, err
	}
	stats.finish(len(inputs), time.Since(start))
	Logger().Debug("overlap: processed",
		"items", stats.TotalItems, "batches", stats.TotalBatches,
		"overlapped", overlapped, "total_ms", stats.TotalTimeMs())
	return out, stats, nil
}

// batch is one slice of the caller's input moving through the stages.
type batch[In, T, D any] struct {
	id  int
	raw []In

	// Written on the transform and compute lanes, read after the signal
	// that follows the write.
	transformed T
	outputs     D
	times       stageTimes

	sigTransform *lane.Signal
	sigCompute   *lane.Signal
}

// runOverlapped implements the overlapped loop. For batch i it enqueues the
// transform, finalizes batch i-1 on the calling goroutine, then enqueues the
// compute behind the transform's signal.
func (o *Orchestrator[In, T, D, Out]) runOverlapped(ctx context.Context, inputs []In, stats *Statistics) (results []Out, err error) {
	tl, cl := o.lanes[transformLane], o.lanes[computeLane]

	completed := false
	defer func() {
		if !completed {
			o.drain()
		}
	}()

	results = make([]Out, 0, len(inputs))
	var prev *batch[In, T, D]
	for id, lo := 0, 0; lo < len(inputs); id, lo = id+1, lo+o.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := &batch[In, T, D]{id: id, raw: inputs[lo:min(lo+o.batchSize, len(inputs))]}
		label := strconv.Itoa(id)

		b.sigTransform = tl.Enqueue("transform "+label, func() error {
			t0 := time.Now()
			v, err := o.transform(b.raw)
			b.times.transform = time.Since(t0)
			b.transformed = v
			return err
		})

		if prev != nil {
			if results, err = o.finalizeBatch(ctx, prev, results, stats); err != nil {
				return nil, err
			}
		}

		cl.WaitSignal(b.sigTransform)
		b.sigCompute = cl.Enqueue("compute "+label, func() error {
			t0 := time.Now()
			v, err := o.compute(b.transformed)
			b.times.compute = time.Since(t0)
			b.outputs = v
			return err
		})
		prev = b
	}
	if prev != nil {
		if results, err = o.finalizeBatch(ctx, prev, results, stats); err != nil {
			return nil, err
		}
	}
	completed = true
	return results, nil
}

// finalizeBatch waits for b's compute and finalizes it on the calling
// goroutine.
func (o *Orchestrator[In, T, D, Out]) finalizeBatch(ctx context.Context, b *batch[In, T, D], results []Out, stats *Statistics) ([]Out, error) {
	if err := b.sigCompute.WaitContext(ctx); err != nil {
		return nil, err
	}
	t0 := time.Now()
	outs, err := o.finalize(b.outputs, b.raw)
	if err != nil {
		return nil, err
	}
	b.times.finalize = time.Since(t0)
	stats.addBatch(b.times)
	return append(results, outs...), nil
}

// drain waits for everything already enqueued on the dedicated lanes and
// clears a failure the aborted loop left unconsumed. It runs on abort so no
// device work issued by a Process call outlives it.
func (o *Orchestrator[In, T, D, Out]) drain() {
	err := parallel.Each(len(o.lanes), func(i int) error {
		return o.lanes[i].Recover(context.Background())
	})
	if err != nil {
		Logger().Warn("overlap: lane drain failed", "error", err)
	}
	Logger().Debug("overlap: lanes drained after abort")
}

// Close drains and closes the dedicated lanes and, if the orchestrator
// opened it, the device. Close is idempotent.
func (o *Orchestrator[In, T, D, Out]) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	closeLanes(o.lanes)
	if o.ownsDev {
		o.device.Close()
	}
	return nil
}
