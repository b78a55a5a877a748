package overlap

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// Default benchmark settings.
const (
	DefaultBenchmarkRuns   = 5
	DefaultBenchmarkWarmup = 1
)

// overheadBaseline is the share of the sequential time the overlapped path
// is allowed before the excess counts as overhead.
const overheadBaseline = 0.9

// BenchmarkOptions controls a Benchmark.
type BenchmarkOptions struct {
	// Runs is the number of measured runs per mode. Zero selects
	// DefaultBenchmarkRuns.
	Runs int

	// Warmup is the number of unmeasured runs per mode. Zero selects
	// DefaultBenchmarkWarmup; negative disables warmup.
	Warmup int

	// Verify compares the outputs of both modes on every measured run.
	Verify bool
}

func (opts BenchmarkOptions) withDefaults() BenchmarkOptions {
	if opts.Runs <= 0 {
		opts.Runs = DefaultBenchmarkRuns
	}
	switch {
	case opts.Warmup == 0:
		opts.Warmup = DefaultBenchmarkWarmup
	case opts.Warmup < 0:
		opts.Warmup = 0
	}
	return opts
}

// RunTiming is one measured pair of runs.
type RunTiming struct {
	Sequential time.Duration
	Overlapped time.Duration

	// Speedup is Sequential/Overlapped, or 0 if Overlapped is 0.
	Speedup float64

	// OverheadMs is how far Overlapped exceeds 90% of Sequential, or 0.
	OverheadMs float64
}

// ModeSummary aggregates the measured runs of one mode, in milliseconds.
type ModeSummary struct {
	MeanMs   float64
	StdDevMs float64
	MinMs    float64
	MaxMs    float64
}

// BenchmarkResult compares the sequential and overlapped paths.
type BenchmarkResult struct {
	// ID correlates the result with its log records.
	ID uuid.UUID

	Items     int
	Batches   int
	BatchSize int

	Runs       []RunTiming
	Sequential ModeSummary
	Overlapped ModeSummary

	// Speedup and OverheadMs are computed from the mode means.
	Speedup    float64
	OverheadMs float64

	// Verified reports whether outputs were compared and matched.
	Verified bool
}

// Benchmark runs o over inputs in sequential and overlapped mode and
// compares their timing.
//
// It returns nil, nil when o has no usable accelerator, since there is
// nothing to compare. Stage function errors are returned unmodified. With
// Verify set, differing outputs fail with an error wrapping
// ErrOutputMismatch.
func Benchmark[In, T, D, Out any](ctx context.Context, o *Orchestrator[In, T, D, Out], inputs []In, opts BenchmarkOptions) (*BenchmarkResult, error) {
	if !o.Overlapped() {
		Logger().Info("overlap: benchmark skipped, no accelerator available")
		return nil, nil
	}
	opts = opts.withDefaults()

	for range opts.Warmup {
		if _, _, err := o.ProcessSequential(ctx, inputs); err != nil {
			return nil, err
		}
		if _, _, err := o.ProcessWithStats(ctx, inputs); err != nil {
			return nil, err
		}
	}

	res := &BenchmarkResult{
		ID:        uuid.New(),
		Items:     len(inputs),
		Batches:   (len(inputs) + o.BatchSize() - 1) / o.BatchSize(),
		BatchSize: o.BatchSize(),
		Runs:      make([]RunTiming, 0, opts.Runs),
		Verified:  opts.Verify,
	}
	seqMs := make([]float64, 0, opts.Runs)
	ovlMs := make([]float64, 0, opts.Runs)

	for run := range opts.Runs {
		t0 := time.Now()
		seqOut, _, err := o.ProcessSequential(ctx, inputs)
		if err != nil {
			return nil, err
		}
		seq := time.Since(t0)

		t1 := time.Now()
		ovlOut, _, err := o.ProcessWithStats(ctx, inputs)
		if err != nil {
			return nil, err
		}
		ovl := time.Since(t1)

		if opts.Verify && !outputsEqual(seqOut, ovlOut) {
			return nil, fmt.Errorf("%w: run %d: %s", ErrOutputMismatch, run, outputsDiff(seqOut, ovlOut))
		}

		rt := RunTiming{Sequential: seq, Overlapped: ovl}
		rt.Speedup, rt.OverheadMs = compare(ms(seq), ms(ovl))
		res.Runs = append(res.Runs, rt)
		seqMs = append(seqMs, ms(seq))
		ovlMs = append(ovlMs, ms(ovl))
	}

	res.Sequential = summarize(seqMs)
	res.Overlapped = summarize(ovlMs)
	res.Speedup, res.OverheadMs = compare(res.Sequential.MeanMs, res.Overlapped.MeanMs)

	Logger().Info("overlap: benchmark complete",
		"id", res.ID.String(),
		"items", res.Items,
		"runs", len(res.Runs),
		"sequential_ms", res.Sequential.MeanMs,
		"overlapped_ms", res.Overlapped.MeanMs,
		"speedup", res.Speedup,
		"overhead_ms", res.OverheadMs)
	return res, nil
}

// compare returns the speedup of ovl over seq and the overlapped overhead.
func compare(seqMs, ovlMs float64) (speedup, overheadMs float64) {
	if ovlMs > 0 {
		speedup = seqMs / ovlMs
	}
	overheadMs = max(0, ovlMs-overheadBaseline*seqMs)
	return speedup, overheadMs
}

func summarize(xs []float64) ModeSummary {
	if len(xs) == 0 {
		return ModeSummary{}
	}
	s := ModeSummary{
		MeanMs: stat.Mean(xs, nil),
		MinMs:  slices.Min(xs),
		MaxMs:  slices.Max(xs),
	}
	if len(xs) > 1 {
		s.StdDevMs = stat.StdDev(xs, nil)
	}
	return s
}

// exportAll lets cmp look into unexported fields of caller output types.
var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

func outputsEqual[Out any](a, b []Out) bool {
	return cmp.Equal(a, b, exportAll)
}

func outputsDiff[Out any](a, b []Out) string {
	return cmp.Diff(a, b, exportAll)
}
