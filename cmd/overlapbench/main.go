// Command overlapbench compares the overlapped and sequential pipeline paths
// on a synthetic workload.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/overlap"
	"github.com/gogpu/overlap/backend"
	_ "github.com/gogpu/overlap/backend/wgpu"
	"github.com/gogpu/overlap/lane"
)

func main() {
	var (
		items     = flag.Int("items", 256, "number of inputs")
		batchSize = flag.Int("batch", overlap.DefaultBatchSize, "inputs per batch")
		runs      = flag.Int("runs", overlap.DefaultBenchmarkRuns, "measured runs per mode")
		warmup    = flag.Int("warmup", overlap.DefaultBenchmarkWarmup, "warmup runs per mode (negative disables)")
		backendNm = flag.String("backend", "", "backend name (empty selects the first available accelerator)")
		device    = flag.Int("device", 0, "accelerator ordinal")
		high      = flag.Bool("high", false, "request high lane priority")
		stageCost = flag.Duration("cost", 200*time.Microsecond, "simulated per-item cost of transform and compute")
		verify    = flag.Bool("verify", true, "compare outputs of both modes")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	overlap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	priority := lane.PriorityDefault
	if *high {
		priority = lane.PriorityHigh
	}

	w := workload{cost: *stageCost}
	o, err := overlap.NewOrchestrator(w.transform, w.compute, w.finalize,
		overlap.WithBatchSize(*batchSize),
		overlap.WithBackend(*backendNm),
		overlap.WithDeviceID(lane.DeviceID(*device)),
		overlap.WithPriority(priority),
	)
	if err != nil {
		log.Fatalf("overlapbench: %v", err)
	}
	defer o.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	inputs := make([]float64, *items)
	for i := range inputs {
		inputs[i] = float64(i)
	}

	res, err := overlap.Benchmark(ctx, o, inputs, overlap.BenchmarkOptions{
		Runs:   *runs,
		Warmup: *warmup,
		Verify: *verify,
	})
	if err != nil {
		log.Fatalf("overlapbench: %v", err)
	}
	if res == nil {
		log.Printf("overlapbench: no accelerator available (registered backends: %v)", backend.Available())
		log.Printf("overlapbench: run with -backend=%s to benchmark host-emulated lanes", backend.BackendHost)
		return
	}
	os.Stdout.WriteString(res.String())
}

// workload simulates a pipeline whose transform and compute stages each
// take cost per item.
type workload struct {
	cost time.Duration
}

func (w workload) transform(in []float64) ([]float64, error) {
	time.Sleep(w.cost * time.Duration(len(in)))
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = v / 255
	}
	return out, nil
}

func (w workload) compute(xs []float64) ([]float64, error) {
	time.Sleep(w.cost * time.Duration(len(xs)))
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x*x + 0.5
	}
	return out, nil
}

func (w workload) finalize(ys []float64, in []float64) ([]string, error) {
	out := make([]string, len(in))
	for i := range in {
		if ys[i] > 1 {
			out[i] = "high"
		} else {
			out[i] = "low"
		}
	}
	return out, nil
}
