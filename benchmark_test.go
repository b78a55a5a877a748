package overlap

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/gogpu/overlap/backend"
)

func TestBenchmarkUnavailable(t *testing.T) {
	o := newTestOrchestrator(t, WithBackend(backend.BackendNull))

	res, err := Benchmark(context.Background(), o, makeItems(10), BenchmarkOptions{})
	if err != nil {
		t.Fatalf("Benchmark() error = %v", err)
	}
	if res != nil {
		t.Errorf("Benchmark() = %+v, want nil without accelerator", res)
	}
	if got := res.String(); !strings.Contains(got, "no accelerator") {
		t.Errorf("nil String() = %q", got)
	}
}

func TestBenchmarkSanity(t *testing.T) {
	o := newTestOrchestrator(t, WithBatchSize(4))

	res, err := Benchmark(context.Background(), o, makeItems(40), BenchmarkOptions{Runs: 4, Verify: true})
	if err != nil {
		t.Fatalf("Benchmark() error = %v", err)
	}
	if res == nil {
		t.Fatal("Benchmark() = nil on host backend")
	}
	if res.ID == uuid.Nil {
		t.Error("ID is nil")
	}
	if res.Items != 40 || res.Batches != 10 || res.BatchSize != 4 {
		t.Errorf("items/batches/size = %d/%d/%d, want 40/10/4", res.Items, res.Batches, res.BatchSize)
	}
	if len(res.Runs) != 4 {
		t.Fatalf("len(Runs) = %d, want 4", len(res.Runs))
	}
	for i, r := range res.Runs {
		if r.Speedup < 0 || r.OverheadMs < 0 {
			t.Errorf("run %d: speedup %v, overhead %v, want >= 0", i, r.Speedup, r.OverheadMs)
		}
	}
	if res.Speedup < 0 || res.OverheadMs < 0 {
		t.Errorf("speedup %v, overhead %v, want >= 0", res.Speedup, res.OverheadMs)
	}
	if res.Sequential.MinMs > res.Sequential.MeanMs || res.Sequential.MeanMs > res.Sequential.MaxMs {
		t.Errorf("sequential summary out of order: %+v", res.Sequential)
	}
	if !res.Verified {
		t.Error("Verified = false with Verify set")
	}

	report := res.String()
	for _, want := range []string{res.ID.String(), "speedup", "overhead", "outputs match"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestBenchmarkVerifyMismatch(t *testing.T) {
	var calls atomic.Int64
	finalize := func(ys []int, in []item) ([]result, error) {
		out, err := testFinalize(ys, in)
		// Every call yields different scores.
		n := int(calls.Add(1))
		for i := range out {
			out[i].Score += n
		}
		return out, err
	}
	o, err := NewOrchestrator(testTransform, testCompute, finalize, WithBackend(backend.BackendHost))
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()

	_, err = Benchmark(context.Background(), o, makeItems(5), BenchmarkOptions{Runs: 1, Warmup: -1, Verify: true})
	if !errors.Is(err, ErrOutputMismatch) {
		t.Errorf("Benchmark() error = %v, want ErrOutputMismatch", err)
	}
}

func TestBenchmarkStageError(t *testing.T) {
	boom := errors.New("boom")
	compute := func([]int) ([]int, error) { return nil, boom }
	o, err := NewOrchestrator(testTransform, compute, testFinalize, WithBackend(backend.BackendHost))
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()

	if _, err := Benchmark(context.Background(), o, makeItems(5), BenchmarkOptions{}); err != boom {
		t.Errorf("Benchmark() error = %v, want %v", err, boom)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name         string
		seq, ovl     float64
		wantSpeedup  float64
		wantOverhead float64
	}{
		{"faster", 100, 50, 2, 0},
		{"equal", 100, 100, 1, 10},
		{"slower", 100, 120, 100.0 / 120.0, 30},
		{"zero overlapped", 100, 0, 0, 0},
		{"within baseline", 100, 90, 100.0 / 90.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, o := compare(tt.seq, tt.ovl)
			if s != tt.wantSpeedup {
				t.Errorf("speedup = %v, want %v", s, tt.wantSpeedup)
			}
			if diff := o - tt.wantOverhead; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("overhead = %v, want %v", o, tt.wantOverhead)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	s := summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if s.MeanMs != 5 || s.MinMs != 2 || s.MaxMs != 9 {
		t.Errorf("summary = %+v", s)
	}
	// Sample standard deviation.
	if s.StdDevMs < 2.13 || s.StdDevMs > 2.14 {
		t.Errorf("StdDevMs = %v, want ~2.138", s.StdDevMs)
	}
	if one := summarize([]float64{3}); one.StdDevMs != 0 || one.MeanMs != 3 {
		t.Errorf("single run summary = %+v", one)
	}
	if empty := summarize(nil); empty != (ModeSummary{}) {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestReportLocalized(t *testing.T) {
	r := &BenchmarkResult{ID: uuid.New(), Items: 12345, Batches: 1544, BatchSize: 8}
	if got := r.Format(language.English); !strings.Contains(got, "12,345") {
		t.Errorf("English report missing grouped digits:\n%s", got)
	}
	if got := r.Format(language.German); !strings.Contains(got, "12.345") {
		t.Errorf("German report missing grouped digits:\n%s", got)
	}
}
