package parallel

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Each Tests
// =============================================================================

func TestEach_RunsAll(t *testing.T) {
	var hits [16]atomic.Int64
	if err := Each(len(hits), func(i int) error {
		hits[i].Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Each() = %v", err)
	}
	for i := range hits {
		if hits[i].Load() != 1 {
			t.Errorf("index %d ran %d times, want 1", i, hits[i].Load())
		}
	}
}

func TestEach_Empty(t *testing.T) {
	for _, n := range []int{0, -1} {
		if err := Each(n, func(int) error {
			t.Error("fn called")
			return nil
		}); err != nil {
			t.Errorf("Each(%d) = %v", n, err)
		}
	}
}

func TestEach_Concurrent(t *testing.T) {
	const n = 4
	var wg sync.WaitGroup
	wg.Add(n)
	done := make(chan error, 1)
	go func() {
		// Every call waits for all others to start, so a sequential
		// implementation would never return.
		done <- Each(n, func(int) error {
			wg.Done()
			wg.Wait()
			return nil
		})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Each() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Each did not run calls concurrently")
	}
}

func TestEach_JoinsErrors(t *testing.T) {
	e1 := errors.New("one")
	e3 := errors.New("three")
	err := Each(4, func(i int) error {
		switch i {
		case 1:
			return e1
		case 3:
			return e3
		}
		return nil
	})
	if !errors.Is(err, e1) || !errors.Is(err, e3) {
		t.Errorf("Each() = %v, want both errors", err)
	}
	if got := err.Error(); got != "one\nthree" {
		t.Errorf("Error() = %q, want index order", got)
	}
}

func TestEach_Single(t *testing.T) {
	want := errors.New("only")
	if err := Each(1, func(int) error { return want }); err != want {
		t.Errorf("Each(1) = %v, want %v unwrapped", err, want)
	}
}
