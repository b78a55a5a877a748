package parallel

import (
	"errors"
	"sync"
)

// Each runs fn(i) for i in [0, n) on separate goroutines and waits for all
// of them. The returned error joins the non-nil results in index order.
//
// Each is meant for a handful of blocking waits, such as synchronizing every
// lane of a pool; it starts one goroutine per index.
func Each(n int, fn func(i int) error) error {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return fn(0)
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			errs[i] = fn(i)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
