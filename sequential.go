package overlap

import (
	"context"
	"time"
)

// runSequential runs transform, compute and finalize back to back for each
// batch on the calling goroutine.
func (o *Orchestrator[In, T, D, Out]) runSequential(ctx context.Context, inputs []In, stats *Statistics) ([]Out, error) {
	results := make([]Out, 0, len(inputs))
	for lo := 0; lo < len(inputs); lo += o.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := inputs[lo:min(lo+o.batchSize, len(inputs))]

		var times stageTimes
		t0 := time.Now()
		transformed, err := o.transform(raw)
		if err != nil {
			return nil, err
		}
		t1 := time.Now()
		times.transform = t1.Sub(t0)

		outputs, err := o.compute(transformed)
		if err != nil {
			return nil, err
		}
		t2 := time.Now()
		times.compute = t2.Sub(t1)

		outs, err := o.finalize(outputs, raw)
		if err != nil {
			return nil, err
		}
		times.finalize = time.Since(t2)

		stats.addBatch(times)
		results = append(results, outs...)
	}
	return results, nil
}
