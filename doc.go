// Package overlap runs a three-stage transform, compute, finalize pipeline
// against an accelerator, overlapping the transform of one batch with the
// compute of the previous one.
//
// # Quick Start
//
//	o, err := overlap.NewOrchestrator(transform, compute, finalize,
//		overlap.WithBatchSize(16))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer o.Close()
//
//	results, err := o.Process(ctx, inputs)
//
// # Lanes and Signals
//
// An orchestrator owns two dedicated lanes, one for transform and one for
// compute. Each lane runs its operations in order; the compute lane waits
// on the transform lane through a completion signal, so the controlling
// goroutine never blocks on a transform. The only blocking wait per batch is
// on the previous batch's compute signal, right before it is finalized on
// the calling goroutine. Batches are finalized in order, so results always
// follow input order.
//
// # Fallback
//
// When no accelerator backend initializes, or when the configuration
// disables overlap, the orchestrator runs the sequential path: transform,
// compute and finalize back to back for each batch. Both paths produce the
// same output for deterministic stage functions. The fallback is logged,
// never returned as an error.
//
// # Lane Pool
//
// Pool is an independent, fixed-size set of lanes for ad hoc checkout from
// any goroutine. A pool built on an unavailable device is degraded: every
// acquire returns ErrUnavailable.
//
// # Backends
//
// Devices come from the backend registry. The host and null backends are
// always registered; the wgpu accelerator registers itself on import:
//
//	import _ "github.com/gogpu/overlap/backend/wgpu"
//
// # Logging
//
// The package is silent by default. Use SetLogger to enable structured
// logging via log/slog.
package overlap
