// Package lane provides execution lanes and completion signals.
//
// # Overview
//
// A [Lane] is an independent, ordered, asynchronous command queue bound to
// one accelerator device. Work enqueued on a lane runs in enqueue order on
// that lane; work on different lanes has no ordering relationship unless a
// [Signal] bridges them.
//
//	tf, _ := lane.New(dev, 0, lane.PriorityDefault, "transform")
//	cp, _ := lane.New(dev, 1, lane.PriorityDefault, "compute")
//
//	sigT := tf.Enqueue("transform", func() error { ... })
//	cp.WaitSignal(sigT) // does not block the caller
//	sigC := cp.Enqueue("compute", func() error { ... })
//
//	if err := sigC.Wait(); err != nil { ... }
//
// # Devices
//
// Lanes are host-side ordered executors. Each one owns a device [Queue]
// opened from a [Device]; after every operation the lane retires the
// device queue so that a signal only completes once the device has caught up
// with everything submitted before it. Device implementations live in the
// backend packages.
//
// # Failure propagation
//
// An operation that returns an error or panics completes its signal with
// that outcome. A lane that waits on a failed signal skips its next
// operation and completes that operation's signal with the same outcome, so
// dependent stages never run on missing input.
package lane
