// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"fmt"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/gogpu/wgpu/hal"
)

// laneQueue is one lane's view of the shared HAL queue.
type laneQueue struct {
	dev    *Device
	index  int
	closed atomix.Bool
}

// Retire submits an empty command buffer labeled after the lane operation
// and waits until the HAL reports it complete.
func (q *laneQueue) Retire(label string) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	idx, err := q.dev.submitMarker(label)
	if err != nil {
		return fmt.Errorf("wgpu: lane %d: %w", q.index, err)
	}
	if err := q.dev.waitSubmission(idx); err != nil {
		return fmt.Errorf("wgpu: lane %d: %w", q.index, err)
	}
	return nil
}

func (q *laneQueue) Close() {
	q.closed.Store(true)
}

// submitMarker encodes and submits an empty command buffer and returns its
// submission index.
func (d *Device) submitMarker(label string) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		return 0, ErrQueueClosed
	}
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return 0, fmt.Errorf("create encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return 0, fmt.Errorf("begin encoding: %w", err)
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return 0, fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	idx, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return 0, fmt.Errorf("submit: %w", err)
	}
	d.submitted.AddAcqRel(1)
	return idx, nil
}

// waitSubmission polls the queue until submission idx has completed or the
// retire timeout passes.
func (d *Device) waitSubmission(idx uint64) error {
	deadline := time.Now().Add(d.timeout)
	backoff := iox.Backoff{}
	for {
		d.mu.Lock()
		if !d.ready {
			d.mu.Unlock()
			return ErrQueueClosed
		}
		done := d.queue.PollCompleted()
		d.mu.Unlock()

		if done >= idx {
			d.completed.AddAcqRel(1)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: index %d after %v", ErrRetireTimeout, idx, d.timeout)
		}
		backoff.Wait()
	}
}
