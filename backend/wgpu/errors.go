// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import "errors"

var (
	// ErrHALUnavailable is returned by Init when the requested HAL is not
	// registered in this binary.
	ErrHALUnavailable = errors.New("wgpu: HAL backend not registered")

	// ErrNoAdapter is returned by Init when the device ordinal does not name
	// an adapter.
	ErrNoAdapter = errors.New("wgpu: no adapter for device ordinal")

	// ErrNoCompute is returned by Init when the device rejects the compute
	// probe module.
	ErrNoCompute = errors.New("wgpu: device cannot run compute modules")

	// ErrRetireTimeout is returned by a lane queue when a submission does not
	// complete within the retire timeout.
	ErrRetireTimeout = errors.New("wgpu: submission did not complete")

	// ErrQueueClosed is returned when a closed lane queue is used.
	ErrQueueClosed = errors.New("wgpu: queue closed")
)
