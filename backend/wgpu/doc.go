// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package wgpu provides an accelerator lane device on the gogpu/wgpu HAL.
//
// Importing the package registers the "wgpu" backend, which the overlap
// orchestrator tries first when no backend is named:
//
//	import _ "github.com/gogpu/overlap/backend/wgpu"
//
// # Device Selection
//
// The device ordinal selects an adapter from the HAL instance's adapter
// list. By default the Vulkan HAL is used; WithVariant selects another
// registered HAL (tests use the noop HAL). WithProvider adopts the HAL
// device and queue of an existing gpucontext.DeviceProvider instead of
// opening a new one; the provider keeps ownership of them.
//
// # Lane Queues
//
// All lanes of a device share the HAL queue. Each lane queue marks a retire
// point by submitting an empty command buffer and polling the queue until
// that submission completes, so a lane operation is retired only once the
// device has finished everything submitted before it. Submission is
// serialized per device; HAL queues are not safe for concurrent use.
//
// # Compute Probe
//
// Init compiles a small WGSL compute shader with naga and creates a shader
// module from it. A failing probe is logged and reported by ComputeReady but
// does not make the device unavailable.
package wgpu
