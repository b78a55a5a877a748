// Package backend provides the pluggable lane device abstraction.
//
// A backend is a lane.Device that is registered by name and initialized
// explicitly. Orchestrators open one backend per device ordinal and build
// their lanes on it.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The host and null backends are registered on import; accelerator backends
// register themselves when their package is imported:
//
//	import _ "github.com/gogpu/overlap/backend/wgpu"
//
// # Backend Selection
//
// Use OpenDefault to get the best available accelerator, or Open to request
// a specific backend by name:
//
//	// First accelerator that initializes, or the null device.
//	b, err := backend.OpenDefault(0)
//
//	// Or request a specific backend.
//	b, err := backend.Open(backend.BackendHost, 0)
//
// # Available Backends
//
//   - "wgpu": accelerator queues via gogpu/wgpu HAL (when imported)
//   - "host": host-emulated queues, always available
//   - "null": unavailable placeholder, selects the sequential path
package backend
