package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/overlap/lane"
)

// Factory creates a new backend instance for the given device ordinal.
// A factory may return nil when its backend was compiled out.
type Factory func(id lane.DeviceID) Backend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Accelerators tried by Preferred, first available wins. The host and
	// null devices are never selected automatically.
	backendPriority = []string{BackendWGPU}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted list of registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns an uninitialized backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string, id lane.DeviceID) Backend {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory(id)
}

// Preferred returns the registered accelerator backends in selection order.
func Preferred() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backendPriority))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Prepare is called on a backend after creation and before Init, e.g. to
// hand it a logger.
type Prepare func(Backend)

// Open creates and initializes the named backend.
// Returns ErrBackendNotAvailable if it is not registered.
func Open(name string, id lane.DeviceID, prepare ...Prepare) (Backend, error) {
	b := Get(name, id)
	if b == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	for _, p := range prepare {
		p(b)
	}
	if err := b.Init(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// OpenDefault opens the first preferred accelerator that initializes.
// When none does, it returns the null device together with the joined
// initialization errors; the null device is always usable as a fallback.
func OpenDefault(id lane.DeviceID, prepare ...Prepare) (Backend, error) {
	var errs []error
	for _, name := range Preferred() {
		b, err := Open(name, id, prepare...)
		if err == nil {
			return b, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	if len(errs) == 0 {
		errs = append(errs, ErrBackendNotAvailable)
	}
	return NewNullDevice(id), errors.Join(errs...)
}
