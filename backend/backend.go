package backend

import (
	"errors"

	"github.com/gogpu/overlap/lane"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend is a lane device that needs explicit initialization.
//
// Factories registered via Register return uninitialized backends; Open
// initializes them. A backend whose Init fails must be safe to Close.
type Backend interface {
	lane.Device

	// Init acquires the device runtime. Init is called once before any
	// queue is opened.
	Init() error
}
