package overlap

import (
	"github.com/gogpu/overlap/backend"
	"github.com/gogpu/overlap/lane"
)

// openDevice resolves the device lanes are built on. owned reports whether
// the caller must close it. Unavailability is logged, never returned: the
// null device stands in and the owner falls back.
func openDevice(s settings) (dev lane.Device, owned bool) {
	cfg := s.cfg
	if !cfg.Priority.IsStandard() {
		Logger().Warn("overlap: unusual lane priority", "priority", cfg.Priority.String())
	}

	prepare := func(b backend.Backend) { propagateLogger(b) }

	switch {
	case !cfg.Enabled:
		Logger().Debug("overlap: accelerator disabled by configuration")
		return backend.NewNullDevice(cfg.Device), true

	case s.device != nil:
		propagateLogger(s.device)
		return s.device, false

	case cfg.Backend != "":
		b, err := backend.Open(cfg.Backend, cfg.Device, prepare)
		if err != nil {
			Logger().Warn("overlap: backend unavailable, using sequential path",
				"backend", cfg.Backend, "device", int(cfg.Device), "error", err)
			return backend.NewNullDevice(cfg.Device), true
		}
		if !b.Available() {
			Logger().Warn("overlap: backend has no usable device, using sequential path",
				"backend", cfg.Backend, "device", int(cfg.Device))
			return b, true
		}
		Logger().Info("overlap: device selected", "backend", b.Name(), "device", int(cfg.Device))
		return b, true

	default:
		b, err := backend.OpenDefault(cfg.Device, prepare)
		if err != nil {
			Logger().Warn("overlap: no accelerator available, using sequential path",
				"device", int(cfg.Device), "error", err)
			return b, true
		}
		Logger().Info("overlap: device selected", "backend", b.Name(), "device", int(cfg.Device))
		return b, true
	}
}

// openLanes creates count lanes on dev. On failure the lanes created so far
// are closed and nil is returned.
func openLanes(dev lane.Device, count int, priority lane.Priority, label func(int) string) []*lane.Lane {
	if !dev.Available() {
		return nil
	}
	lanes := make([]*lane.Lane, 0, count)
	for i := range count {
		l, err := lane.New(dev, i, priority, label(i))
		if err != nil {
			Logger().Warn("overlap: lane creation failed, using sequential path",
				"lane", i, "device", dev.Name(), "error", err)
			closeLanes(lanes)
			return nil
		}
		lanes = append(lanes, l)
	}
	Logger().Debug("overlap: lanes opened", "count", count, "device", dev.Name(),
		"priority", priority.String())
	return lanes
}

func closeLanes(lanes []*lane.Lane) {
	for _, l := range lanes {
		l.Close()
	}
}
