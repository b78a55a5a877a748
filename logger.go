package overlap

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/overlap/lane"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for overlap and the devices it opens.
// By default, overlap produces no log output. Pass nil to restore silence.
//
// Log levels used by overlap:
//   - [slog.LevelDebug]: lane and batch bookkeeping
//   - [slog.LevelInfo]: device selection, benchmark summaries
//   - [slog.LevelWarn]: fallback to the sequential path, unusual priorities,
//     device initialization failures
//
// Devices opened afterwards receive the new logger. Devices already in use
// keep the logger they were opened with.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by overlap.
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the current logger to d if it accepts one.
func propagateLogger(d lane.Device) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(Logger())
	}
}
