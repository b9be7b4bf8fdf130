package gridview

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while ticker goroutines are logging.
var loggerPtr atomic.Pointer[slog.Logger]

// loggerHooks receive every logger passed to SetLogger. Backend packages
// register here so one call configures the whole engine.
var loggerHooks atomic.Pointer[[]func(*slog.Logger)]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for gridview and its backend packages.
// By default gridview produces no log output. Pass nil to restore the
// silent default.
//
// Log levels used by gridview:
//   - [slog.LevelDebug]: buffer sizes, bundle rebuilds, ticker start/stop
//   - [slog.LevelInfo]: lifecycle events (device selected, group joined)
//   - [slog.LevelWarn]: non-fatal issues (resource release errors)
//
// Example:
//
//	gridview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	if hooks := loggerHooks.Load(); hooks != nil {
		for _, h := range *hooks {
			h(l)
		}
	}
}

// Logger returns the current logger used by gridview.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// RegisterLoggerHook adds a function called with the logger on every
// SetLogger, and once immediately with the current logger.
func RegisterLoggerHook(fn func(*slog.Logger)) {
	for {
		old := loggerHooks.Load()
		var next []func(*slog.Logger)
		if old != nil {
			next = append(next, *old...)
		}
		next = append(next, fn)
		if loggerHooks.CompareAndSwap(old, &next) {
			break
		}
	}
	fn(Logger())
}
