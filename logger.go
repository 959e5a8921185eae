package mailbox

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/mailbox/bitmap"
	"github.com/gogpu/mailbox/texture"
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
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for mailbox and its sub-packages
// (texture, bitmap). By default nothing is logged.
//
// Pass nil to restore the default silent behavior.
//
// Log levels used:
//   - [slog.LevelDebug]: produce, consume, texture and purge events
//   - [slog.LevelWarn]: tolerated misuse (produce into a closed registry,
//     double release)
//   - [slog.LevelError]: precondition violations
//
// Example:
//
//	mailbox.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	texture.SetLogger(l)
	bitmap.SetLogger(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
