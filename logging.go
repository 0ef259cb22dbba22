package csp

import (
	"io"

	"github.com/joeycumines/logiface"
	stumpy "github.com/joeycumines/stumpy"
)

// logger is the minimal structured-event surface this package needs
// from a logiface logger, narrowed so callers can also plug in their
// own adapter without importing logiface themselves — mirroring the
// pluggable-global pattern of eventloop.SetStructuredLogger, but kept
// as a small local interface rather than the generic logiface.Logger[E]
// so logging.go doesn't force a type parameter onto every caller of
// WithLogger.
type logger interface {
	Info(msg string, kv ...any)
	Error(msg string, kv ...any)
	Trace(msg string, kv ...any)
}

// logifaceAdapter fronts a *logiface.Logger[*stumpy.Event], the
// logiface+stumpy pairing used throughout logiface-stumpy's own
// examples (stumpy is logiface's zero-allocation JSON backend).
type logifaceAdapter struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger builds the default structured logger for
// InitRuntime's WithLogger option: logiface fronting stumpy, writing
// newline-delimited JSON events to w.
func NewStumpyLogger(w io.Writer) logger {
	l := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithTimeField("ts"), stumpy.WithWriter(w)),
	)
	return &logifaceAdapter{l: l}
}

func (a *logifaceAdapter) Info(msg string, kv ...any) {
	logWithFields(a.l.Info(), msg, kv)
}

func (a *logifaceAdapter) Error(msg string, kv ...any) {
	logWithFields(a.l.Err(), msg, kv)
}

func (a *logifaceAdapter) Trace(msg string, kv ...any) {
	logWithFields(a.l.Trace(), msg, kv)
}

func logWithFields(b *logiface.Builder[*stumpy.Event], msg string, kv []any) {
	if b == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		switch v := kv[i+1].(type) {
		case string:
			b = b.Str(key, v)
		case int:
			b = b.Int(key, v)
		case int64:
			b = b.Int64(key, v)
		case uint64:
			b = b.Int64(key, int64(v))
		case bool:
			b = b.Bool(key, v)
		case error:
			b = b.Err(v)
		default:
			b = b.Any(key, v)
		}
	}
	b.Log(msg)
}

// noopLogger is the default when InitRuntime is called with no
// WithLogger option: scheduler/channel/alt tracing costs nothing on
// the hot path, matching logiface's own no-op writer idiom.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Trace(string, ...any) {}
