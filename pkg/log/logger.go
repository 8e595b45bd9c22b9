package log

import "time"

// Logger is the interface applications implement to receive bridge events.
// Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records a bridge event. Implementations must be thread-safe.
	// The event should be processed quickly or queued; blocking affects performance.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}

// Emit stamps event with the current time if it has none and passes it to l.
// A nil l discards the event.
func Emit(l Logger, event Event) {
	if l == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	l.Log(event)
}

// Tee returns a Logger that passes each event to every non-nil logger in
// order. With a single logger it returns that logger unchanged.
func Tee(loggers ...Logger) Logger {
	var out tee
	for _, l := range loggers {
		if l == nil {
			continue
		}
		if _, ok := l.(NoopLogger); ok {
			continue
		}
		out = append(out, l)
	}
	switch len(out) {
	case 0:
		return NoopLogger{}
	case 1:
		return out[0]
	}
	return out
}

type tee []Logger

func (t tee) Log(event Event) {
	for _, l := range t {
		l.Log(event)
	}
}
