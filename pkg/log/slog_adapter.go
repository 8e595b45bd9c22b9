package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes bridge events to an slog.Logger.
// Useful for development when you want to see bridge events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("source", event.Source.String()),
		slog.String("category", event.Category.String()),
	}

	if event.Accessory != "" {
		attrs = append(attrs, slog.String("accessory", event.Accessory))
	}

	// Add type-specific attributes
	switch {
	case event.Reading != nil:
		attrs = append(attrs,
			slog.String("path", event.Reading.Path),
			slog.Any("value", event.Reading.Value),
		)
		if event.Reading.Raw != nil {
			attrs = append(attrs, slog.Uint64("raw", uint64(*event.Reading.Raw)))
		}
	case event.Dispatch != nil:
		attrs = append(attrs, slog.String("stage", event.Dispatch.Stage.String()))
		if event.Dispatch.Table != "" {
			attrs = append(attrs, slog.String("table", event.Dispatch.Table))
		}
		if event.Dispatch.Command != "" {
			attrs = append(attrs, slog.String("command", event.Dispatch.Command))
		}
		if event.Dispatch.Sink != "" {
			attrs = append(attrs, slog.String("sink", event.Dispatch.Sink))
		}
		if event.Dispatch.Duration != nil {
			attrs = append(attrs, slog.Duration("duration", *event.Dispatch.Duration))
		}
	case event.Fault != nil:
		attrs = append(attrs,
			slog.String("fault", event.Fault.Name),
			slog.Int("code", int(event.Fault.Code)),
		)
		if event.Fault.Dropped {
			attrs = append(attrs, slog.Bool("dropped", true))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "bridge", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
