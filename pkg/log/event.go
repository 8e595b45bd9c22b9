package log

import (
	"time"
)

// Event represents a bridge event captured by any component.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Source names the component that emitted the event.
	Source Source `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Accessory is the accessory name the event belongs to.
	Accessory string `cbor:"4,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Reading     *ReadingEvent     `cbor:"10,keyasint,omitempty"` // Store write by a producer
	Dispatch    *DispatchEvent    `cbor:"11,keyasint,omitempty"` // Log request lifecycle
	Fault       *FaultEvent       `cbor:"12,keyasint,omitempty"` // Indicator signal
	StateChange *StateChangeEvent `cbor:"13,keyasint,omitempty"` // Component lifecycle
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors in any component
}

// Source identifies the emitting component.
type Source uint8

const (
	SourceBridge     Source = 0
	SourceClimate    Source = 1
	SourceLight      Source = 2
	SourceMotion     Source = 3
	SourceDispatcher Source = 4
	SourceIndicator  Source = 5
	SourceAccessory  Source = 6
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceBridge:
		return "BRIDGE"
	case SourceClimate:
		return "CLIMATE"
	case SourceLight:
		return "LIGHT"
	case SourceMotion:
		return "MOTION"
	case SourceDispatcher:
		return "DISPATCHER"
	case SourceIndicator:
		return "INDICATOR"
	case SourceAccessory:
		return "ACCESSORY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryReading indicates a sensor value written to the store.
	CategoryReading Category = 0
	// CategoryDispatch indicates a log request being queued, sent or dropped.
	CategoryDispatch Category = 1
	// CategoryFault indicates a fault code signalled on the indicator.
	CategoryFault Category = 2
	// CategoryState indicates a component state change.
	CategoryState Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryReading:
		return "READING"
	case CategoryDispatch:
		return "DISPATCH"
	case CategoryFault:
		return "FAULT"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ReadingEvent captures a value published into the accessory store.
type ReadingEvent struct {
	// Path is the characteristic path ("service/characteristic").
	Path string `cbor:"1,keyasint"`

	// Value is the stored value (bool or float64).
	Value any `cbor:"2,keyasint"`

	// Raw is the unconverted hardware value, when there is one.
	Raw *uint16 `cbor:"3,keyasint,omitempty"`
}

// DispatchEvent captures one step of a log request's life.
type DispatchEvent struct {
	// Stage is the lifecycle step.
	Stage DispatchStage `cbor:"1,keyasint"`

	// Table is the remote table the command inserts into.
	Table string `cbor:"2,keyasint,omitempty"`

	// Command is the rendered command string.
	Command string `cbor:"3,keyasint,omitempty"`

	// Duration is how long the sink took (sent and failed only).
	// Stored as nanoseconds.
	Duration *time.Duration `cbor:"4,keyasint,omitempty"`

	// Sink names the transport used.
	Sink string `cbor:"5,keyasint,omitempty"`
}

// DispatchStage is a step in the log request lifecycle.
type DispatchStage uint8

const (
	// DispatchRequested indicates a request was placed in the mailbox.
	DispatchRequested DispatchStage = 0
	// DispatchOverwritten indicates a pending request was replaced before it was sent.
	DispatchOverwritten DispatchStage = 1
	// DispatchSent indicates the sink accepted the command.
	DispatchSent DispatchStage = 2
	// DispatchFailed indicates the sink failed and the command was dropped.
	DispatchFailed DispatchStage = 3
)

// String returns the stage name.
func (s DispatchStage) String() string {
	switch s {
	case DispatchRequested:
		return "REQUESTED"
	case DispatchOverwritten:
		return "OVERWRITTEN"
	case DispatchSent:
		return "SENT"
	case DispatchFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// FaultEvent captures a fault code handed to the indicator.
type FaultEvent struct {
	// Code is the numeric fault code.
	Code uint8 `cbor:"1,keyasint"`

	// Name is the fault code name.
	Name string `cbor:"2,keyasint"`

	// Dropped indicates the indicator queue was full and the code was discarded.
	Dropped bool `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures component lifecycle events.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors in any component.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
