package model

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// FloatEpsilon is the smallest difference between two float values that
// SetValue treats as a change.
const FloatEpsilon = 1e-6

// Format is the semantic type of a characteristic value.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatBool
	FormatFloat
	FormatString
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatBool:
		return "bool"
	case FormatFloat:
		return "float"
	case FormatString:
		return "string"
	default:
		return "unknown"
	}
}

// Metadata describes a characteristic's properties.
type Metadata struct {
	// Name identifies the characteristic within its service.
	Name string

	// Format is the semantic type of the value.
	Format Format

	// MinValue is the minimum allowed value (float characteristics only).
	MinValue *float64

	// MaxValue is the maximum allowed value (float characteristics only).
	MaxValue *float64

	// Default is the value before the first write.
	Default any

	// Unit is the unit of measurement (e.g., "celsius", "lux", "percentage").
	Unit string

	// Description is a human-readable description.
	Description string
}

// Bound returns a pointer to v, for use as MinValue or MaxValue.
func Bound(v float64) *float64 { return &v }

// Observer is notified when a characteristic publishes a value.
type Observer interface {
	OnValue(c *Characteristic, value any)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(c *Characteristic, value any)

// OnValue calls f(c, value).
func (f ObserverFunc) OnValue(c *Characteristic, value any) { f(c, value) }

// Characteristic errors.
var (
	ErrValueType  = errors.New("invalid value type for characteristic")
	ErrOutOfRange = errors.New("value out of range")
	ErrNilValue   = errors.New("characteristic does not accept nil")
)

// Characteristic is a named, typed value with change observers.
type Characteristic struct {
	mu        sync.RWMutex
	meta      *Metadata
	service   string
	value     any
	observers []subscription
	nextID    int

	notifications atomic.Uint64
}

// NewCharacteristic creates a characteristic holding meta.Default.
func NewCharacteristic(meta *Metadata) *Characteristic {
	c := &Characteristic{meta: meta}
	if meta.Default != nil {
		if v, err := normalize(meta.Format, meta.Default); err == nil {
			c.value = v
		}
	}
	if c.value == nil {
		c.value = zeroValue(meta.Format)
	}
	return c
}

// Name returns the characteristic name.
func (c *Characteristic) Name() string {
	return c.meta.Name
}

// Path returns "service/name", or just the name when not attached to a service.
func (c *Characteristic) Path() string {
	if c.service == "" {
		return c.meta.Name
	}
	return c.service + "/" + c.meta.Name
}

// Metadata returns the characteristic metadata.
func (c *Characteristic) Metadata() *Metadata {
	return c.meta
}

// Value returns the current value. It never blocks on I/O and never fails.
func (c *Characteristic) Value() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Float returns the current value of a float characteristic, or 0.
func (c *Characteristic) Float() float64 {
	v, _ := c.Value().(float64)
	return v
}

// Bool returns the current value of a bool characteristic, or false.
func (c *Characteristic) Bool() bool {
	v, _ := c.Value().(bool)
	return v
}

// Text returns the current value of a string characteristic, or "".
func (c *Characteristic) Text() string {
	v, _ := c.Value().(string)
	return v
}

// Notifications returns how many times observers have been notified.
func (c *Characteristic) Notifications() uint64 {
	return c.notifications.Load()
}

// SetValue stores value and notifies observers if it differs materially
// from the previous value. It reports whether the value changed.
// An invalid value is rejected and the stored value is left untouched.
func (c *Characteristic) SetValue(value any) (bool, error) {
	v, err := c.validate(value)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	changed := !equalValues(c.value, v)
	if changed {
		c.value = v
	}
	c.mu.Unlock()

	if changed {
		c.notify(v)
	}
	return changed, nil
}

// Publish stores value and notifies observers exactly once, whether or not
// the value changed.
func (c *Characteristic) Publish(value any) error {
	v, err := c.validate(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.value = v
	c.mu.Unlock()

	c.notify(v)
	return nil
}

// Notify re-sends the current value to all observers.
func (c *Characteristic) Notify() {
	c.notify(c.Value())
}

type subscription struct {
	id  int
	obs Observer
}

// Subscribe adds an observer and returns an ID for Unsubscribe.
func (c *Characteristic) Subscribe(obs Observer) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	c.observers = append(c.observers, subscription{id: c.nextID, obs: obs})
	return c.nextID
}

// Unsubscribe removes the observer registered under id.
func (c *Characteristic) Unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.observers {
		if s.id == id {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			return
		}
	}
}

// notify runs observers without holding the lock so they may read the
// characteristic.
func (c *Characteristic) notify(value any) {
	c.mu.RLock()
	subs := make([]subscription, len(c.observers))
	copy(subs, c.observers)
	c.mu.RUnlock()

	c.notifications.Add(1)
	for _, s := range subs {
		s.obs.OnValue(c, value)
	}
}

// Validate checks value against the characteristic's format and range
// without storing it.
func (c *Characteristic) Validate(value any) error {
	_, err := c.validate(value)
	return err
}

// validate checks type and range, returning the normalized value.
func (c *Characteristic) validate(value any) (any, error) {
	if value == nil {
		return nil, ErrNilValue
	}
	v, err := normalize(c.meta.Format, value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Path(), err)
	}

	if f, ok := v.(float64); ok {
		if math.IsNaN(f) {
			return nil, fmt.Errorf("%s: %w: NaN", c.Path(), ErrOutOfRange)
		}
		if c.meta.MinValue != nil && f < *c.meta.MinValue {
			return nil, fmt.Errorf("%s: %w: %v < %v", c.Path(), ErrOutOfRange, f, *c.meta.MinValue)
		}
		if c.meta.MaxValue != nil && f > *c.meta.MaxValue {
			return nil, fmt.Errorf("%s: %w: %v > %v", c.Path(), ErrOutOfRange, f, *c.meta.MaxValue)
		}
	}
	return v, nil
}

// normalize converts value to the canonical Go type for format:
// bool, float64 or string.
func normalize(format Format, value any) (any, error) {
	switch format {
	case FormatBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("%w: expected bool, got %T", ErrValueType, value)
	case FormatFloat:
		if f, ok := toFloat64(value); ok {
			return f, nil
		}
		return nil, fmt.Errorf("%w: expected number, got %T", ErrValueType, value)
	case FormatString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("%w: expected string, got %T", ErrValueType, value)
	default:
		return nil, fmt.Errorf("%w: unknown format", ErrValueType)
	}
}

func zeroValue(format Format) any {
	switch format {
	case FormatBool:
		return false
	case FormatFloat:
		return float64(0)
	case FormatString:
		return ""
	default:
		return nil
	}
}

func equalValues(a, b any) bool {
	fa, aok := a.(float64)
	fb, bok := b.(float64)
	if aok && bok {
		return math.Abs(fa-fb) < FloatEpsilon
	}
	return a == b
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
