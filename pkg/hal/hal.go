// Package hal defines the hardware boundary of the bridge.
//
// Producers depend only on these interfaces. The sim subpackage provides
// deterministic in-memory implementations for hosts and tests; the board
// subpackage binds them to microcontroller peripherals under TinyGo.
package hal

import "errors"

// Sensor read errors.
var (
	ErrChecksum      = errors.New("sensor checksum mismatch")
	ErrTimeout       = errors.New("sensor did not respond")
	ErrNotConfigured = errors.New("peripheral not configured")
)

// Edge selects which transitions raise an interrupt.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// String returns the edge name.
func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// Matches reports whether a transition to level fires an interrupt for e.
func (e Edge) Matches(level bool) bool {
	switch e {
	case EdgeBoth:
		return true
	case EdgeRising:
		return level
	case EdgeFalling:
		return !level
	default:
		return false
	}
}

// DigitalPin is a readable GPIO line.
type DigitalPin interface {
	Number() int
	Get() bool
}

// IRQHandler runs in interrupt context with the number of the pin that
// fired. It must not block, allocate or take locks.
type IRQHandler func(pin int)

// InterruptPin is a digital input that can raise interrupts.
type InterruptPin interface {
	DigitalPin
	SetIRQ(edge Edge, handler IRQHandler) error
	ClearIRQ() error
}

// ADC is a single analog input channel.
type ADC interface {
	// Read returns the raw conversion result.
	Read() uint16
}

// ClimateReading is one combined temperature and humidity sample.
type ClimateReading struct {
	// Temperature in degrees Celsius.
	Temperature float64

	// Humidity in percent relative humidity.
	Humidity float64
}

// ClimateSensor is a combined temperature and humidity sensor.
type ClimateSensor interface {
	Read() (ClimateReading, error)
}

// Indicator is a single on/off status light.
type Indicator interface {
	Set(on bool)
}
