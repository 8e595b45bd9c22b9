//go:build tinygo

package board

import (
	"machine"

	"tinygo.org/x/drivers/dht"

	"github.com/multisensor/multisensor-go/pkg/hal"
)

var (
	_ hal.InterruptPin  = (*Pin)(nil)
	_ hal.ADC           = (*ADC)(nil)
	_ hal.ClimateSensor = (*DHT22)(nil)
	_ hal.Indicator     = (*LED)(nil)
)

// Pin is a GPIO input.
type Pin struct {
	p machine.Pin
	n int
}

// NewInput configures pin n as an input with the given pull-up setting.
func NewInput(n int, pullUp bool) *Pin {
	p := machine.Pin(n)
	mode := machine.PinInput
	if pullUp {
		mode = machine.PinInputPullup
	}
	p.Configure(machine.PinConfig{Mode: mode})
	return &Pin{p: p, n: n}
}

func (r *Pin) Number() int { return r.n }
func (r *Pin) Get() bool   { return r.p.Get() }

// SetIRQ arms the pin interrupt. The machine callback receives the pin that
// fired, which is forwarded to handler unchanged.
func (r *Pin) SetIRQ(edge hal.Edge, handler hal.IRQHandler) error {
	return r.p.SetInterrupt(toPinChange(edge), func(p machine.Pin) { handler(int(p)) })
}

func (r *Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e hal.Edge) machine.PinChange {
	switch e {
	case hal.EdgeRising:
		return machine.PinRising
	case hal.EdgeFalling:
		return machine.PinFalling
	case hal.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

// ADC is an analog input scaled to the given resolution in bits.
type ADC struct {
	adc   machine.ADC
	shift uint
}

// NewADC configures the analog input on pin with a result width of bits.
// machine.ADC returns 16-bit values, so narrower widths are shifted down.
func NewADC(pin machine.Pin, bits uint) *ADC {
	machine.InitADC()
	a := machine.ADC{Pin: pin}
	a.Configure(machine.ADCConfig{})
	if bits == 0 || bits > 16 {
		bits = 16
	}
	return &ADC{adc: a, shift: 16 - bits}
}

func (a *ADC) Read() uint16 {
	return a.adc.Get() >> a.shift
}

// DHT22 is an AM2302 temperature and humidity sensor.
type DHT22 struct {
	dev dht.Device
}

// NewDHT22 creates the sensor on data pin n.
func NewDHT22(n int) *DHT22 {
	return &DHT22{dev: dht.New(machine.Pin(n), dht.DHT22)}
}

// Read triggers a measurement and returns it.
func (d *DHT22) Read() (hal.ClimateReading, error) {
	if err := d.dev.ReadMeasurements(); err != nil {
		return hal.ClimateReading{}, mapError(err)
	}
	temp, err := d.dev.TemperatureFloat(dht.C)
	if err != nil {
		return hal.ClimateReading{}, mapError(err)
	}
	hum, err := d.dev.HumidityFloat()
	if err != nil {
		return hal.ClimateReading{}, mapError(err)
	}
	return hal.ClimateReading{Temperature: float64(temp), Humidity: float64(hum)}, nil
}

func mapError(err error) error {
	switch err {
	case dht.ChecksumError:
		return hal.ErrChecksum
	case dht.NoSignalError, dht.NoDataError:
		return hal.ErrTimeout
	default:
		return err
	}
}

// LED is an active-high status light.
type LED struct {
	p machine.Pin
}

// NewLED configures pin n as an output, initially off.
func NewLED(n int) *LED {
	p := machine.Pin(n)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return &LED{p: p}
}

func (l *LED) Set(on bool) { l.p.Set(on) }
