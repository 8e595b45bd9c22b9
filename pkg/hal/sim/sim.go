// Package sim provides in-memory hardware for hosts without sensors.
package sim

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/multisensor/multisensor-go/pkg/hal"
)

// ErrNilHandler is returned by SetIRQ when no handler is given.
var ErrNilHandler = errors.New("nil interrupt handler")

var (
	_ hal.InterruptPin  = (*Pin)(nil)
	_ hal.ADC           = (*ADC)(nil)
	_ hal.ClimateSensor = (*ClimateSensor)(nil)
	_ hal.Indicator     = (*Indicator)(nil)
)

// Pin is a simulated digital input with interrupt support.
type Pin struct {
	n     int
	level atomic.Bool

	mu      sync.Mutex
	edge    hal.Edge
	handler hal.IRQHandler
}

// NewPin creates a low pin with the given number.
func NewPin(n int) *Pin {
	return &Pin{n: n}
}

// Number returns the pin number.
func (p *Pin) Number() int { return p.n }

// Get returns the current line level.
func (p *Pin) Get() bool { return p.level.Load() }

// SetIRQ arms the interrupt.
func (p *Pin) SetIRQ(edge hal.Edge, handler hal.IRQHandler) error {
	if handler == nil {
		return ErrNilHandler
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edge = edge
	p.handler = handler
	return nil
}

// ClearIRQ disarms the interrupt.
func (p *Pin) ClearIRQ() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edge = hal.EdgeNone
	p.handler = nil
	return nil
}

// Armed reports whether an interrupt handler is installed.
func (p *Pin) Armed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handler != nil
}

// Drive sets the line level. A level change runs the handler synchronously
// when the armed edge matches, as the interrupt controller would.
func (p *Pin) Drive(level bool) {
	if p.level.Swap(level) == level {
		return
	}
	p.mu.Lock()
	edge, h := p.edge, p.handler
	p.mu.Unlock()

	if h != nil && edge.Matches(level) {
		h(p.n)
	}
}

// Spurious runs the handler as if pin n had raised the interrupt, without
// changing the line level.
func (p *Pin) Spurious(n int) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()

	if h != nil {
		h(n)
	}
}

// ADC is a simulated analog channel.
type ADC struct {
	v     atomic.Uint32
	reads atomic.Uint64
}

// NewADC creates a channel that reads raw.
func NewADC(raw uint16) *ADC {
	a := &ADC{}
	a.Set(raw)
	return a
}

// Set changes the value returned by subsequent reads.
func (a *ADC) Set(raw uint16) { a.v.Store(uint32(raw)) }

// Read returns the current raw value.
func (a *ADC) Read() uint16 {
	a.reads.Add(1)
	return uint16(a.v.Load())
}

// Reads returns how many conversions were taken.
func (a *ADC) Reads() uint64 { return a.reads.Load() }

// ClimateSensor is a simulated temperature and humidity sensor.
type ClimateSensor struct {
	mu      sync.Mutex
	reading hal.ClimateReading
	err     error
	reads   int
}

// NewClimateSensor creates a sensor that returns r.
func NewClimateSensor(r hal.ClimateReading) *ClimateSensor {
	return &ClimateSensor{reading: r}
}

// Set changes the reading and clears any injected failure.
func (s *ClimateSensor) Set(r hal.ClimateReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading = r
	s.err = nil
}

// Update changes the reading but keeps any injected failure.
func (s *ClimateSensor) Update(r hal.ClimateReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading = r
}

// Fail makes every read return err until Set is called. A nil err makes
// reads fail with hal.ErrTimeout.
func (s *ClimateSensor) Fail(err error) {
	if err == nil {
		err = hal.ErrTimeout
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Recover clears an injected failure and keeps the last reading.
func (s *ClimateSensor) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

// Read returns the configured reading or the injected failure.
func (s *ClimateSensor) Read() (hal.ClimateReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return hal.ClimateReading{}, s.err
	}
	return s.reading, nil
}

// Reads returns how many reads were attempted.
func (s *ClimateSensor) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Indicator records every level written to it.
type Indicator struct {
	mu     sync.Mutex
	levels []bool

	// OnSet, if non-nil, is called after every write.
	OnSet func(on bool)
}

// Set records the level.
func (i *Indicator) Set(on bool) {
	i.mu.Lock()
	i.levels = append(i.levels, on)
	cb := i.OnSet
	i.mu.Unlock()

	if cb != nil {
		cb(on)
	}
}

// Levels returns a copy of all recorded levels.
func (i *Indicator) Levels() []bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]bool, len(i.levels))
	copy(out, i.levels)
	return out
}

// Pulses returns how many off-to-on transitions were recorded.
func (i *Indicator) Pulses() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	var n int
	prev := false
	for _, l := range i.levels {
		if l && !prev {
			n++
		}
		prev = l
	}
	return n
}

// On returns the last level written.
func (i *Indicator) On() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.levels) == 0 {
		return false
	}
	return i.levels[len(i.levels)-1]
}
