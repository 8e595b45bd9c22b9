package sensor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/multisensor/multisensor-go/pkg/dispatch"
	"github.com/multisensor/multisensor-go/pkg/fault"
	"github.com/multisensor/multisensor-go/pkg/hal"
	"github.com/multisensor/multisensor-go/pkg/log"
	"github.com/multisensor/multisensor-go/pkg/model"
)

// DefaultMotionQueue is the number of interrupts buffered for the task.
const DefaultMotionQueue = 16

// ErrForeignPin is reported for an interrupt from a pin other than the
// motion pin.
var ErrForeignPin = errors.New("interrupt on unexpected pin")

// MotionConfig configures a MotionProducer.
type MotionConfig struct {
	// QueueSize bounds interrupts waiting for the task (default: DefaultMotionQueue).
	QueueSize int
}

// MotionProducer turns edges on a PIR sensor pin into motion updates.
type MotionProducer struct {
	pin      hal.InterruptPin
	detected *model.Characteristic
	out      Outputs

	irq     chan int
	drops   atomic.Uint64
	handled atomic.Uint64
	foreign atomic.Uint64
}

// NewMotionProducer creates a producer writing to the motion characteristic.
func NewMotionProducer(pin hal.InterruptPin, detected *model.Characteristic, cfg MotionConfig, out Outputs) *MotionProducer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultMotionQueue
	}
	out.init()
	return &MotionProducer{
		pin:      pin,
		detected: detected,
		out:      out,
		irq:      make(chan int, cfg.QueueSize),
	}
}

// isr runs in interrupt context: a non-blocking send and nothing else.
func (p *MotionProducer) isr(pin int) {
	select {
	case p.irq <- pin:
	default:
		p.drops.Add(1)
	}
}

// Run arms the interrupt and handles edges until ctx is cancelled.
func (p *MotionProducer) Run(ctx context.Context) error {
	if err := p.pin.SetIRQ(hal.EdgeBoth, p.isr); err != nil {
		return fmt.Errorf("arm motion interrupt: %w", err)
	}
	defer func() { _ = p.pin.ClearIRQ() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pin := <-p.irq:
			_ = p.Handle(pin)
		}
	}
}

// Handle processes one interrupt from pin in task context. An interrupt
// from any other pin than the motion pin signals a generic fault and
// changes nothing. Otherwise the level is re-read, published and logged.
func (p *MotionProducer) Handle(pin int) error {
	if pin != p.pin.Number() {
		p.foreign.Add(1)
		p.out.signal(fault.GenericError)
		err := fmt.Errorf("%w: %d", ErrForeignPin, pin)
		p.out.Logger.Warn("unexpected interrupt", "pin", pin)
		p.out.failure(log.SourceMotion, "interrupt", err)
		return err
	}

	level := p.pin.Get()
	if err := p.detected.Publish(level); err != nil {
		p.out.signal(fault.SensorError)
		p.out.failure(log.SourceMotion, "publish motion", err)
		return fmt.Errorf("motion publish: %w", err)
	}
	p.handled.Add(1)
	p.out.reading(log.SourceMotion, p.detected, level, nil)

	if level {
		p.out.Logger.Debug("motion detected", "pin", pin)
	} else {
		p.out.Logger.Debug("motion stopped", "pin", pin)
	}
	p.out.request(dispatch.MotionRequest(p.out.Accessory, level))
	return nil
}

// MotionStats is a snapshot of motion producer counters.
type MotionStats struct {
	Handled uint64
	Foreign uint64
	Dropped uint64
}

// Stats returns the current counters.
func (p *MotionProducer) Stats() MotionStats {
	return MotionStats{
		Handled: p.handled.Load(),
		Foreign: p.foreign.Load(),
		Dropped: p.drops.Load(),
	}
}
