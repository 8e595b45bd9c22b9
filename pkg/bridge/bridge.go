// Package bridge wires the accessory state store to the sensor producers,
// the deferred log dispatcher and the status indicator.
//
// A running bridge owns one goroutine per polling producer, one for the
// motion task, one dispatcher and one indicator driver. Identify and reset
// requests arrive from the accessory protocol or the console and are safe to
// call from any goroutine.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/multisensor/multisensor-go/pkg/dispatch"
	"github.com/multisensor/multisensor-go/pkg/fault"
	"github.com/multisensor/multisensor-go/pkg/hal"
	"github.com/multisensor/multisensor-go/pkg/log"
	"github.com/multisensor/multisensor-go/pkg/model"
	"github.com/multisensor/multisensor-go/pkg/sensor"
	"github.com/multisensor/multisensor-go/pkg/version"
)

// Bridge errors.
var (
	ErrNotStarted      = errors.New("bridge not started")
	ErrAlreadyStarted  = errors.New("bridge already started")
	ErrMissingHardware = errors.New("missing hardware")
	ErrInvalidReset    = errors.New("not a reset code")
	ErrResetPending    = errors.New("reset already pending")
)

// State is the bridge lifecycle state.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateResetting
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateResetting:
		return "RESETTING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Hardware is the set of devices the bridge reads and drives.
type Hardware struct {
	Climate   hal.ClimateSensor
	Light     hal.ADC
	Motion    hal.InterruptPin
	Indicator hal.Indicator
}

// Config configures a Bridge.
type Config struct {
	// Info is the accessory identity. Info.Name is also written into every
	// log request.
	Info model.Info

	Climate sensor.ClimateConfig
	Light   sensor.LightConfig
	Motion  sensor.MotionConfig

	// SendTimeout bounds each remote log send.
	SendTimeout time.Duration

	// Patterns overrides the indicator patterns.
	Patterns fault.Patterns

	// FaultQueue bounds fault codes waiting for the indicator.
	FaultQueue int

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Events receives bridge events. May be nil.
	Events log.Logger
}

// Bridge is a running multi-sensor accessory.
type Bridge struct {
	acc *model.Accessory
	set *model.SensorSet

	climate    *sensor.ClimateProducer
	light      *sensor.LightProducer
	motion     *sensor.MotionProducer
	dispatcher *dispatch.Dispatcher
	signaler   *fault.Signaler

	logger *slog.Logger
	events log.Logger

	mu         sync.Mutex
	state      State
	cancelWork context.CancelFunc
	cancelAll  context.CancelFunc
	wg         sync.WaitGroup

	resets chan fault.Code
}

// New builds the store and every component. Nothing runs until Start.
func New(hw Hardware, sink dispatch.Sink, cfg Config) (*Bridge, error) {
	if hw.Climate == nil || hw.Light == nil || hw.Motion == nil || hw.Indicator == nil {
		return nil, ErrMissingHardware
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: no log sink", ErrMissingHardware)
	}
	if cfg.Info.Firmware == "" {
		cfg.Info.Firmware = version.Current
	}
	if _, err := version.Parse(cfg.Info.Firmware); err != nil {
		return nil, fmt.Errorf("accessory info: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	name := cfg.Info.Name

	acc, set := model.NewMultiSensorAccessory(cfg.Info)

	b := &Bridge{
		acc:    acc,
		set:    set,
		logger: logger,
		events: cfg.Events,
		resets: make(chan fault.Code, 1),
	}

	b.signaler = fault.NewSignaler(hw.Indicator, fault.Config{
		Patterns:  cfg.Patterns,
		QueueSize: cfg.FaultQueue,
		Logger:    logger.With("component", "indicator"),
		Events:    cfg.Events,
		Accessory: name,
	})
	b.dispatcher = dispatch.New(sink, dispatch.Config{
		SendTimeout: cfg.SendTimeout,
		Logger:      logger.With("component", "dispatch"),
		Events:      cfg.Events,
		Accessory:   name,
	})

	out := func(component string) sensor.Outputs {
		return sensor.Outputs{
			Accessory: name,
			Requests:  b.dispatcher,
			Faults:    b.signaler,
			Logger:    logger.With("component", component),
			Events:    cfg.Events,
		}
	}
	b.climate = sensor.NewClimateProducer(hw.Climate, set.Temperature, set.RelativeHumidity, cfg.Climate, out("climate"))
	b.light = sensor.NewLightProducer(hw.Light, set.AmbientLight, cfg.Light, out("light"))
	b.motion = sensor.NewMotionProducer(hw.Motion, set.MotionDetected, cfg.Motion, out("motion"))

	return b, nil
}

// Accessory returns the state store.
func (b *Bridge) Accessory() *model.Accessory { return b.acc }

// Sensors returns direct references to the store characteristics.
func (b *Bridge) Sensors() *model.SensorSet { return b.set }

// Motion returns the motion producer.
func (b *Bridge) Motion() *sensor.MotionProducer { return b.motion }

// State returns the lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Start launches every goroutine. The bridge runs until Stop or until ctx
// is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateIdle {
		return ErrAlreadyStarted
	}

	allCtx, cancelAll := context.WithCancel(ctx)
	workCtx, cancelWork := context.WithCancel(allCtx)
	b.cancelAll = cancelAll
	b.cancelWork = cancelWork

	b.spawn(allCtx, "indicator", b.signaler.Run)
	b.spawn(workCtx, "dispatch", b.dispatcher.Run)
	b.spawn(workCtx, "climate", b.climate.Run)
	b.spawn(workCtx, "light", b.light.Run)
	b.spawn(workCtx, "motion", b.motion.Run)

	b.setState(StateRunning, "start")
	b.logger.Info("bridge started", "accessory", b.acc.Info().Name)
	return nil
}

func (b *Bridge) spawn(ctx context.Context, name string, run func(context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		err := run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Error("component stopped", "component", name, "error", err)
			log.Emit(b.events, log.Event{
				Source:    log.SourceBridge,
				Category:  log.CategoryError,
				Accessory: b.acc.Info().Name,
				Error:     &log.ErrorEventData{Message: err.Error(), Context: name},
			})
		}
	}()
}

// Stop cancels every goroutine and waits for them to return.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	if b.state != StateRunning && b.state != StateResetting {
		b.mu.Unlock()
		return ErrNotStarted
	}
	cancel := b.cancelAll
	b.mu.Unlock()

	cancel()
	b.wg.Wait()

	b.mu.Lock()
	b.setState(StateStopped, "stop")
	b.mu.Unlock()
	b.logger.Info("bridge stopped")
	return nil
}

// Identify plays the identify pattern.
func (b *Bridge) Identify() {
	b.logger.Info("identify")
	b.signaler.Signal(fault.Identify)
}

// Reset accepts a configuration reset or wipe. It plays the matching
// pattern, stops the producers and the dispatcher, and delivers the code on
// Resets. The indicator keeps running until Stop.
func (b *Bridge) Reset(code fault.Code) error {
	if code != fault.ConfigReset && code != fault.ConfigWipe {
		return fmt.Errorf("%w: %s", ErrInvalidReset, code)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateRunning:
	case StateResetting:
		return ErrResetPending
	default:
		return ErrNotStarted
	}

	b.signaler.Signal(code)
	b.cancelWork()
	b.setState(StateResetting, code.String())
	b.logger.Warn("reset requested", "code", code.String())

	b.resets <- code
	return nil
}

// Resets delivers accepted reset codes. The owner is expected to Stop the
// bridge, clear the matching state and restart.
func (b *Bridge) Resets() <-chan fault.Code {
	return b.resets
}

// setState must be called with b.mu held.
func (b *Bridge) setState(s State, reason string) {
	old := b.state
	b.state = s
	log.Emit(b.events, log.Event{
		Source:      log.SourceBridge,
		Category:    log.CategoryState,
		Accessory:   b.acc.Info().Name,
		StateChange: &log.StateChangeEvent{OldState: old.String(), NewState: s.String(), Reason: reason},
	})
}

// Status is a snapshot of the bridge.
type Status struct {
	State    State
	Values   map[string]any
	Pending  bool
	Dispatch dispatch.Stats
	Fault    fault.Stats
	Motion   sensor.MotionStats
}

// Status returns the current snapshot.
func (b *Bridge) Status() Status {
	return Status{
		State:    b.State(),
		Values:   b.acc.Snapshot(),
		Pending:  b.dispatcher.Pending(),
		Dispatch: b.dispatcher.Stats(),
		Fault:    b.signaler.Stats(),
		Motion:   b.motion.Stats(),
	}
}
