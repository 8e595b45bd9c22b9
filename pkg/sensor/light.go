package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/multisensor/multisensor-go/pkg/dispatch"
	"github.com/multisensor/multisensor-go/pkg/fault"
	"github.com/multisensor/multisensor-go/pkg/hal"
	"github.com/multisensor/multisensor-go/pkg/log"
	"github.com/multisensor/multisensor-go/pkg/model"
)

// Default light settings.
const (
	DefaultLightInterval = 5 * time.Second
	DefaultLightPeriod   = 10
	DefaultMaxADC        = 1024
)

// LightConfig configures a LightProducer.
type LightConfig struct {
	// Interval between reads (default: DefaultLightInterval).
	Interval time.Duration

	// MaxADC is the full-scale ADC value (default: DefaultMaxADC).
	MaxADC uint16

	// Light log schedule.
	Light Schedule
}

// DefaultLightConfig logs the light level every tenth cycle.
func DefaultLightConfig() LightConfig {
	return LightConfig{
		Interval: DefaultLightInterval,
		MaxADC:   DefaultMaxADC,
		Light:    Schedule{Period: DefaultLightPeriod},
	}
}

// LightProducer polls a light-dependent resistor on an ADC channel.
//
// The published level is MaxADC minus the raw reading, an inverted
// brightness scale. It is not calibrated to lux.
type LightProducer struct {
	adc      hal.ADC
	level    *model.Characteristic
	interval time.Duration
	maxADC   uint16
	out      Outputs

	counter SampleCounter
}

// NewLightProducer creates a producer writing to the ambient light
// characteristic.
func NewLightProducer(adc hal.ADC, level *model.Characteristic, cfg LightConfig, out Outputs) *LightProducer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultLightInterval
	}
	if cfg.MaxADC == 0 {
		cfg.MaxADC = DefaultMaxADC
	}
	out.init()
	return &LightProducer{
		adc:      adc,
		level:    level,
		interval: cfg.Interval,
		maxADC:   cfg.MaxADC,
		out:      out,
		counter:  NewSampleCounter(cfg.Light.Period, cfg.Light.Phase),
	}
}

// Level converts a raw ADC reading into the published light level.
func Level(raw, maxADC uint16) float64 {
	if raw >= maxADC {
		return 0
	}
	return float64(maxADC - raw)
}

// Cycle performs one read-publish-log step.
func (p *LightProducer) Cycle(ctx context.Context) error {
	raw := p.adc.Read()
	value := Level(raw, p.maxADC)

	p.out.Logger.Debug("light level", "raw", raw, "level", value)

	if err := p.level.Publish(value); err != nil {
		p.out.signal(fault.SensorError)
		p.out.Logger.Warn("light sensor cycle failed", "error", err)
		p.out.failure(log.SourceLight, "publish light", err)
		return fmt.Errorf("light publish: %w", err)
	}
	p.out.reading(log.SourceLight, p.level, value, &raw)

	if p.counter.Tick() {
		p.out.request(dispatch.Request{Table: dispatch.TableLight, Accessory: p.out.Accessory, Value: value})
	}
	return nil
}

// Run polls until ctx is cancelled.
func (p *LightProducer) Run(ctx context.Context) error {
	for {
		_ = p.Cycle(ctx)
		if err := sleep(ctx, p.interval); err != nil {
			return err
		}
	}
}

// Counter returns the light sample counter.
func (p *LightProducer) Counter() SampleCounter {
	return p.counter
}
