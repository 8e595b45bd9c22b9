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

// Default climate settings.
const (
	DefaultClimateInterval   = 10 * time.Second
	DefaultTemperaturePeriod = 10
	DefaultHumidityPeriod    = 10
	DefaultHumidityPhase     = 5
)

// Schedule sets how often a quantity is logged, in cycles.
type Schedule struct {
	// Period is the number of cycles between log requests (0 disables).
	Period int

	// Phase is the initial counter value, shifting the first log request
	// to cycle Period-Phase.
	Phase int
}

// ClimateConfig configures a ClimateProducer.
type ClimateConfig struct {
	// Interval between reads (default: DefaultClimateInterval).
	Interval time.Duration

	// Temperature log schedule.
	Temperature Schedule

	// Humidity log schedule.
	Humidity Schedule
}

// DefaultClimateConfig logs temperature on cycles 10, 20, ... and humidity
// on cycles 5, 15, ...
func DefaultClimateConfig() ClimateConfig {
	return ClimateConfig{
		Interval:    DefaultClimateInterval,
		Temperature: Schedule{Period: DefaultTemperaturePeriod},
		Humidity:    Schedule{Period: DefaultHumidityPeriod, Phase: DefaultHumidityPhase},
	}
}

// ClimateProducer polls a combined temperature and humidity sensor.
type ClimateProducer struct {
	sensor   hal.ClimateSensor
	temp     *model.Characteristic
	hum      *model.Characteristic
	interval time.Duration
	out      Outputs

	tempCounter SampleCounter
	humCounter  SampleCounter
}

// NewClimateProducer creates a producer writing to the temperature and
// humidity characteristics.
func NewClimateProducer(sensor hal.ClimateSensor, temp, hum *model.Characteristic, cfg ClimateConfig, out Outputs) *ClimateProducer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultClimateInterval
	}
	out.init()
	return &ClimateProducer{
		sensor:      sensor,
		temp:        temp,
		hum:         hum,
		interval:    cfg.Interval,
		out:         out,
		tempCounter: NewSampleCounter(cfg.Temperature.Period, cfg.Temperature.Phase),
		humCounter:  NewSampleCounter(cfg.Humidity.Period, cfg.Humidity.Phase),
	}
}

// Cycle performs one read-publish-log step.
func (p *ClimateProducer) Cycle(ctx context.Context) error {
	r, err := p.sensor.Read()
	if err != nil {
		return p.fail("read", err)
	}

	p.out.Logger.Debug("got readings", "temperature", r.Temperature, "humidity", r.Humidity)

	// Both values must be valid before either is stored.
	if err := p.temp.Validate(r.Temperature); err != nil {
		return p.fail("validate temperature", err)
	}
	if err := p.hum.Validate(r.Humidity); err != nil {
		return p.fail("validate humidity", err)
	}

	if err := p.temp.Publish(r.Temperature); err != nil {
		return p.fail("publish temperature", err)
	}
	p.out.reading(log.SourceClimate, p.temp, r.Temperature, nil)

	if err := p.hum.Publish(r.Humidity); err != nil {
		return p.fail("publish humidity", err)
	}
	p.out.reading(log.SourceClimate, p.hum, r.Humidity, nil)

	if p.tempCounter.Tick() {
		p.out.request(dispatch.Request{Table: dispatch.TableTemperature, Accessory: p.out.Accessory, Value: r.Temperature})
	}
	if p.humCounter.Tick() {
		p.out.request(dispatch.Request{Table: dispatch.TableHumidity, Accessory: p.out.Accessory, Value: r.Humidity})
	}
	return nil
}

func (p *ClimateProducer) fail(op string, err error) error {
	p.out.signal(fault.SensorError)
	p.out.Logger.Warn("climate sensor cycle failed", "op", op, "error", err)
	p.out.failure(log.SourceClimate, op, err)
	return fmt.Errorf("climate %s: %w", op, err)
}

// Run polls until ctx is cancelled. Cycle errors are reported and do not
// stop the loop.
func (p *ClimateProducer) Run(ctx context.Context) error {
	for {
		_ = p.Cycle(ctx)
		if err := sleep(ctx, p.interval); err != nil {
			return err
		}
	}
}

// Counters returns the temperature and humidity sample counters.
func (p *ClimateProducer) Counters() (temperature, humidity SampleCounter) {
	return p.tempCounter, p.humCounter
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
