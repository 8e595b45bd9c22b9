//go:build tinygo

// Command multisensor-pico is the microcontroller build of the sensor
// bridge. Log requests are written one per line to the USB serial port,
// where a host relay can forward them.
package main

import (
	"context"
	"log/slog"
	"machine"
	"net"
	"time"

	"github.com/multisensor/multisensor-go/pkg/bridge"
	"github.com/multisensor/multisensor-go/pkg/config"
	"github.com/multisensor/multisensor-go/pkg/dispatch"
	"github.com/multisensor/multisensor-go/pkg/fault"
	"github.com/multisensor/multisensor-go/pkg/hal/board"
	"github.com/multisensor/multisensor-go/pkg/model"
	"github.com/multisensor/multisensor-go/pkg/sensor"
	"github.com/multisensor/multisensor-go/pkg/version"
)

// lightADCPin is wired to the light-dependent resistor divider.
var lightADCPin = machine.ADC0

func main() {
	// Give the USB serial port time to enumerate.
	time.Sleep(2 * time.Second)

	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Default()

	id, err := config.NewIdentity(cfg.Device, net.HardwareAddr(machine.DeviceID()), version.Current)
	if err != nil {
		fatal(logger, "identity", err)
	}

	led := board.NewLED(cfg.Pins.LED)
	b, err := bridge.New(bridge.Hardware{
		Climate:   board.NewDHT22(cfg.Pins.Climate),
		Light:     board.NewADC(lightADCPin, 10),
		Motion:    board.NewInput(cfg.Pins.Motion, false),
		Indicator: led,
	}, dispatch.NewWriterSink(machine.Serial), bridge.Config{
		Info: model.Info{
			Name:         id.Name,
			Manufacturer: id.Manufacturer,
			SerialNumber: id.SerialNumber,
			Model:        id.Model,
			Firmware:     id.Firmware,
		},
		Climate: sensor.ClimateConfig{
			Interval:    cfg.Climate.Interval,
			Temperature: sensor.Schedule(cfg.Climate.Temperature),
			Humidity:    sensor.Schedule(cfg.Climate.Humidity),
		},
		Light: sensor.LightConfig{
			Interval: cfg.Light.Interval,
			MaxADC:   cfg.Light.MaxADC,
			Light:    sensor.Schedule(cfg.Light.Schedule),
		},
		Motion:      sensor.MotionConfig{QueueSize: cfg.Motion.QueueSize},
		SendTimeout: cfg.Dispatch.SendTimeout,
		Patterns:    fault.DefaultPatterns(),
		FaultQueue:  cfg.Fault.QueueSize,
		Logger:      logger,
	})
	if err != nil {
		fatal(logger, "bridge", err)
	}

	if err := b.Start(context.Background()); err != nil {
		fatal(logger, "start", err)
	}
	logger.Info("bridge running", "name", id.Name, "serial", id.SerialNumber)

	go watchResetButton(b, cfg.Pins.ResetButton, logger)

	code := <-b.Resets()
	logger.Warn("reset", "code", code.String())

	// Let the indicator finish the reset pattern before rebooting.
	time.Sleep(fault.DefaultPatterns()[code].Duration() + time.Second)
	_ = b.Stop()
	machine.CPUReset()
}

// watchResetButton polls the active-low button: a 3 s hold requests a
// configuration reset, a 10 s hold a wipe.
func watchResetButton(b *bridge.Bridge, pin int, logger *slog.Logger) {
	btn := board.NewInput(pin, true)
	const poll = 100 * time.Millisecond

	var held time.Duration
	for {
		time.Sleep(poll)
		if !btn.Get() {
			held += poll
			continue
		}
		if held == 0 {
			continue
		}

		code := fault.Code(0)
		switch {
		case held >= 10*time.Second:
			code = fault.ConfigWipe
		case held >= 3*time.Second:
			code = fault.ConfigReset
		}
		held = 0
		if code == 0 {
			continue
		}
		if err := b.Reset(code); err != nil {
			logger.Error("reset button", "error", err)
		}
	}
}

func fatal(logger *slog.Logger, what string, err error) {
	logger.Error("fatal", "stage", what, "error", err)
	for {
		time.Sleep(time.Second)
	}
}
