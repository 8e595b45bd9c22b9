// Command multisensor runs the multi-sensor accessory bridge on a host.
//
// Without sensor hardware the bridge runs on simulated devices whose
// readings drift over time and can be driven from the interactive console.
//
// Usage:
//
//	multisensor [flags]
//
// Flags:
//
//	-config string      Configuration file path (YAML)
//	-log-level string   Log level: debug, info, warn, error
//	-sink string        Log sink: http, mqtt, writer, none
//	-url string         HTTP log endpoint
//	-discover           Find the log endpoint with mDNS
//	-events string      Event capture file (CBOR)
//	-store string       HomeKit pairing store directory
//	-pin string         HomeKit setup code (8 digits)
//	-no-homekit         Do not start the HomeKit server
//	-simulate           Drift simulated readings (default true)
//	-interactive        Start the interactive console
//	-version            Print version and exit
//
// Examples:
//
//	# Run with defaults, printing log requests to stdout
//	multisensor -sink writer -log-level debug
//
//	# Post log requests to a discovered endpoint
//	multisensor -sink http -discover
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/multisensor/multisensor-go/cmd/multisensor/interactive"
	"github.com/multisensor/multisensor-go/pkg/bridge"
	"github.com/multisensor/multisensor-go/pkg/config"
	"github.com/multisensor/multisensor-go/pkg/fault"
	"github.com/multisensor/multisensor-go/pkg/hal"
	"github.com/multisensor/multisensor-go/pkg/hal/sim"
	"github.com/multisensor/multisensor-go/pkg/homekit"
	"github.com/multisensor/multisensor-go/pkg/log"
	"github.com/multisensor/multisensor-go/pkg/model"
	"github.com/multisensor/multisensor-go/pkg/retry"
	"github.com/multisensor/multisensor-go/pkg/sensor"
	"github.com/multisensor/multisensor-go/pkg/version"
)

// Flags holds command-line overrides. Empty values keep the file setting.
type Flags struct {
	ConfigFile  string
	LogLevel    string
	Sink        string
	URL         string
	Discover    bool
	Events      string
	Store       string
	Pin         string
	NoHomeKit   bool
	Simulate    bool
	Interactive bool
	Version     bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.Sink, "sink", "", "Log sink: http, mqtt, writer, none")
	flag.StringVar(&flags.URL, "url", "", "HTTP log endpoint")
	flag.BoolVar(&flags.Discover, "discover", false, "Find the log endpoint with mDNS")
	flag.StringVar(&flags.Events, "events", "", "Event capture file (CBOR)")
	flag.StringVar(&flags.Store, "store", "", "HomeKit pairing store directory")
	flag.StringVar(&flags.Pin, "pin", "", "HomeKit setup code (8 digits)")
	flag.BoolVar(&flags.NoHomeKit, "no-homekit", false, "Do not start the HomeKit server")
	flag.BoolVar(&flags.Simulate, "simulate", true, "Drift simulated readings")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Start the interactive console")
	flag.BoolVar(&flags.Version, "version", false, "Print version and exit")
}

func main() {
	flag.Parse()

	if flags.Version {
		fmt.Println(version.Info("multisensor"))
		return
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var console *interactive.Console
	out := io.Writer(os.Stderr)
	if flags.Interactive {
		console, err = interactive.New()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Console: %v\n", err)
			os.Exit(1)
		}
		out = console.Stderr()
	}
	logger := setupLogging(out, cfg.LogLevel)

	if console != nil {
		go console.Run(ctx, stop)
	}

	if err := run(ctx, cfg, logger, console); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("multisensor failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(f Flags) (config.Config, error) {
	cfg := config.Default()
	if f.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(f.ConfigFile); err != nil {
			return cfg, err
		}
	}

	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.Sink != "" {
		cfg.Dispatch.Sink = f.Sink
	}
	if f.URL != "" {
		cfg.Dispatch.URL = f.URL
	}
	if f.Discover {
		cfg.Dispatch.Discover = true
	}
	if f.Events != "" {
		cfg.Events.Path = f.Events
	}
	if f.Store != "" {
		cfg.HomeKit.StoreDir = f.Store
	}
	if f.Pin != "" {
		cfg.HomeKit.Pin = f.Pin
	}
	if f.NoHomeKit {
		cfg.HomeKit.Enabled = false
	}
	return cfg, cfg.Validate()
}

func setupLogging(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// run starts the bridge and restarts it after every accepted reset until
// ctx is cancelled.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger, console *interactive.Console) error {
	mac, err := config.HardwareAddr(cfg.Device)
	if err != nil {
		return err
	}
	id, err := config.NewIdentity(cfg.Device, mac, version.Current)
	if err != nil {
		return err
	}
	logger.Info("identity", "name", id.Name, "serial", id.SerialNumber, "mac", id.HardwareAddr.String())

	hw := simHardware(cfg)

	for {
		code, err := runOnce(ctx, cfg, id, hw, logger, console)
		if err != nil {
			return err
		}
		if err := clearState(cfg, code); err != nil {
			return err
		}
		logger.Warn("restarting after reset", "code", code.String())
	}
}

// simulatedHardware is the host stand-in for the sensor board.
type simulatedHardware struct {
	climate   *sim.ClimateSensor
	adc       *sim.ADC
	motion    *sim.Pin
	indicator *sim.Indicator
}

func simHardware(cfg config.Config) *simulatedHardware {
	return &simulatedHardware{
		climate:   sim.NewClimateSensor(hal.ClimateReading{Temperature: 21.5, Humidity: 40}),
		adc:       sim.NewADC(300),
		motion:    sim.NewPin(cfg.Pins.Motion),
		indicator: &sim.Indicator{},
	}
}

// runOnce runs one bridge lifetime. It returns the reset code that ended
// it, or ctx's error.
func runOnce(ctx context.Context, cfg config.Config, id config.Identity, hw *simulatedHardware, logger *slog.Logger, console *interactive.Console) (fault.Code, error) {
	events, closeEvents, err := openEvents(cfg, logger)
	if err != nil {
		return 0, err
	}
	defer closeEvents()

	sink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return 0, err
	}

	patterns := fault.DefaultPatterns().Scale(cfg.Fault.PatternScale)
	b, err := bridge.New(bridge.Hardware{
		Climate:   hw.climate,
		Light:     hw.adc,
		Motion:    hw.motion,
		Indicator: hw.indicator,
	}, sink, bridge.Config{
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
		Patterns:    patterns,
		FaultQueue:  cfg.Fault.QueueSize,
		Logger:      logger,
		Events:      events,
	})
	if err != nil {
		return 0, err
	}

	hw.indicator.OnSet = func(on bool) { logger.Debug("led", "on", on) }

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := b.Start(runCtx); err != nil {
		return 0, err
	}
	defer func() { _ = b.Stop() }()

	if cfg.HomeKit.Enabled {
		acc, err := homekit.NewAccessory(b.Accessory(), b, logger.With("component", "homekit"))
		if err != nil {
			return 0, err
		}
		defer acc.Close()

		srv, err := homekit.NewServer(acc, homekit.Config{
			StoreDir: cfg.HomeKit.StoreDir,
			Pin:      cfg.HomeKit.Pin,
			Addr:     cfg.HomeKit.Addr,
			Logger:   logger.With("component", "homekit"),
		})
		if err != nil {
			return 0, err
		}
		go retry.Supervise(runCtx, "homekit", retry.New(retry.Config{}), logger, srv.Run)
	}

	simulator := NewSimulator(hw, logger)
	if flags.Simulate {
		simulator.Start(runCtx)
	}
	defer simulator.Stop()

	if console != nil {
		console.SetTarget(&interactive.Target{
			Bridge:    b,
			Climate:   hw.climate,
			Light:     hw.adc,
			Motion:    hw.motion,
			Simulator: simulator,
		})
		defer console.SetTarget(nil)
	}

	return awaitReset(runCtx, b.Resets(), patterns)
}

// awaitReset blocks until a reset is requested, then lets the indicator
// finish the reset pattern before the bridge is stopped.
func awaitReset(ctx context.Context, resets <-chan fault.Code, patterns fault.Patterns) (fault.Code, error) {
	var code fault.Code
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case code = <-resets:
	}

	t := time.NewTimer(patterns[code].Duration())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-t.C:
		return code, nil
	}
}

// openEvents opens event capture: the CBOR file if configured, mirrored to
// slog at debug level.
func openEvents(cfg config.Config, logger *slog.Logger) (log.Logger, func(), error) {
	adapter := log.NewSlogAdapter(logger.With("component", "events"))
	if cfg.Events.Path == "" {
		return adapter, func() {}, nil
	}

	file, err := log.OpenFileLogger(cfg.Events.Path, captureOptions(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("open event capture: %w", err)
	}
	closeFile := func() {
		if n := file.Dropped(); n > 0 {
			logger.Warn("event capture dropped records", "count", n)
		}
		_ = file.Close()
	}
	return log.Tee(file, adapter), closeFile, nil
}

func captureOptions(cfg config.Config) log.FileOptions {
	return log.FileOptions{MaxSize: cfg.Events.MaxSize, Backups: cfg.Events.Backups}
}

// clearState removes what a reset clears: pairings for a reset, pairings
// and captured events for a wipe.
func clearState(cfg config.Config, code fault.Code) error {
	if err := os.RemoveAll(cfg.HomeKit.StoreDir); err != nil {
		return fmt.Errorf("clear pairing store: %w", err)
	}
	if code == fault.ConfigWipe && cfg.Events.Path != "" {
		for _, p := range log.CapturePaths(cfg.Events.Path, captureOptions(cfg)) {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("clear event capture: %w", err)
			}
		}
	}
	return nil
}
