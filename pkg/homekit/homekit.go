// Package homekit exposes the accessory state store through the HomeKit
// Accessory Protocol, using github.com/brutella/hap for pairing, sessions
// and the wire format.
//
// Every store notification is forwarded to the matching hap characteristic,
// so hap pushes an event to subscribed controllers on each producer cycle.
package homekit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"github.com/multisensor/multisensor-go/pkg/model"
)

// ErrNoStoreDir is returned by NewServer without a store directory.
var ErrNoStoreDir = errors.New("homekit: store directory required")

// Identifier handles identify requests from controllers.
type Identifier interface {
	Identify()
}

// Accessory binds a multi-sensor store accessory to a hap accessory.
type Accessory struct {
	A *accessory.A

	Light       *service.LightSensor
	Motion      *service.MotionSensor
	Temperature *service.TemperatureSensor
	Humidity    *service.HumiditySensor
	Active      *characteristic.StatusActive

	bindings []binding
	logger   *slog.Logger
}

type binding struct {
	c  *model.Characteristic
	id int
}

// NewAccessory builds the hap services for store and starts forwarding
// store notifications. identify may be nil.
func NewAccessory(store *model.Accessory, identify Identifier, logger *slog.Logger) (*Accessory, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	info := store.Info()

	a := &Accessory{
		A: accessory.New(accessory.Info{
			Name:         info.Name,
			SerialNumber: info.SerialNumber,
			Manufacturer: info.Manufacturer,
			Model:        info.Model,
			Firmware:     info.Firmware,
		}, accessory.TypeSensor),
		Light:       service.NewLightSensor(),
		Motion:      service.NewMotionSensor(),
		Temperature: service.NewTemperatureSensor(),
		Humidity:    service.NewHumiditySensor(),
		Active:      characteristic.NewStatusActive(),
		logger:      logger,
	}

	a.Light.Primary = true
	a.Light.AddC(a.Active.C)
	a.A.AddS(a.Light.S)
	a.A.AddS(a.Motion.S)
	a.A.AddS(a.Temperature.S)
	a.A.AddS(a.Humidity.S)

	a.A.IdentifyFunc = func(*http.Request) {
		logger.Info("identify requested")
		if identify != nil {
			identify.Identify()
		}
	}

	binds := []struct {
		path string
		set  func(any)
	}{
		{model.PathAmbientLight, floatSetter(func(f float64) {
			a.Light.CurrentAmbientLightLevel.SetValue(max(f, lightFloor))
		})},
		{model.PathStatusActive, boolSetter(func(b bool) { a.Active.SetValue(b) })},
		{model.PathMotionDetected, boolSetter(func(b bool) { a.Motion.MotionDetected.SetValue(b) })},
		{model.PathTemperature, floatSetter(func(f float64) { a.Temperature.CurrentTemperature.SetValue(f) })},
		{model.PathRelativeHumidity, floatSetter(func(f float64) { a.Humidity.CurrentRelativeHumidity.SetValue(f) })},
	}
	for _, b := range binds {
		c, err := store.Lookup(b.path)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("bind %s: %w", b.path, err)
		}
		set := b.set
		set(c.Value())
		id := c.Subscribe(model.ObserverFunc(func(_ *model.Characteristic, v any) { set(v) }))
		a.bindings = append(a.bindings, binding{c: c, id: id})
	}
	return a, nil
}

// Close stops forwarding store notifications.
func (a *Accessory) Close() {
	for _, b := range a.bindings {
		b.c.Unsubscribe(b.id)
	}
	a.bindings = nil
}

// lightFloor is the smallest ambient light level the protocol accepts.
const lightFloor = 0.0001

func floatSetter(set func(float64)) func(any) {
	return func(v any) {
		f, ok := v.(float64)
		if !ok {
			return
		}
		set(f)
	}
}

func boolSetter(set func(bool)) func(any) {
	return func(v any) {
		b, ok := v.(bool)
		if !ok {
			return
		}
		set(b)
	}
}

// Config configures a Server.
type Config struct {
	// StoreDir persists pairings and keys.
	StoreDir string

	// Pin is the 8-digit setup code.
	Pin string

	// Addr is the listen address; empty picks a free port.
	Addr string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Server runs the accessory protocol server for one accessory.
type Server struct {
	srv    *hap.Server
	logger *slog.Logger
}

// NewServer creates the hap server for acc.
func NewServer(acc *Accessory, cfg Config) (*Server, error) {
	if cfg.StoreDir == "" {
		return nil, ErrNoStoreDir
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	srv, err := hap.NewServer(hap.NewFsStore(cfg.StoreDir), acc.A)
	if err != nil {
		return nil, fmt.Errorf("homekit server: %w", err)
	}
	if cfg.Pin != "" {
		srv.Pin = cfg.Pin
	}
	if cfg.Addr != "" {
		srv.Addr = cfg.Addr
	}
	return &Server{srv: srv, logger: logger}, nil
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("homekit server starting", "pin", s.srv.Pin, "addr", s.srv.Addr)
	err := s.srv.ListenAndServe(ctx)
	if errors.Is(err, http.ErrServerClosed) || ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
