// Package config holds the bridge configuration and the device identity.
//
// Configuration is read from a YAML file on top of Default(), whose values
// match the reference board: PIR on GPIO 5, DHT22 on GPIO 4, status LED on
// GPIO 13 and the reset button on GPIO 0.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Sink types.
const (
	SinkHTTP   = "http"
	SinkMQTT   = "mqtt"
	SinkWriter = "writer"
	SinkNone   = "none"
)

// Config is the complete bridge configuration.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Pins     PinConfig      `yaml:"pins"`
	Climate  ClimateConfig  `yaml:"climate"`
	Light    LightConfig    `yaml:"light"`
	Motion   MotionConfig   `yaml:"motion"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Fault    FaultConfig    `yaml:"fault"`
	HomeKit  HomeKitConfig  `yaml:"homekit"`
	Events   EventsConfig   `yaml:"events"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// DeviceConfig describes the accessory information.
type DeviceConfig struct {
	// BaseName is the accessory name prefix; the identity appends a
	// hardware-address suffix.
	BaseName     string `yaml:"base_name"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`

	// HardwareAddr overrides the interface address used to derive the
	// identity (e.g. "aa:bb:cc:1a:2b:3c").
	HardwareAddr string `yaml:"hardware_addr"`
}

// PinConfig assigns GPIO numbers.
type PinConfig struct {
	Motion      int `yaml:"motion"`
	Climate     int `yaml:"climate"`
	LED         int `yaml:"led"`
	ResetButton int `yaml:"reset_button"`
}

// Schedule sets how often a quantity is logged, in cycles.
type Schedule struct {
	Period int `yaml:"period"`
	Phase  int `yaml:"phase"`
}

// ClimateConfig configures the temperature and humidity producer.
type ClimateConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Temperature Schedule      `yaml:"temperature"`
	Humidity    Schedule      `yaml:"humidity"`
}

// LightConfig configures the light producer.
type LightConfig struct {
	Interval time.Duration `yaml:"interval"`
	MaxADC   uint16        `yaml:"max_adc"`
	Schedule Schedule      `yaml:"schedule"`
}

// MotionConfig configures the motion producer.
type MotionConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// DispatchConfig selects and configures the remote log sink.
type DispatchConfig struct {
	// Sink is one of http, mqtt, writer, none.
	Sink        string        `yaml:"sink"`
	URL         string        `yaml:"url"`
	SendTimeout time.Duration `yaml:"send_timeout"`

	// Discover browses mDNS for the endpoint when URL is empty.
	Discover        bool          `yaml:"discover"`
	DiscoverTimeout time.Duration `yaml:"discover_timeout"`

	// DiscoverAttempts bounds browse rounds; 0 retries until shutdown.
	DiscoverAttempts int `yaml:"discover_attempts"`

	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig configures the MQTT sink.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// FaultConfig configures the status indicator.
type FaultConfig struct {
	QueueSize int `yaml:"queue_size"`

	// PatternScale stretches (>1) or compresses (<1) every pattern.
	PatternScale float64 `yaml:"pattern_scale"`
}

// HomeKitConfig configures the accessory server.
type HomeKitConfig struct {
	Enabled  bool   `yaml:"enabled"`
	StoreDir string `yaml:"store_dir"`
	Pin      string `yaml:"pin"`
	Addr     string `yaml:"addr"`
}

// EventsConfig configures event capture.
type EventsConfig struct {
	// Path is the CBOR capture file; empty disables capture.
	Path string `yaml:"path"`

	// MaxSize rotates the capture file past this many bytes (0: unbounded).
	MaxSize int64 `yaml:"max_size"`

	// Backups is the number of rotated capture files kept.
	Backups int `yaml:"backups"`
}

// Default returns the configuration of the reference board.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			BaseName:     "Multi-Sensor",
			Manufacturer: "multisensor-go",
			Model:        "1",
		},
		Pins: PinConfig{
			Motion:      5,
			Climate:     4,
			LED:         13,
			ResetButton: 0,
		},
		Climate: ClimateConfig{
			Interval:    10 * time.Second,
			Temperature: Schedule{Period: 10},
			Humidity:    Schedule{Period: 10, Phase: 5},
		},
		Light: LightConfig{
			Interval: 5 * time.Second,
			MaxADC:   1024,
			Schedule: Schedule{Period: 10},
		},
		Motion: MotionConfig{QueueSize: 16},
		Dispatch: DispatchConfig{
			Sink:             SinkNone,
			SendTimeout:      10 * time.Second,
			DiscoverTimeout:  5 * time.Second,
			DiscoverAttempts: 3,
			MQTT: MQTTConfig{
				Topic:    "multisensor/log",
				ClientID: "multisensor",
			},
		},
		Fault: FaultConfig{
			QueueSize:    4,
			PatternScale: 1,
		},
		HomeKit: HomeKitConfig{
			Enabled:  true,
			StoreDir: "multisensor-db",
			Pin:      "11111111",
		},
		Events:   EventsConfig{MaxSize: 4 << 20, Backups: 1},
		LogLevel: "info",
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Validate checks the configuration for values the bridge cannot run with.
func (c *Config) Validate() error {
	if c.Device.BaseName == "" {
		return fmt.Errorf("%w: device.base_name is empty", ErrInvalidConfig)
	}
	if c.Pins.Motion < 0 || c.Pins.Climate < 0 || c.Pins.LED < 0 || c.Pins.ResetButton < 0 {
		return fmt.Errorf("%w: negative pin number", ErrInvalidConfig)
	}
	if c.Pins.Motion == c.Pins.Climate || c.Pins.Motion == c.Pins.LED || c.Pins.Climate == c.Pins.LED {
		return fmt.Errorf("%w: pins must be distinct", ErrInvalidConfig)
	}
	if c.Climate.Interval <= 0 || c.Light.Interval <= 0 {
		return fmt.Errorf("%w: polling intervals must be positive", ErrInvalidConfig)
	}
	for name, s := range map[string]Schedule{
		"climate.temperature": c.Climate.Temperature,
		"climate.humidity":    c.Climate.Humidity,
		"light.schedule":      c.Light.Schedule,
	} {
		if s.Period < 0 || s.Phase < 0 || (s.Period > 0 && s.Phase >= s.Period) {
			return fmt.Errorf("%w: %s: period %d phase %d", ErrInvalidConfig, name, s.Period, s.Phase)
		}
	}
	if c.Light.MaxADC == 0 {
		return fmt.Errorf("%w: light.max_adc is zero", ErrInvalidConfig)
	}
	if c.Dispatch.DiscoverAttempts < 0 {
		return fmt.Errorf("%w: dispatch.discover_attempts is negative", ErrInvalidConfig)
	}
	if c.Events.MaxSize < 0 || c.Events.Backups < 0 {
		return fmt.Errorf("%w: events.max_size and events.backups must not be negative", ErrInvalidConfig)
	}
	if c.Fault.PatternScale <= 0 {
		return fmt.Errorf("%w: fault.pattern_scale must be positive", ErrInvalidConfig)
	}

	switch c.Dispatch.Sink {
	case SinkNone, SinkWriter:
	case SinkHTTP:
		if c.Dispatch.URL == "" && !c.Dispatch.Discover {
			return fmt.Errorf("%w: http sink needs dispatch.url or dispatch.discover", ErrInvalidConfig)
		}
	case SinkMQTT:
		if c.Dispatch.MQTT.Broker == "" && !c.Dispatch.Discover {
			return fmt.Errorf("%w: mqtt sink needs dispatch.mqtt.broker or dispatch.discover", ErrInvalidConfig)
		}
		if c.Dispatch.MQTT.Topic == "" {
			return fmt.Errorf("%w: mqtt sink needs a topic", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown sink %q", ErrInvalidConfig, c.Dispatch.Sink)
	}

	if c.HomeKit.Enabled && !validPin(c.HomeKit.Pin) {
		return fmt.Errorf("%w: homekit.pin must be 8 digits", ErrInvalidConfig)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

func validPin(pin string) bool {
	if len(pin) != 8 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
