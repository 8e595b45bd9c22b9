package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"
)

const (
	mqttBufSize     = 512
	mqttConnectPoll = 50 * time.Millisecond
)

// MQTT sink errors.
var (
	ErrMQTTConnect = errors.New("mqtt connect timeout")
	ErrNoBroker    = errors.New("mqtt broker address required")
	ErrNoTopic     = errors.New("mqtt topic required")
)

// MQTTConfig configures an MQTTSink.
type MQTTConfig struct {
	// Broker is the broker address as host:port.
	Broker string

	// Topic is the topic each command is published to.
	Topic string

	// ClientID identifies the session to the broker.
	ClientID string

	// Dial opens the broker connection (default: net.Dialer.DialContext).
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// MQTTSink publishes each command as a QoS 0 message. A session is opened
// per command, matching the one-shot nature of the log requests.
type MQTTSink struct {
	cfg    MQTTConfig
	topic  []byte
	flags  mqtt.PacketFlags
	mu     sync.Mutex
	buf    [mqttBufSize]byte
	packet atomic.Uint32
}

// NewMQTTSink validates cfg and creates the sink.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	if cfg.Broker == "" {
		return nil, ErrNoBroker
	}
	if cfg.Topic == "" {
		return nil, ErrNoTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "multisensor"
	}
	if cfg.Dial == nil {
		var d net.Dialer
		cfg.Dial = d.DialContext
	}
	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return nil, err
	}
	return &MQTTSink{cfg: cfg, topic: []byte(cfg.Topic), flags: flags}, nil
}

// Name returns "mqtt".
func (s *MQTTSink) Name() string { return "mqtt" }

// Send connects, publishes command and disconnects.
func (s *MQTTSink) Send(ctx context.Context, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.cfg.Dial(ctx, "tcp", s.cfg.Broker)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.cfg.Broker, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: s.buf[:]},
		OnPub: func(mqtt.Header, mqtt.VariablesPublish, io.Reader) error {
			return nil
		},
	})

	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(s.cfg.ClientID))
	if err := client.StartConnect(conn, &varconn); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	for !client.IsConnected() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrMQTTConnect, err)
		}
		if err := client.HandleNext(); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
		if !client.IsConnected() {
			time.Sleep(mqttConnectPoll)
		}
	}
	defer client.Disconnect(errors.New("publish complete"))

	pubVar := mqtt.VariablesPublish{
		TopicName:        s.topic,
		PacketIdentifier: s.nextPacketID(),
	}
	if err := client.PublishPayload(s.flags, pubVar, []byte(command)); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

// nextPacketID returns a nonzero identifier, skipping 0 on wraparound.
func (s *MQTTSink) nextPacketID() uint16 {
	for {
		if id := uint16(s.packet.Add(1)); id != 0 {
			return id
		}
	}
}
