package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/multisensor/multisensor-go/pkg/config"
	"github.com/multisensor/multisensor-go/pkg/discovery"
	"github.com/multisensor/multisensor-go/pkg/dispatch"
	"github.com/multisensor/multisensor-go/pkg/retry"
)

// buildSink creates the configured log sink, browsing mDNS for the
// endpoint when asked to.
func buildSink(ctx context.Context, cfg config.Config, logger *slog.Logger) (dispatch.Sink, error) {
	d := cfg.Dispatch

	switch d.Sink {
	case config.SinkNone:
		return dispatch.NewWriterSink(io.Discard), nil

	case config.SinkWriter:
		return dispatch.NewWriterSink(os.Stdout), nil

	case config.SinkHTTP:
		url := d.URL
		if url == "" {
			ep, err := discoverEndpoint(ctx, cfg, discovery.ProtocolHTTP, logger)
			if err != nil {
				return nil, err
			}
			url = ep.URL()
		}
		logger.Info("logging to http endpoint", "url", url)
		return dispatch.NewHTTPSink(url, nil)

	case config.SinkMQTT:
		mc := dispatch.MQTTConfig{
			Broker:   d.MQTT.Broker,
			Topic:    d.MQTT.Topic,
			ClientID: d.MQTT.ClientID,
		}
		if mc.Broker == "" {
			ep, err := discoverEndpoint(ctx, cfg, discovery.ProtocolMQTT, logger)
			if err != nil {
				return nil, err
			}
			mc.Broker = ep.HostPort()
			mc.Topic = ep.Topic
		}
		logger.Info("logging to mqtt broker", "broker", mc.Broker, "topic", mc.Topic)
		return dispatch.NewMQTTSink(mc)

	default:
		return nil, fmt.Errorf("unknown sink %q", d.Sink)
	}
}

func discoverEndpoint(ctx context.Context, cfg config.Config, protocol string, logger *slog.Logger) (*discovery.Endpoint, error) {
	if !cfg.Dispatch.Discover {
		return nil, fmt.Errorf("%s sink: no endpoint configured and discovery disabled", protocol)
	}
	b := discovery.NewBrowser(discovery.BrowserConfig{
		Timeout: cfg.Dispatch.DiscoverTimeout,
		Logger:  logger.With("component", "discovery"),
	})

	var ep *discovery.Endpoint
	err := retry.Do(ctx, retry.New(retry.Config{}), cfg.Dispatch.DiscoverAttempts, func(ctx context.Context) error {
		found, err := b.Find(ctx, protocol)
		if err != nil {
			logger.Debug("no log endpoint yet", "protocol", protocol, "error", err)
			return err
		}
		ep = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s log endpoint: %w", protocol, err)
	}
	logger.Info("discovered log endpoint", "instance", ep.InstanceName, "addr", ep.HostPort())
	return ep, nil
}
