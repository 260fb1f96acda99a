//go:build !no_mqtt

package main

import (
	"log/slog"

	"growbridge/internal/bridge"
	"growbridge/internal/telemetry"
)

type telemetryStopper struct {
	pub *telemetry.Publisher
}

func (t *telemetryStopper) Stop() {
	if t.pub != nil {
		t.pub.Stop()
	}
}

func initTelemetry(events *bridge.EventBus, cfg *Config, logger *slog.Logger) *telemetryStopper {
	if !cfg.MQTT.Enabled {
		return &telemetryStopper{}
	}
	pub, err := telemetry.NewPublisher(events, telemetry.Config{
		Broker:      cfg.MQTT.Broker,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		TopicPrefix: cfg.MQTT.TopicPrefix,
	}, logger)
	if err != nil {
		logger.Error("telemetry publisher", "err", err)
		return &telemetryStopper{}
	}
	pub.Start()
	return &telemetryStopper{pub: pub}
}
