//go:build no_mqtt

package main

import (
	"log/slog"

	"growbridge/internal/bridge"
)

type telemetryStopper struct{}

func (t *telemetryStopper) Stop() {}

func initTelemetry(_ *bridge.EventBus, _ *Config, _ *slog.Logger) *telemetryStopper {
	return &telemetryStopper{}
}
