// Package telemetry publishes bridge activity to an MQTT broker. It is a
// one-way feed: attribute observations and bring-up states go out, nothing
// is accepted back. The GATT surface stays the only control path.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"growbridge/internal/bridge"
)

// Config holds MQTT publisher configuration.
type Config struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
}

// Observation is the payload published for one attribute sample.
type Observation struct {
	Attribute  string `json:"attribute"`
	Value      any    `json:"value"`
	Source     string `json:"source"` // "read" or "write"
	ObservedAt string `json:"observed_at"`
}

// Publisher mirrors bridge events onto MQTT topics under a common prefix.
type Publisher struct {
	client pahomqtt.Client
	events *bridge.EventBus
	prefix string
	logger *slog.Logger
	unsub  func()

	mu     sync.Mutex
	latest map[string][]byte // attribute -> last published observation
}

// NewPublisher creates and connects a publisher. The broker sees
// <prefix>/bridge/state flip to offline via the will when the process dies.
func NewPublisher(events *bridge.EventBus, cfg Config, logger *slog.Logger) (*Publisher, error) {
	p := &Publisher{
		events: events,
		prefix: cfg.TopicPrefix,
		logger: logger.With("component", "telemetry"),
		latest: make(map[string][]byte),
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("growbridge").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(cfg.TopicPrefix+"/bridge/state", "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			p.logger.Info("MQTT connected")
			p.publish(p.prefix+"/bridge/state", []byte("online"), true)
			p.republishLatest()
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			p.logger.Warn("MQTT connection lost", "err", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	p.client = client
	return p, nil
}

// Start subscribes to bridge events and begins publishing.
func (p *Publisher) Start() {
	p.unsub = p.events.OnAll(p.handleEvent)
	p.logger.Info("telemetry started", "prefix", p.prefix)
}

// Stop publishes offline state, unsubscribes, and disconnects.
func (p *Publisher) Stop() {
	if p.unsub != nil {
		p.unsub()
	}
	p.publish(p.prefix+"/bridge/state", []byte("offline"), true)
	p.client.Disconnect(1000)
	p.logger.Info("telemetry stopped")
}

func (p *Publisher) handleEvent(event bridge.Event) {
	switch event.Type {
	case bridge.EventAttributeRead, bridge.EventAttributeWrite:
		ev, ok := event.Data.(bridge.AttributeEvent)
		if !ok {
			return
		}
		payload, err := buildObservation(ev, event.Type, time.Now())
		if err != nil {
			p.logger.Error("marshal observation", "attribute", ev.Attribute, "err", err)
			return
		}
		topic := observationTopic(p.prefix, ev.Attribute)
		p.mu.Lock()
		p.latest[ev.Attribute] = payload
		p.mu.Unlock()
		p.publish(topic, payload, true)

	case bridge.EventWriteRejected, bridge.EventBackendError:
		payload, err := json.Marshal(event)
		if err != nil {
			return
		}
		p.publish(p.prefix+"/bridge/events", payload, false)

	case bridge.EventBridgeState:
		data, ok := event.Data.(map[string]string)
		if !ok {
			return
		}
		p.publish(p.prefix+"/bridge/bootstrap", []byte(data["state"]), true)
	}
}

// republishLatest replays the last observation per attribute after a
// reconnect, so subscribers recover without waiting for new activity.
func (p *Publisher) republishLatest() {
	p.mu.Lock()
	snapshot := make(map[string][]byte, len(p.latest))
	for attr, payload := range p.latest {
		snapshot[attr] = payload
	}
	p.mu.Unlock()

	for attr, payload := range snapshot {
		p.publish(observationTopic(p.prefix, attr), payload, true)
	}
}

func (p *Publisher) publish(topic string, payload []byte, retained bool) {
	token := p.client.Publish(topic, 1, retained, payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			p.logger.Warn("MQTT publish timeout", "topic", topic)
		} else if err := token.Error(); err != nil {
			p.logger.Warn("MQTT publish error", "topic", topic, "err", err)
		}
	}()
}

// observationTopic returns the topic an attribute's samples are published on.
func observationTopic(prefix, attribute string) string {
	return prefix + "/" + attribute
}

// buildObservation renders one attribute event as an observation payload.
// The event type doubles as the sample's source marker.
func buildObservation(ev bridge.AttributeEvent, eventType string, now time.Time) ([]byte, error) {
	source := "read"
	if eventType == bridge.EventAttributeWrite {
		source = "write"
	}
	return json.Marshal(Observation{
		Attribute:  ev.Attribute,
		Value:      ev.Value,
		Source:     source,
		ObservedAt: now.UTC().Format(time.RFC3339),
	})
}
