//go:build linux

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"godim/core"
)

// publisher mirrors controller state to an MQTT broker and accepts
// override commands back on <prefix>/override.
type publisher struct {
	client paho.Client
	prefix string
}

// telemetryPayload is the JSON shape published on <prefix>/telemetry.
type telemetryPayload struct {
	Timestamp     string `json:"timestamp"`
	Percent       uint8  `json:"percent"`
	Sample        uint16 `json:"sample"`
	DelayUS       uint32 `json:"delay_us"`
	Prescaler     uint16 `json:"prescaler"`
	Count         uint8  `json:"count"`
	ZeroCrossings uint32 `json:"zero_crossings"`
	Matches       uint32 `json:"matches"`
	Conversions   uint32 `json:"conversions"`
	Override      bool   `json:"override"`
}

// newPublisher connects to the broker and subscribes the override topic.
func newPublisher(config *Config, ctrl *core.Controller) (*publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to %s: timeout", config.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", config.Broker, err)
	}

	p := &publisher{client: client, prefix: config.TopicPrefix}

	// QoS 1: a lost override command should not stay lost.
	topic := p.prefix + "/override"
	token = client.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		applyOverride(ctrl, string(msg.Payload()))
	})
	if !token.WaitTimeout(10 * time.Second) {
		client.Disconnect(1000)
		return nil, fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(1000)
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	return p, nil
}

// applyOverride interprets an override payload. A bare number forces that
// percent; "clear" or an empty message hands control back to the pot.
func applyOverride(ctrl *core.Controller, payload string) {
	payload = strings.TrimSpace(payload)
	if payload == "" || strings.EqualFold(payload, "clear") {
		ctrl.ClearOverride()
		log.Printf("override cleared")
		return
	}

	v, err := strconv.ParseUint(payload, 10, 32)
	if err != nil {
		log.Printf("ignoring override payload %q: %v", payload, err)
		return
	}
	if v > 100 {
		v = 100
	}
	ctrl.SetOverride(core.PowerPercent(v))
	log.Printf("override set to %d%%", v)
}

// PublishTelemetry sends one snapshot. QoS 0; the next tick replaces it.
func (p *publisher) PublishTelemetry(snap core.Snapshot) error {
	payload, err := json.Marshal(telemetryPayload{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Percent:       uint8(snap.Percent),
		Sample:        uint16(snap.Sample),
		DelayUS:       snap.DelayUS,
		Prescaler:     snap.Prescaler,
		Count:         snap.Count,
		ZeroCrossings: snap.ZeroCrossings,
		Matches:       snap.Matches,
		Conversions:   snap.Conversions,
		Override:      snap.Override,
	})
	if err != nil {
		return fmt.Errorf("format telemetry: %w", err)
	}

	token := p.client.Publish(p.prefix+"/telemetry", 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish telemetry: timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish telemetry: %w", err)
	}
	return nil
}

// Close disconnects from the broker, allowing a second for in-flight
// messages to drain.
func (p *publisher) Close() {
	p.client.Disconnect(1000)
}
