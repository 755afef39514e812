//go:build linux

package main

import (
	"encoding/json"

	"godim/core"
)

// Config is the daemon configuration. Zero values take defaults so a
// partial file works.
type Config struct {
	Chip         string `json:"chip"`           // GPIO character device
	ZeroCrossPin int    `json:"zero_cross_pin"` // line offsets on Chip
	GatePin      int    `json:"gate_pin"`

	I2CBus     string `json:"i2c_bus"`
	ADCAddress uint16 `json:"adc_address"`

	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	TopicPrefix string `json:"topic_prefix"`

	MainsHz     int `json:"mains_hz"`
	TelemetryMS int `json:"telemetry_ms"`
}

// LoadConfig parses a JSON configuration and fills defaults.
func LoadConfig(jsonData []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(jsonData, &config); err != nil {
		return nil, err
	}
	applyDefaults(&config)
	return &config, nil
}

// DefaultConfig returns the configuration for the reference Pi wiring.
func DefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func applyDefaults(config *Config) {
	if config.Chip == "" {
		config.Chip = "gpiochip0"
	}
	if config.ZeroCrossPin == 0 {
		config.ZeroCrossPin = 17
	}
	if config.GatePin == 0 {
		config.GatePin = 27
	}
	if config.I2CBus == "" {
		config.I2CBus = "1"
	}
	if config.ADCAddress == 0 {
		config.ADCAddress = 0x48
	}
	if config.Broker == "" {
		config.Broker = "tcp://127.0.0.1:1883"
	}
	if config.ClientID == "" {
		config.ClientID = "godim"
	}
	if config.TopicPrefix == "" {
		config.TopicPrefix = "godim"
	}
	if config.MainsHz == 0 {
		config.MainsHz = 50
	}
	if config.TelemetryMS == 0 {
		config.TelemetryMS = 1000
	}
}

// Timing returns the firing profile for the configured mains frequency.
func (c *Config) Timing() core.Timing {
	if c.MainsHz == 60 {
		return core.Timing60Hz
	}
	return core.DefaultTiming
}
