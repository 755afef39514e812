//go:build linux

package main

import (
	"encoding/json"
	"testing"

	"godim/core"
)

type nopGate struct{}

func (nopGate) Set(bool) {}

type nopTimer struct{}

func (nopTimer) Program(core.Program) {}
func (nopTimer) Stop()                {}

type nopSampler struct{}

func (nopSampler) Start() {}

func newTestController(t *testing.T) *core.Controller {
	t.Helper()
	core.SetGateDriver(nopGate{})
	core.SetTimerDriver(nopTimer{})
	core.SetSamplerDriver(nopSampler{})
	return core.NewController(core.DefaultTiming)
}

func TestApplyOverride(t *testing.T) {
	ctrl := newTestController(t)

	applyOverride(ctrl, "60")
	if !ctrl.OverrideActive() {
		t.Fatal("override not active after a numeric payload")
	}
	if got := ctrl.Percent(); got != 60 {
		t.Errorf("percent = %d, want 60", got)
	}

	applyOverride(ctrl, " 250 ")
	if got := ctrl.Percent(); got != 100 {
		t.Errorf("percent = %d, want clamp to 100", got)
	}

	applyOverride(ctrl, "clear")
	if ctrl.OverrideActive() {
		t.Error("override still active after clear")
	}
}

func TestApplyOverrideIgnoresGarbage(t *testing.T) {
	ctrl := newTestController(t)

	applyOverride(ctrl, "pickles")
	applyOverride(ctrl, "-3")
	if ctrl.OverrideActive() {
		t.Error("garbage payload activated an override")
	}
}

func TestTelemetryPayloadShape(t *testing.T) {
	payload, err := json.Marshal(telemetryPayload{Percent: 48, DelayUS: 4200})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["percent"] != float64(48) {
		t.Errorf("percent = %v, want 48", decoded["percent"])
	}
	if decoded["delay_us"] != float64(4200) {
		t.Errorf("delay_us = %v, want 4200", decoded["delay_us"])
	}
	if _, ok := decoded["override"]; !ok {
		t.Error("payload missing the override flag")
	}
}
