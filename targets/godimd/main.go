//go:build linux

// Command godimd runs the firing engine on a Raspberry Pi class board:
// zero-cross edges from the GPIO character device, gate on a GPIO line,
// setpoint from an ADS1115 pot, telemetry and overrides over MQTT.
//
// Timing is much looser than on a microcontroller. Edge events and timer
// matches travel through the kernel and the scheduler, so firing angles
// jitter by tens of microseconds; fine for heaters and lamps, not for
// anything that needs cycle-exact symmetry.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"godim/core"
)

func main() {
	configPath := flag.String("config", "", "JSON config path (defaults apply when empty)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	flag.Parse()

	config := DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("fatal: read config: %v", err)
		}
		config, err = LoadConfig(data)
		if err != nil {
			log.Fatalf("fatal: parse config: %v", err)
		}
	}
	if *broker != "" {
		config.Broker = *broker
	}

	if err := run(config); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(config *Config) error {
	start := time.Now()
	core.SetClock(func() uint32 {
		return uint32(time.Since(start).Microseconds())
	})

	// The engine expects its handlers serialized. Edges, timer matches
	// and sample deliveries each arrive on their own goroutine here, so
	// one mutex stands in for the single interrupt context of the
	// microcontroller targets. Edges can arrive before the controller
	// exists; the nil checks cover that window.
	var engineMu sync.Mutex
	var ctrl *core.Controller

	timer := newSoftTimer(func() {
		engineMu.Lock()
		defer engineMu.Unlock()
		if ctrl != nil {
			ctrl.OnTimerMatch()
		}
	})

	sampler, err := newSampler(config, func(s core.AnalogSample) {
		engineMu.Lock()
		defer engineMu.Unlock()
		if ctrl != nil {
			ctrl.OnSample(s)
		}
	})
	if err != nil {
		return err
	}
	defer sampler.Close()

	lns, err := openLines(config, func() {
		engineMu.Lock()
		defer engineMu.Unlock()
		if ctrl != nil {
			ctrl.OnZeroCross()
		}
	})
	if err != nil {
		return err
	}
	defer lns.Close()

	core.SetGateDriver(gateLine{line: lns.gate})
	core.SetTimerDriver(timer)
	core.SetSamplerDriver(sampler)

	engineMu.Lock()
	ctrl = core.NewController(config.Timing())
	engineMu.Unlock()

	pub, err := newPublisher(config, ctrl)
	if err != nil {
		return err
	}
	defer pub.Close()

	log.Printf("godimd: chip=%s zc=%d gate=%d mains=%dHz broker=%s",
		config.Chip, config.ZeroCrossPin, config.GatePin, config.MainsHz, config.Broker)

	ticker := time.NewTicker(time.Duration(config.TelemetryMS) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case s := <-sigCh:
			log.Printf("received %v, shutting down", s)
			engineMu.Lock()
			ctrl.Shutdown()
			engineMu.Unlock()
			return nil

		case <-ticker.C:
			if err := pub.PublishTelemetry(ctrl.Snapshot()); err != nil {
				log.Printf("telemetry: %v", err)
			}
		}
	}
}
