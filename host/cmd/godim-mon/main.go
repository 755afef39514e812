// Command godim-mon is an interactive monitor for a dimmer board on a
// serial port: a live telemetry line plus keyboard override control.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"godim/core"
	"godim/host/link"
	"godim/host/serial"
	"godim/protocol"
)

var (
	device = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud   = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
)

// Pseudo key codes for escape sequences, above any real byte the reader
// forwards.
const (
	keyUp   = 0x80
	keyDown = 0x81
)

func main() {
	flag.Parse()

	fmt.Printf("godim-mon: connecting to %s...\n", *device)

	lnk := link.NewLink()

	var latest atomic.Value
	lnk.OnTelemetry(func(rec protocol.Telemetry) {
		latest.Store(rec)
	})

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	if err := lnk.ConnectWithConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer lnk.Close()

	hello, _ := lnk.Hello()
	fmt.Printf("connected: firmware %s, half period %dus, detector delay %dus, gate pulse %dus\n",
		hello.Version, hello.HalfPeriodUS, hello.DetectorDelayUS, hello.GatePulseUS)
	fmt.Println("keys: up/down or +/- adjust override, c clear, p ping, t trace, q quit")

	if err := monitor(lnk, &latest); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// monitor runs the raw-mode key loop against a live status line.
func monitor(lnk *link.Link, latest *atomic.Value) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	keys := make(chan byte, 8)
	go readKeys(keys)

	redraw := time.NewTicker(200 * time.Millisecond)
	defer redraw.Stop()

	override := -1 // no local override yet

	for {
		select {
		case k, ok := <-keys:
			if !ok {
				fmt.Print("\r\n")
				return nil
			}
			switch k {
			case 'q', 3: // ctrl-C in raw mode
				fmt.Print("\r\n")
				return nil

			case keyUp, '+', '=':
				override = stepOverride(override, +5, latest)
				if err := lnk.SetOverride(uint8(override)); err != nil {
					return err
				}

			case keyDown, '-':
				override = stepOverride(override, -5, latest)
				if err := lnk.SetOverride(uint8(override)); err != nil {
					return err
				}

			case 'c':
				override = -1
				if err := lnk.ClearOverride(); err != nil {
					return err
				}

			case 'p':
				if rtt, err := lnk.Ping(time.Second); err != nil {
					printLine("ping failed: " + err.Error())
				} else {
					printLine(fmt.Sprintf("ping: %v", rtt))
				}

			case 't':
				printTrace(lnk)
			}

		case <-redraw.C:
			drawStatus(latest)
		}
	}
}

// readKeys forwards stdin bytes, folding arrow escape sequences into
// pseudo codes.
func readKeys(out chan<- byte) {
	defer close(out)
	buf := make([]byte, 1)

	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return
		}
		b := buf[0]
		if b != 0x1B {
			out <- b
			continue
		}

		// Arrow keys arrive as ESC [ A..D.
		seq := make([]byte, 2)
		if _, err := io.ReadFull(os.Stdin, seq); err != nil {
			return
		}
		if seq[0] != '[' {
			continue
		}
		switch seq[1] {
		case 'A':
			out <- keyUp
		case 'B':
			out <- keyDown
		}
	}
}

// stepOverride moves the local override target, seeding it from the last
// telemetry so the first keypress nudges the running setpoint.
func stepOverride(override, delta int, latest *atomic.Value) int {
	if override < 0 {
		override = 0
		if rec, ok := latest.Load().(protocol.Telemetry); ok {
			override = int(rec.Percent)
		}
	}

	override += delta
	if override < 0 {
		override = 0
	}
	if override > 100 {
		override = 100
	}
	return override
}

// drawStatus repaints the single status line.
func drawStatus(latest *atomic.Value) {
	rec, ok := latest.Load().(protocol.Telemetry)
	if !ok {
		fmt.Print("\r\x1b[2Kwaiting for telemetry...")
		return
	}

	src := "pot"
	if rec.Override {
		src = "host"
	}
	uptime := (time.Duration(rec.UptimeUS) * time.Microsecond).Round(time.Second)

	fmt.Printf("\r\x1b[2K%3d%% (%-4s)  delay %5dus  prog %3d/%-3d  zc %d  fires %d  adc %d  up %s",
		rec.Percent, src, rec.DelayUS, rec.Prescaler, rec.Count,
		rec.ZeroCrossings, rec.Matches, rec.Conversions, uptime)
}

// printTrace dumps the board's capture ring, one event per line with the
// delta to the previous event.
func printTrace(lnk *link.Link) {
	entries, err := lnk.FetchTrace(2 * time.Second)
	if err != nil {
		printLine("trace fetch failed: " + err.Error())
		return
	}
	if len(entries) == 0 {
		printLine("trace ring is empty")
		return
	}

	printLine(fmt.Sprintf("trace: %d events", len(entries)))
	prev := entries[0].Clock
	for _, e := range entries {
		printLine(fmt.Sprintf("  %-10s t=%-10d +%-6d v=%d",
			core.TraceKindName(e.Kind), e.Clock, e.Clock-prev, e.Value))
		prev = e.Clock
	}
}

// printLine writes a full line above the status line in raw mode.
func printLine(s string) {
	fmt.Print("\r\x1b[2K" + s + "\r\n")
}
