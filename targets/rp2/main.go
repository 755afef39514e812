//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"
	"time"

	"godim/core"
	"godim/protocol"
)

// Pin assignment for the reference board.
const (
	pinZeroCross = machine.GPIO2  // detector output, one rising edge per half-cycle
	pinGate      = machine.GPIO15 // optotriac LED
	pinSetpoint  = machine.ADC0   // potentiometer wiper on GP26
)

const (
	telemetryIntervalUS = 100000 // 10 Hz
	displayIntervalUS   = 200000 // 5 Hz
)

var (
	ctrl *core.Controller

	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	messagesReceived uint32
	messagesSent     uint32
	msgErrors        uint32

	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

var errUnknownCommand = errors.New("unknown command")

func main() {
	// Clear any watchdog state left over from a previous reset.
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	initClock()

	core.SetGateDriver(initGate(pinGate))
	core.SetTimerDriver(initAlarm())
	core.SetSamplerDriver(initSampler())

	ctrl = core.NewController(core.DefaultTiming)

	// Edges start arriving as soon as this returns, so everything the
	// handlers touch is in place first.
	initZeroCross(pinZeroCross)
	initDisplay()

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()

	transport = protocol.NewTransport(outputBuffer, handleCommand)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
		ctrl.ClearOverride()
	})
	// ACKs go out before any queued records; the host serializes on them.
	transport.SetFlushCallback(writeUSB)

	sendHello()

	go usbReaderLoop()

	var lastTelemetry, lastDisplay uint32
	for {
		// A panic in frame handling must not take the firing engine
		// down with it.
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgErrors++
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			if inputBuffer.Available() > 0 {
				data := inputBuffer.Data()
				originalLen := len(data)
				inputBuf := protocol.NewSliceInputBuffer(data)

				transport.Receive(inputBuf)
				messagesReceived++

				consumed := originalLen - inputBuf.Available()
				if consumed > 0 {
					inputBuffer.Pop(consumed)
				}
			}

			now := core.Now()
			if now-lastTelemetry >= telemetryIntervalUS {
				lastTelemetry = now
				sendTelemetry()
			}
			if now-lastDisplay >= displayIntervalUS {
				lastDisplay = now
				updateDisplay(ctrl.Snapshot())
			}

			if len(outputBuffer.Result()) > 0 {
				writeUSB()
				messagesSent++
			}
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

// usbReaderLoop feeds the input FIFO from USB, byte at a time.
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgErrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			b, err := USBRead()
			if err != nil {
				msgErrors++
				time.Sleep(time.Millisecond)
				continue
			}

			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
			}

			if inputBuffer.Write([]byte{b}) == 0 {
				// FIFO full; drop and let the host retransmit
				msgErrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// handleCommand dispatches one decoded command from a verified frame.
func handleCommand(cmdID uint16, data *[]byte) error {
	switch cmdID {
	case protocol.MsgSetOverride:
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		if v > 100 {
			v = 100
		}
		ctrl.SetOverride(core.PowerPercent(v))

	case protocol.MsgClearOverride:
		ctrl.ClearOverride()

	case protocol.MsgPing:
		token, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		transport.SendRecord(protocol.MsgPong, func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, token)
		})

	case protocol.MsgGetHello:
		sendHello()

	case protocol.MsgGetTrace:
		offset, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		count, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		sendTraceChunk(offset, count)

	default:
		return errUnknownCommand
	}
	return nil
}

// traceBlob is the dump being served. A request at offset zero snapshots
// the ring, so one dump stays consistent across chunk requests.
var traceBlob []byte

func sendTraceChunk(offset, count uint32) {
	if offset == 0 {
		events := core.TraceEvents()
		entries := make([]protocol.TraceEntry, len(events))
		for i, e := range events {
			entries[i] = protocol.TraceEntry{Kind: e.Kind, Clock: e.Clock, Value: e.Value}
		}
		blob, err := protocol.EncodeTraceBlob(entries)
		if err != nil {
			msgErrors++
			blob = nil
		}
		traceBlob = blob
	}

	if count > protocol.TraceChunkMax {
		count = protocol.TraceChunkMax
	}
	blobLen := uint32(len(traceBlob))
	start := offset
	if start > blobLen {
		start = blobLen
	}
	end := start + count
	if end > blobLen {
		end = blobLen
	}

	// The offset echoes the request even past the end; a short chunk
	// tells the host the blob is done.
	transport.SendRecord(protocol.MsgTrace, func(output protocol.OutputBuffer) {
		protocol.EncodeTraceChunk(output, protocol.TraceChunk{
			Offset: offset,
			Data:   traceBlob[start:end],
		})
	})
}

func sendHello() {
	t := ctrl.Timing()
	transport.SendRecord(protocol.MsgHello, func(output protocol.OutputBuffer) {
		protocol.EncodeHello(output, protocol.Hello{
			Version:         protocol.Version,
			HalfPeriodUS:    t.HalfPeriodUS,
			DetectorDelayUS: t.DetectorDelayUS,
			GatePulseUS:     t.GatePulseUS,
		})
	})
}

func sendTelemetry() {
	snap := ctrl.Snapshot()
	transport.SendRecord(protocol.MsgTelemetry, func(output protocol.OutputBuffer) {
		protocol.EncodeTelemetry(output, protocol.Telemetry{
			UptimeUS:      core.Now(),
			ZeroCrossings: snap.ZeroCrossings,
			Matches:       snap.Matches,
			Conversions:   snap.Conversions,
			Sample:        uint16(snap.Sample),
			Percent:       uint8(snap.Percent),
			DelayUS:       snap.DelayUS,
			Prescaler:     snap.Prescaler,
			Count:         snap.Count,
			State:         uint8(snap.State),
			Override:      snap.Override,
		})
	})
}

// writeUSB pushes the output buffer to the wire, handling partial writes.
// Repeated failures mean the host is gone; stale data is dropped so a
// reconnect starts clean.
func writeUSB() {
	result := outputBuffer.Result()
	if len(result) == 0 {
		return
	}

	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}

	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
