package link

import (
	"io"
	"sync"
	"testing"
	"time"

	"godim/protocol"
)

// loopPort is an in-memory serial port whose far end is a real firmware
// transport. Host writes run the firmware receive path synchronously and
// whatever the firmware emits becomes readable, so the whole frame and
// ACK machinery is exercised end to end.
type loopPort struct {
	mu     sync.Mutex
	fw     *protocol.Transport
	fwIn   *protocol.FifoBuffer
	fwOut  *protocol.ScratchOutput
	rx     []byte
	closed bool

	overrides []uint32
	clears    int

	traceEntries []protocol.TraceEntry
	traceBlob    []byte
}

func newLoopPort() *loopPort {
	p := &loopPort{
		fwIn:  protocol.NewFifoBuffer(512),
		fwOut: protocol.NewScratchOutput(),
	}
	p.fw = protocol.NewTransport(p.fwOut, p.handle)
	return p
}

func (p *loopPort) handle(cmdID uint16, data *[]byte) error {
	switch cmdID {
	case protocol.MsgSetOverride:
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		p.overrides = append(p.overrides, v)

	case protocol.MsgClearOverride:
		p.clears++

	case protocol.MsgPing:
		token, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		p.fw.SendRecord(protocol.MsgPong, func(out protocol.OutputBuffer) {
			protocol.EncodeVLQUint(out, token)
		})

	case protocol.MsgGetHello:
		p.fw.SendRecord(protocol.MsgHello, func(out protocol.OutputBuffer) {
			protocol.EncodeHello(out, protocol.Hello{
				Version:         "fw-test",
				HalfPeriodUS:    10000,
				DetectorDelayUS: 1000,
				GatePulseUS:     250,
			})
		})

	case protocol.MsgGetTrace:
		offset, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		count, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		if offset == 0 {
			blob, err := protocol.EncodeTraceBlob(p.traceEntries)
			if err != nil {
				return err
			}
			p.traceBlob = blob
		}
		if count > protocol.TraceChunkMax {
			count = protocol.TraceChunkMax
		}
		start := offset
		if start > uint32(len(p.traceBlob)) {
			start = uint32(len(p.traceBlob))
		}
		end := start + count
		if end > uint32(len(p.traceBlob)) {
			end = uint32(len(p.traceBlob))
		}
		p.fw.SendRecord(protocol.MsgTrace, func(out protocol.OutputBuffer) {
			protocol.EncodeTraceChunk(out, protocol.TraceChunk{
				Offset: offset,
				Data:   p.traceBlob[start:end],
			})
		})
	}
	return nil
}

func (p *loopPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}

	p.fwIn.Write(b)
	p.fw.Receive(p.fwIn)

	p.rx = append(p.rx, p.fwOut.Result()...)
	p.fwOut.Reset()

	return len(b), nil
}

func (p *loopPort) Read(b []byte) (int, error) {
	deadline := time.Now().Add(50 * time.Millisecond)
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return 0, io.EOF
		}
		if len(p.rx) > 0 {
			n := copy(b, p.rx)
			p.rx = p.rx[n:]
			p.mu.Unlock()
			return n, nil
		}
		p.mu.Unlock()

		if time.Now().After(deadline) {
			return 0, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func (p *loopPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *loopPort) Flush() error { return nil }

// sendTelemetry pushes an unsolicited record, the way the firmware's
// periodic reporter does.
func (p *loopPort) sendTelemetry(rec protocol.Telemetry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fw.SendRecord(protocol.MsgTelemetry, func(out protocol.OutputBuffer) {
		protocol.EncodeTelemetry(out, rec)
	})
	p.rx = append(p.rx, p.fwOut.Result()...)
	p.fwOut.Reset()
}

func (p *loopPort) snapshotCommands() ([]uint32, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint32(nil), p.overrides...), p.clears
}

func newTestLink(t *testing.T) (*Link, *loopPort) {
	t.Helper()
	port := newLoopPort()
	lnk := NewLink()
	if err := lnk.ConnectPort(port); err != nil {
		t.Fatalf("ConnectPort: %v", err)
	}
	t.Cleanup(func() { lnk.Close() })
	return lnk, port
}

func TestConnectHandshake(t *testing.T) {
	lnk, _ := newTestLink(t)

	h, ok := lnk.Hello()
	if !ok {
		t.Fatal("no hello after connect")
	}
	if h.Version != "fw-test" {
		t.Errorf("version = %q, want fw-test", h.Version)
	}
	if h.HalfPeriodUS != 10000 || h.DetectorDelayUS != 1000 || h.GatePulseUS != 250 {
		t.Errorf("timing = %d/%d/%d, want 10000/1000/250",
			h.HalfPeriodUS, h.DetectorDelayUS, h.GatePulseUS)
	}
}

func TestOverrideCommands(t *testing.T) {
	lnk, port := newTestLink(t)

	if err := lnk.SetOverride(60); err != nil {
		t.Fatalf("SetOverride(60): %v", err)
	}
	if err := lnk.SetOverride(130); err != nil {
		t.Fatalf("SetOverride(130): %v", err)
	}
	if err := lnk.ClearOverride(); err != nil {
		t.Fatalf("ClearOverride: %v", err)
	}

	overrides, clears := port.snapshotCommands()
	if len(overrides) != 2 || overrides[0] != 60 || overrides[1] != 100 {
		t.Errorf("overrides = %v, want [60 100]", overrides)
	}
	if clears != 1 {
		t.Errorf("clears = %d, want 1", clears)
	}
}

func TestPing(t *testing.T) {
	lnk, _ := newTestLink(t)

	rtt, err := lnk.Ping(time.Second)
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if rtt <= 0 || rtt > time.Second {
		t.Errorf("rtt = %v, out of range", rtt)
	}
}

func TestFetchTrace(t *testing.T) {
	port := newLoopPort()

	// Wide clocks push the blob past two chunk widths, so assembly and
	// the short-chunk terminator both get exercised.
	want := make([]protocol.TraceEntry, 16)
	for i := range want {
		want[i] = protocol.TraceEntry{
			Kind:  uint8(i%5 + 1),
			Clock: 1000000 + uint32(i)*10000,
			Value: uint32(i * 37),
		}
	}
	port.traceEntries = want

	lnk := NewLink()
	if err := lnk.ConnectPort(port); err != nil {
		t.Fatalf("ConnectPort: %v", err)
	}
	defer lnk.Close()

	got, err := lnk.FetchTrace(2 * time.Second)
	if err != nil {
		t.Fatalf("FetchTrace: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("fetched %d entries, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFetchTraceEmptyRing(t *testing.T) {
	lnk, _ := newTestLink(t)

	got, err := lnk.FetchTrace(2 * time.Second)
	if err != nil {
		t.Fatalf("FetchTrace: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("fetched %d entries from an empty ring", len(got))
	}
}

func TestTelemetryCallback(t *testing.T) {
	port := newLoopPort()
	lnk := NewLink()

	got := make(chan protocol.Telemetry, 1)
	lnk.OnTelemetry(func(rec protocol.Telemetry) {
		select {
		case got <- rec:
		default:
		}
	})

	if err := lnk.ConnectPort(port); err != nil {
		t.Fatalf("ConnectPort: %v", err)
	}
	defer lnk.Close()

	port.sendTelemetry(protocol.Telemetry{Percent: 48, DelayUS: 4200, Override: true})

	select {
	case rec := <-got:
		if rec.Percent != 48 || rec.DelayUS != 4200 || !rec.Override {
			t.Errorf("record = %+v, want percent 48, delay 4200, override set", rec)
		}
	case <-time.After(time.Second):
		t.Fatal("telemetry record never arrived")
	}
}
