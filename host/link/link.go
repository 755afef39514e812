// Package link connects to a dimmer board over a serial port and exposes
// its wire protocol as typed calls.
package link

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"godim/host/serial"
	"godim/protocol"
)

// TelemetryFunc receives each telemetry record as it arrives.
type TelemetryFunc func(protocol.Telemetry)

// Link is a connection to a dimmer board.
type Link struct {
	transport *protocol.HostTransport
	port      serial.Port

	mu          sync.Mutex
	hello       *protocol.Hello
	onTelemetry TelemetryFunc

	helloChan chan protocol.Hello
	pongChan  chan uint32
	traceChan chan protocol.TraceChunk

	pingToken uint32 // atomic

	connected bool
}

// NewLink creates an unconnected link.
func NewLink() *Link {
	return &Link{
		helloChan: make(chan protocol.Hello, 1),
		pongChan:  make(chan uint32, 4),
		traceChan: make(chan protocol.TraceChunk, 4),
	}
}

// OnTelemetry registers a callback for telemetry records. Records arrive
// on the transport's read goroutine, so the callback must not send
// commands back through the link.
func (l *Link) OnTelemetry(fn TelemetryFunc) {
	l.mu.Lock()
	l.onTelemetry = fn
	l.mu.Unlock()
}

// Connect opens the device with default serial settings and performs the
// hello handshake.
func (l *Link) Connect(device string) error {
	return l.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects with a custom serial config.
func (l *Link) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("open serial port: %w", err)
	}

	return l.connectPort(port)
}

// ConnectPort attaches the link to an already open port. Used by tests
// and by callers that manage the device themselves.
func (l *Link) ConnectPort(port serial.Port) error {
	return l.connectPort(port)
}

func (l *Link) connectPort(port serial.Port) error {
	l.port = port
	l.transport = protocol.NewHostTransport(port)
	l.transport.SetResponseHandler(l.handleRecord)
	l.connected = true

	// A board that just enumerated needs a moment before it answers.
	time.Sleep(100 * time.Millisecond)

	if _, err := l.RequestHello(2 * time.Second); err != nil {
		l.Close()
		return fmt.Errorf("hello handshake: %w", err)
	}

	return nil
}

// Hello returns the last hello record, if one has arrived.
func (l *Link) Hello() (protocol.Hello, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hello == nil {
		return protocol.Hello{}, false
	}
	return *l.hello, true
}

// RequestHello asks the board to re-send its hello record and waits for
// it.
func (l *Link) RequestHello(timeout time.Duration) (protocol.Hello, error) {
	if !l.connected {
		return protocol.Hello{}, fmt.Errorf("not connected")
	}

	// Drain a stale boot-time hello so the wait sees the reply.
	select {
	case <-l.helloChan:
	default:
	}

	if err := l.transport.SendCommand(protocol.MsgGetHello, nil); err != nil {
		return protocol.Hello{}, err
	}

	select {
	case h := <-l.helloChan:
		return h, nil
	case <-time.After(timeout):
		return protocol.Hello{}, fmt.Errorf("no hello within %v", timeout)
	}
}

// SetOverride forces the output power, bypassing the board's pot. Takes
// effect at the next zero cross.
func (l *Link) SetOverride(percent uint8) error {
	if !l.connected {
		return fmt.Errorf("not connected")
	}
	if percent > 100 {
		percent = 100
	}
	return l.transport.SendCommand(protocol.MsgSetOverride, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(percent))
	})
}

// ClearOverride returns control to the board's pot.
func (l *Link) ClearOverride() error {
	if !l.connected {
		return fmt.Errorf("not connected")
	}
	return l.transport.SendCommand(protocol.MsgClearOverride, nil)
}

// Ping measures a round trip through the board's main loop.
func (l *Link) Ping(timeout time.Duration) (time.Duration, error) {
	if !l.connected {
		return 0, fmt.Errorf("not connected")
	}

	token := atomic.AddUint32(&l.pingToken, 1)
	start := time.Now()

	err := l.transport.SendCommand(protocol.MsgPing, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, token)
	})
	if err != nil {
		return 0, err
	}

	deadline := time.After(timeout)
	for {
		select {
		case got := <-l.pongChan:
			if got == token {
				return time.Since(start), nil
			}
			// A pong from an earlier timed-out ping; keep waiting.
		case <-deadline:
			return 0, fmt.Errorf("no pong within %v", timeout)
		}
	}
}

// FetchTrace pulls the board's event capture ring. The board snapshots
// the ring when the first chunk is requested and serves that blob until
// a chunk comes back shorter than asked.
func (l *Link) FetchTrace(timeout time.Duration) ([]protocol.TraceEntry, error) {
	if !l.connected {
		return nil, fmt.Errorf("not connected")
	}

	// Drain chunks left over from an abandoned fetch.
drain:
	for {
		select {
		case <-l.traceChan:
		default:
			break drain
		}
	}

	deadline := time.Now().Add(timeout)
	var blob []byte
	offset := uint32(0)

	for {
		err := l.transport.SendCommand(protocol.MsgGetTrace, func(output protocol.OutputBuffer) {
			protocol.EncodeVLQUint(output, offset)
			protocol.EncodeVLQUint(output, protocol.TraceChunkMax)
		})
		if err != nil {
			return nil, err
		}

	recv:
		for {
			remain := time.Until(deadline)
			if remain <= 0 {
				return nil, fmt.Errorf("trace fetch timed out")
			}
			select {
			case chunk := <-l.traceChan:
				if chunk.Offset != offset {
					continue // from an earlier fetch; keep waiting
				}
				blob = append(blob, chunk.Data...)
				if len(chunk.Data) < protocol.TraceChunkMax {
					return protocol.DecodeTraceBlob(blob)
				}
				offset += uint32(len(chunk.Data))
				break recv
			case <-time.After(remain):
				return nil, fmt.Errorf("no trace chunk within %v", timeout)
			}
		}
	}
}

// handleRecord dispatches records on the transport's read goroutine.
func (l *Link) handleRecord(msgID uint16, data *[]byte) error {
	switch msgID {
	case protocol.MsgHello:
		h, err := protocol.DecodeHello(data)
		if err != nil {
			return err
		}
		l.mu.Lock()
		l.hello = &h
		l.mu.Unlock()
		select {
		case l.helloChan <- h:
		default:
		}

	case protocol.MsgTelemetry:
		rec, err := protocol.DecodeTelemetry(data)
		if err != nil {
			return err
		}
		l.mu.Lock()
		fn := l.onTelemetry
		l.mu.Unlock()
		if fn != nil {
			fn(rec)
		}

	case protocol.MsgPong:
		token, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		select {
		case l.pongChan <- token:
		default:
		}

	case protocol.MsgTrace:
		chunk, err := protocol.DecodeTraceChunk(data)
		if err != nil {
			return err
		}
		select {
		case l.traceChan <- chunk:
		default:
		}
	}

	return nil
}

// Close shuts down the transport and the port.
func (l *Link) Close() error {
	l.connected = false
	if l.transport != nil {
		return l.transport.Close()
	}
	return nil
}

// IsConnected reports whether Connect succeeded and Close has not run.
func (l *Link) IsConnected() bool {
	return l.connected
}
