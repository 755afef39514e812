package protocol

import (
	"bytes"
	"sync/atomic"
)

// CommandHandler is called for each decoded command in a received frame.
// The data slice points at the command's arguments and must be advanced
// past them.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the firmware side of the framed protocol: it validates
// incoming frames, dispatches their commands, acknowledges every frame,
// and encodes outgoing records.
type Transport struct {
	synced  uint32 // atomic bool (0 = false, 1 = true)
	nextSeq uint32 // atomic uint8 stored as uint32; 0x10-0x1F

	output        OutputBuffer
	handler       CommandHandler
	resetCallback func() // called when a host restart is detected
	flushCallback func() // called to push an ACK out immediately
}

// NewTransport creates a firmware transport writing frames to output and
// dispatching received commands to handler.
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		synced:  1,
		nextSeq: MessageDest,
		output:  output,
		handler: handler,
	}
}

// Receive processes incoming bytes. Complete valid frames are dispatched
// and acknowledged; malformed data desynchronizes the stream until the
// next sync byte.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()
	used := 0

	for used < len(data) {
		if !t.getSynchronized() {
			off := bytes.IndexByte(data[used:], MessageValueSync)
			if off < 0 {
				used = len(data)
				break
			}
			used += off + 1
			t.setSynchronized(true)
			t.encodeAckNak()
			continue
		}

		rest := data[used:]
		if rest[0] == MessageValueSync {
			used++
			continue
		}
		if len(rest) < MessageLengthMin {
			break
		}

		msgLen := int(rest[MessagePositionLen])
		seq := rest[MessagePositionSeq]
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax ||
			seq&^byte(MessageSeqMask) != MessageDest {
			t.setSynchronized(false)
			continue
		}
		if len(rest) < msgLen {
			break
		}

		body := rest[:msgLen-MessageTrailerSize]
		wire := uint16(rest[msgLen-MessageTrailerCRC])<<8 |
			uint16(rest[msgLen-MessageTrailerCRC+1])
		if rest[msgLen-MessageTrailerSync] != MessageValueSync || wire != CRC16(body) {
			t.setSynchronized(false)
			continue
		}

		used += msgLen
		t.acceptFrame(seq, body[MessageHeaderSize:])
	}

	if used > 0 {
		input.Pop(used)
	}
}

// acceptFrame runs the sequence protocol for one valid frame and
// dispatches its payload when the sequence is the one expected.
func (t *Transport) acceptFrame(seq byte, payload []byte) {
	expected := uint8(atomic.LoadUint32(&t.nextSeq))

	// A sequence back at the base value means the host restarted.
	if seq == MessageDest && expected != MessageDest {
		atomic.StoreUint32(&t.nextSeq, MessageDest)
		expected = MessageDest
		if t.resetCallback != nil {
			t.resetCallback()
		}
	}

	if seq == expected {
		next := (seq+1)&MessageSeqMask | MessageDest
		atomic.StoreUint32(&t.nextSeq, uint32(next))
		t.dispatch(payload)
	}
	// The reply carries the expected sequence either way: an ACK when
	// the frame advanced it, otherwise a NAK the host retransmits after.
	t.encodeAckNak()
}

// dispatch runs the commands packed into one frame's payload. A
// panicking handler desynchronizes the stream instead of taking the
// firmware down; the host recovers by hunting for the next sync.
func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if recover() != nil {
			t.setSynchronized(false)
		}
	}()

	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			t.setSynchronized(false)
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			// A handler error abandons the rest of the frame but keeps
			// sync; the commands before it already ran.
			return
		}
	}
}

// encodeAckNak emits an empty frame carrying the expected sequence. It
// is flushed immediately: the host serializes on these replies.
func (t *Transport) encodeAckNak() {
	var ack [MessageLengthMin]byte
	ack[MessagePositionLen] = MessageLengthMin
	ack[MessagePositionSeq] = uint8(atomic.LoadUint32(&t.nextSeq))

	crc := CRC16(ack[:MessageHeaderSize])
	ack[MessageHeaderSize] = byte(crc >> 8)
	ack[MessageHeaderSize+1] = byte(crc)
	ack[MessageLengthMin-1] = MessageValueSync

	t.output.Output(ack[:])

	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame writes one framed message whose payload is produced by
// frameData. The length byte is backfilled once the payload is known and
// the CRC covers header plus payload.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	start := t.output.CurPosition()

	// Outgoing records reuse the receive sequence; several records may
	// share one value.
	t.output.Output([]byte{0, uint8(atomic.LoadUint32(&t.nextSeq))})

	frameData(t.output)

	n := len(t.output.DataSince(start))
	t.output.Update(start, uint8(n+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(start))
	t.output.Output([]byte{byte(crc >> 8), byte(crc), MessageValueSync})
}

// SendRecord writes one framed record: the message ID followed by the
// arguments args encodes.
func (t *Transport) SendRecord(msgID uint16, args func(output OutputBuffer)) {
	t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(msgID))
		if args != nil {
			args(output)
		}
	})
}

// Reset restores a fresh transport state after a disconnect.
func (t *Transport) Reset() {
	atomic.StoreUint32(&t.synced, 1)
	atomic.StoreUint32(&t.nextSeq, MessageDest)

	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback registers a callback invoked when a host restart is
// detected.
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback registers a callback that pushes pending output to
// the wire immediately, so ACKs are never held back behind records.
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

func (t *Transport) getSynchronized() bool {
	return atomic.LoadUint32(&t.synced) != 0
}

func (t *Transport) setSynchronized(on bool) {
	var v uint32
	if on {
		v = 1
	}
	atomic.StoreUint32(&t.synced, v)
}
