package protocol

import "testing"

// buildFrame assembles one valid frame around the given payload.
func buildFrame(seq uint8, payload []byte) []byte {
	msgLen := MessageHeaderSize + len(payload) + MessageTrailerSize
	frame := make([]byte, 0, msgLen)
	frame = append(frame, uint8(msgLen), seq)
	frame = append(frame, payload...)
	crc := CRC16(frame)
	frame = append(frame, uint8(crc>>8), uint8(crc&0xFF), MessageValueSync)
	return frame
}

func commandPayload(cmdID uint16, args ...uint32) []byte {
	out := NewScratchOutput()
	EncodeVLQUint(out, uint32(cmdID))
	for _, a := range args {
		EncodeVLQUint(out, a)
	}
	return out.Result()
}

func TestTransportDispatchesCommand(t *testing.T) {
	var gotCmd uint16
	var gotArg uint32

	output := NewScratchOutput()
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		gotCmd = cmdID
		v, err := DecodeVLQUint(data)
		if err != nil {
			return err
		}
		gotArg = v
		return nil
	})

	frame := buildFrame(MessageDest, commandPayload(MsgSetOverride, 60))
	tr.Receive(NewSliceInputBuffer(frame))

	if gotCmd != MsgSetOverride {
		t.Errorf("dispatched command = 0x%02x, want 0x%02x", gotCmd, MsgSetOverride)
	}
	if gotArg != 60 {
		t.Errorf("dispatched argument = %d, want 60", gotArg)
	}

	// The ACK carries the next expected sequence
	ack := output.Result()
	if len(ack) != MessageLengthMin {
		t.Fatalf("ACK length = %d, want %d", len(ack), MessageLengthMin)
	}
	if ack[MessagePositionSeq] != MessageDest+1 {
		t.Errorf("ACK sequence = 0x%02x, want 0x%02x", ack[MessagePositionSeq], MessageDest+1)
	}
	if ack[len(ack)-1] != MessageValueSync {
		t.Errorf("ACK not sync terminated: % x", ack)
	}
}

func TestTransportRepeatedSequenceNotReprocessed(t *testing.T) {
	calls := 0
	output := NewScratchOutput()
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		calls++
		*data = (*data)[:0]
		return nil
	})

	tr.Receive(NewSliceInputBuffer(buildFrame(MessageDest, commandPayload(MsgClearOverride))))
	second := buildFrame(MessageDest+1, commandPayload(MsgClearOverride))
	tr.Receive(NewSliceInputBuffer(second))
	// Same sequence again: a retransmit must be ACKed but not dispatched
	tr.Receive(NewSliceInputBuffer(second))

	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestTransportHostRestartDetected(t *testing.T) {
	resets := 0
	output := NewScratchOutput()
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		*data = (*data)[:0]
		return nil
	})
	tr.SetResetCallback(func() { resets++ })

	tr.Receive(NewSliceInputBuffer(buildFrame(MessageDest, commandPayload(MsgPing, 1))))
	tr.Receive(NewSliceInputBuffer(buildFrame(MessageDest+1, commandPayload(MsgPing, 2))))
	// Sequence falls back to the base value: the host restarted
	tr.Receive(NewSliceInputBuffer(buildFrame(MessageDest, commandPayload(MsgPing, 3))))

	if resets != 1 {
		t.Errorf("reset callbacks = %d, want 1", resets)
	}
}

func TestTransportResyncAfterGarbage(t *testing.T) {
	calls := 0
	output := NewScratchOutput()
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		calls++
		*data = (*data)[:0]
		return nil
	})

	input := []byte{0x01, 0x02, 0x03} // Nonsense length byte desyncs
	input = append(input, MessageValueSync)
	input = append(input, buildFrame(MessageDest, commandPayload(MsgPing, 7))...)
	tr.Receive(NewSliceInputBuffer(input))

	if calls != 1 {
		t.Errorf("handler calls = %d, want 1 after resync", calls)
	}
}

func TestTransportRejectsBadCRC(t *testing.T) {
	calls := 0
	output := NewScratchOutput()
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		calls++
		return nil
	})

	frame := buildFrame(MessageDest, commandPayload(MsgSetOverride, 10))
	frame[len(frame)-2] ^= 0xFF // Corrupt the CRC low byte
	tr.Receive(NewSliceInputBuffer(frame))

	if calls != 0 {
		t.Errorf("handler calls = %d, want 0 for a corrupt frame", calls)
	}
}

func TestEncodeFrameRoundTrip(t *testing.T) {
	rec := Telemetry{
		UptimeUS:      123456,
		ZeroCrossings: 4200,
		Matches:       8399,
		Conversions:   4200,
		Sample:        600,
		Percent:       48,
		DelayUS:       4200,
		Prescaler:     256,
		Count:         78,
		State:         1,
		Override:      false,
	}

	output := NewScratchOutput()
	tr := NewTransport(output, nil)
	tr.SendRecord(MsgTelemetry, func(o OutputBuffer) {
		EncodeTelemetry(o, rec)
	})

	frame := output.Result()
	msgLen := int(frame[MessagePositionLen])
	if msgLen != len(frame) {
		t.Fatalf("frame length byte = %d, frame is %d bytes", msgLen, len(frame))
	}
	if frame[len(frame)-1] != MessageValueSync {
		t.Fatalf("frame not sync terminated")
	}
	wantCRC := CRC16(frame[:msgLen-MessageTrailerSize])
	gotCRC := uint16(frame[msgLen-MessageTrailerCRC])<<8 | uint16(frame[msgLen-MessageTrailerCRC+1])
	if gotCRC != wantCRC {
		t.Fatalf("frame CRC = 0x%04x, want 0x%04x", gotCRC, wantCRC)
	}

	payload := frame[MessageHeaderSize : msgLen-MessageTrailerSize]
	msgID, err := DecodeVLQUint(&payload)
	if err != nil {
		t.Fatalf("decode message ID: %v", err)
	}
	if msgID != MsgTelemetry {
		t.Fatalf("message ID = 0x%02x, want 0x%02x", msgID, MsgTelemetry)
	}
	decoded, err := DecodeTelemetry(&payload)
	if err != nil {
		t.Fatalf("decode telemetry: %v", err)
	}
	if decoded != rec {
		t.Errorf("decoded = %+v, want %+v", decoded, rec)
	}
	if len(payload) != 0 {
		t.Errorf("%d payload bytes left over", len(payload))
	}
}

func TestHelloRoundTrip(t *testing.T) {
	h := Hello{
		Version:         Version,
		HalfPeriodUS:    10000,
		DetectorDelayUS: 1000,
		GatePulseUS:     250,
	}

	output := NewScratchOutput()
	EncodeHello(output, h)

	data := output.Result()
	decoded, err := DecodeHello(&data)
	if err != nil {
		t.Fatalf("decode hello: %v", err)
	}
	if decoded != h {
		t.Errorf("decoded = %+v, want %+v", decoded, h)
	}
}

func TestDecodeTelemetryShortBuffer(t *testing.T) {
	data := []byte{0x01, 0x02} // Two fields, then nothing
	if _, err := DecodeTelemetry(&data); err != ErrBufferTooSmall {
		t.Errorf("err = %v, want ErrBufferTooSmall", err)
	}
}
