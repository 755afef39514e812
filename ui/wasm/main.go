//go:build js && wasm

// WebSerial bridge for the dimmer protocol. Compiled to wasm, it gives a
// browser page the frame codec: building command frames, decoding frames,
// and unpacking hello, telemetry and trace payloads. The page owns the
// WebSerial port and the sequence counter; this side is stateless.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o godim.wasm ./ui/wasm
package main

import (
	"encoding/hex"
	"syscall/js"

	"godim/core"
	"godim/protocol"
)

func main() {
	js.Global().Set("godimWasm", js.ValueOf(map[string]interface{}{
		"version":  protocol.Version,
		"messages": messageTable(),

		"crc16":     js.FuncOf(crc16Fn),
		"encodeVLQ": js.FuncOf(encodeVLQFn),
		"decodeVLQ": js.FuncOf(decodeVLQFn),

		"encodeCommand":   js.FuncOf(encodeCommandFn),
		"decodeFrame":     js.FuncOf(decodeFrameFn),
		"decodeHello":     js.FuncOf(decodeHelloFn),
		"decodeTelemetry": js.FuncOf(decodeTelemetryFn),
		"decodeTraceBlob": js.FuncOf(decodeTraceBlobFn),
	}))

	// Keep the module alive for the page.
	select {}
}

// messageTable hands the page the message IDs so nothing is hardcoded
// on the JS side.
func messageTable() map[string]interface{} {
	return map[string]interface{}{
		"hello":         protocol.MsgHello,
		"telemetry":     protocol.MsgTelemetry,
		"pong":          protocol.MsgPong,
		"trace":         protocol.MsgTrace,
		"setOverride":   protocol.MsgSetOverride,
		"clearOverride": protocol.MsgClearOverride,
		"ping":          protocol.MsgPing,
		"getHello":      protocol.MsgGetHello,
		"getTrace":      protocol.MsgGetTrace,
	}
}

// crc16Fn computes the frame checksum.
// Args: hex string. Returns: number.
func crc16Fn(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf(0)
	}
	return js.ValueOf(int(protocol.CRC16(data)))
}

// encodeVLQFn encodes one integer.
// Args: value. Returns: hex string.
func encodeVLQFn(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("")
	}
	out := protocol.NewSliceOutput()
	protocol.EncodeVLQInt(out, int32(args[0].Int()))
	return js.ValueOf(hex.EncodeToString(out.Result()))
}

// decodeVLQFn decodes one integer from the front of a hex string.
// Args: hex string. Returns: {value, consumed} or {error}.
func decodeVLQFn(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errObj("missing hex string")
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return errObj("invalid hex: " + err.Error())
	}
	value, consumed, err := protocol.DecodeVLQ(data)
	if err != nil {
		return errObj(err.Error())
	}
	return js.ValueOf(map[string]interface{}{
		"value":    int(value),
		"consumed": consumed,
	})
}

// encodeCommandFn builds one host-to-firmware frame.
// Args: seq (the page's rolling counter), msgID, optional args hex.
// Returns: hex string of the whole frame, or {error}.
func encodeCommandFn(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errObj("want seq, msgID and optional args hex")
	}

	out := protocol.NewSliceOutput()
	protocol.EncodeVLQUint(out, uint32(args[1].Int()))
	if len(args) > 2 && args[2].String() != "" {
		argBytes, err := hex.DecodeString(args[2].String())
		if err != nil {
			return errObj("invalid args hex: " + err.Error())
		}
		out.Output(argBytes)
	}
	payload := out.Result()

	msgLen := protocol.MessageHeaderSize + len(payload) + protocol.MessageTrailerSize
	if msgLen > protocol.MessageLengthMax {
		return errObj("arguments too long for one frame")
	}
	seq := byte(args[0].Int())&protocol.MessageSeqMask | protocol.MessageDest

	frame := make([]byte, 0, msgLen)
	frame = append(frame, byte(msgLen), seq)
	frame = append(frame, payload...)
	crc := protocol.CRC16(frame)
	frame = append(frame, byte(crc>>8), byte(crc), protocol.MessageValueSync)

	return js.ValueOf(hex.EncodeToString(frame))
}

// decodeFrameFn takes one complete frame apart for display. Payload
// fields after the message ID are shown as VLQ guesses; record-specific
// decoding belongs to the typed helpers below.
// Args: hex string. Returns: {length, sequence, msgID, payload, params,
// crc, crcValid} or {error}.
func decodeFrameFn(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errObj("missing hex string")
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return errObj("invalid hex: " + err.Error())
	}
	if len(data) < protocol.MessageLengthMin {
		return errObj("frame too short")
	}

	msgLen := int(data[0])
	if msgLen < protocol.MessageLengthMin || msgLen > len(data) {
		return errObj("length byte does not match data")
	}
	if data[msgLen-1] != protocol.MessageValueSync {
		return errObj("missing sync byte")
	}

	frameCRC := uint16(data[msgLen-3])<<8 | uint16(data[msgLen-2])
	crcValid := frameCRC == protocol.CRC16(data[:msgLen-3])

	payload := data[protocol.MessageHeaderSize : msgLen-protocol.MessageTrailerSize]

	var msgID int32
	params := []interface{}{}
	if len(payload) > 0 {
		var consumed int
		msgID, consumed, err = protocol.DecodeVLQ(payload)
		if err != nil {
			return errObj("bad message ID: " + err.Error())
		}
		rest := payload[consumed:]
		for len(rest) > 0 {
			val, n, err := protocol.DecodeVLQ(rest)
			if err != nil {
				break
			}
			params = append(params, map[string]interface{}{
				"value": int(val),
				"bytes": n,
			})
			rest = rest[n:]
		}
	}

	return js.ValueOf(map[string]interface{}{
		"length":   msgLen,
		"sequence": int(data[1]),
		"msgID":    int(msgID),
		"payload":  hex.EncodeToString(payload),
		"params":   params,
		"crc":      int(frameCRC),
		"crcValid": crcValid,
	})
}

// decodeHelloFn unpacks a hello record's arguments.
// Args: hex of the payload after the message ID. Returns: typed object.
func decodeHelloFn(this js.Value, args []js.Value) interface{} {
	data, errV := payloadArg(args)
	if errV != nil {
		return *errV
	}
	h, err := protocol.DecodeHello(&data)
	if err != nil {
		return errObj(err.Error())
	}
	return js.ValueOf(map[string]interface{}{
		"version":         h.Version,
		"halfPeriodUS":    int(h.HalfPeriodUS),
		"detectorDelayUS": int(h.DetectorDelayUS),
		"gatePulseUS":     int(h.GatePulseUS),
	})
}

// decodeTelemetryFn unpacks a telemetry record's arguments.
// Args: hex of the payload after the message ID. Returns: typed object.
func decodeTelemetryFn(this js.Value, args []js.Value) interface{} {
	data, errV := payloadArg(args)
	if errV != nil {
		return *errV
	}
	rec, err := protocol.DecodeTelemetry(&data)
	if err != nil {
		return errObj(err.Error())
	}
	return js.ValueOf(map[string]interface{}{
		"uptimeUS":      int(rec.UptimeUS),
		"zeroCrossings": int(rec.ZeroCrossings),
		"matches":       int(rec.Matches),
		"conversions":   int(rec.Conversions),
		"sample":        int(rec.Sample),
		"percent":       int(rec.Percent),
		"delayUS":       int(rec.DelayUS),
		"prescaler":     int(rec.Prescaler),
		"count":         int(rec.Count),
		"state":         int(rec.State),
		"override":      rec.Override,
	})
}

// decodeTraceBlobFn unpacks an assembled trace blob. The page collects
// MsgTrace chunks itself and hands over the finished blob.
// Args: hex of the blob. Returns: array of events or {error}.
func decodeTraceBlobFn(this js.Value, args []js.Value) interface{} {
	data, errV := payloadArg(args)
	if errV != nil {
		return *errV
	}
	entries, err := protocol.DecodeTraceBlob(data)
	if err != nil {
		return errObj(err.Error())
	}

	events := make([]interface{}, len(entries))
	for i, e := range entries {
		events[i] = map[string]interface{}{
			"kind":     int(e.Kind),
			"kindName": core.TraceKindName(e.Kind),
			"clock":    int(e.Clock),
			"value":    int(e.Value),
		}
	}
	return js.ValueOf(events)
}

func payloadArg(args []js.Value) ([]byte, *js.Value) {
	if len(args) < 1 {
		v := errObj("missing hex string")
		return nil, &v
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		v := errObj("invalid hex: " + err.Error())
		return nil, &v
	}
	return data, nil
}

func errObj(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}
