package protocol

import (
	"errors"

	"godim/tinycompress"
)

// TraceChunkMax bounds one MsgTrace record's data so the whole frame
// stays under MessageLengthMax.
const TraceChunkMax = 40

var ErrTraceBlob = errors.New("malformed trace blob")

// TraceEntry is one event from the firmware's capture ring as carried by
// the trace blob. Kind values follow the core trace codes.
type TraceEntry struct {
	Kind  uint8
	Clock uint32
	Value uint32
}

// EncodeTraceBlob serializes entries into a zlib stream. The firmware
// builds the blob once per dump and serves it to the host in MsgTrace
// chunks.
func EncodeTraceBlob(entries []TraceEntry) ([]byte, error) {
	out := NewSliceOutput()
	EncodeVLQUint(out, uint32(len(entries)))
	for _, e := range entries {
		out.Output([]byte{e.Kind})
		EncodeVLQUint(out, e.Clock)
		EncodeVLQUint(out, e.Value)
	}

	stream, err := tinycompress.NewEncoder().Compress(out.Result())
	if err != nil {
		return nil, err
	}
	// Compress hands back its scratch; the blob outlives the encoder
	return append([]byte(nil), stream...), nil
}

// DecodeTraceBlob reads a blob written by EncodeTraceBlob.
func DecodeTraceBlob(blob []byte) ([]TraceEntry, error) {
	raw, err := tinycompress.NewEncoder().Decompress(blob)
	if err != nil {
		return nil, err
	}

	count, err := DecodeVLQUint(&raw)
	if err != nil {
		return nil, err
	}
	// An entry is at least three bytes; a larger count cannot be real
	if count > uint32(len(raw))/3 {
		return nil, ErrTraceBlob
	}

	entries := make([]TraceEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(raw) == 0 {
			return nil, ErrTraceBlob
		}
		var e TraceEntry
		e.Kind = raw[0]
		raw = raw[1:]
		if e.Clock, err = DecodeVLQUint(&raw); err != nil {
			return nil, err
		}
		if e.Value, err = DecodeVLQUint(&raw); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(raw) != 0 {
		return nil, ErrTraceBlob
	}
	return entries, nil
}

// TraceChunk is one MsgTrace record: a slice of the blob at Offset. A
// chunk shorter than the requested count marks the end of the blob.
type TraceChunk struct {
	Offset uint32
	Data   []byte
}

// EncodeTraceChunk writes the chunk fields in wire order.
func EncodeTraceChunk(output OutputBuffer, c TraceChunk) {
	EncodeVLQUint(output, c.Offset)
	EncodeVLQBytes(output, c.Data)
}

// DecodeTraceChunk reads a record written by EncodeTraceChunk. Data
// aliases the input buffer.
func DecodeTraceChunk(data *[]byte) (TraceChunk, error) {
	var c TraceChunk
	var err error
	if c.Offset, err = DecodeVLQUint(data); err != nil {
		return c, err
	}
	if c.Data, err = DecodeVLQBytes(data); err != nil {
		return c, err
	}
	return c, nil
}
