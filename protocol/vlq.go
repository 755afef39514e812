package protocol

import "errors"

// ErrBufferTooSmall reports a VLQ field cut off by the end of its buffer.
var ErrBufferTooSmall = errors.New("buffer too small for VLQ")

// Integers travel as VLQ: 7-bit groups, most significant first, the top
// bit of each byte marking continuation. Group ranges are asymmetric,
// [-(1<<k), 3<<k) around zero, so small negative values stay short.

// EncodeVLQInt appends the encoding of a signed integer.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var enc [5]byte
	n := 0
	for shift := uint(28); shift > 0; shift -= 7 {
		lo := int32(-1) << (shift - 2)
		hi := int32(3) << (shift - 2)
		if n > 0 || v < lo || v >= hi {
			enc[n] = byte(v>>shift)&0x7F | 0x80
			n++
		}
	}
	enc[n] = byte(v) & 0x7F
	output.Output(enc[:n+1])
}

// EncodeVLQUint appends the encoding of an unsigned integer.
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one signed integer from the front of *data and
// advances it. On error *data is left untouched.
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := buf[0]
	v := uint32(c & 0x7F)
	// Bits 5 and 6 both set in the lead byte mark a negative value.
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}

	i := 1
	for c&0x80 != 0 {
		if i == len(buf) {
			return 0, ErrBufferTooSmall
		}
		c = buf[i]
		v = v<<7 | uint32(c&0x7F)
		i++
	}

	*data = buf[i:]
	return int32(v), nil
}

// DecodeVLQUint reads one unsigned integer from the front of *data.
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}

// EncodeVLQ returns the encoding of v as a fresh slice.
func EncodeVLQ(v int32) []byte {
	output := NewScratchOutput()
	EncodeVLQInt(output, v)
	return output.Result()
}

// DecodeVLQ reads one integer without modifying the input, reporting how
// many bytes the field occupied.
func DecodeVLQ(data []byte) (int32, int, error) {
	rest := data
	v, err := DecodeVLQInt(&rest)
	if err != nil {
		return 0, 0, err
	}
	return v, len(data) - len(rest), nil
}

// EncodeVLQBytes appends a length-prefixed byte field.
func EncodeVLQBytes(output OutputBuffer, data []byte) {
	EncodeVLQUint(output, uint32(len(data)))
	output.Output(data)
}

// DecodeVLQBytes reads a length-prefixed byte field. The result aliases
// the input buffer.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	n, err := DecodeVLQUint(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < n {
		return nil, ErrBufferTooSmall
	}
	field := (*data)[:n]
	*data = (*data)[n:]
	return field, nil
}

// EncodeVLQString appends a length-prefixed string field.
func EncodeVLQString(output OutputBuffer, s string) {
	EncodeVLQUint(output, uint32(len(s)))
	output.Output([]byte(s))
}

// DecodeVLQString reads a length-prefixed string field.
func DecodeVLQString(data *[]byte) (string, error) {
	field, err := DecodeVLQBytes(data)
	if err != nil {
		return "", err
	}
	return string(field), nil
}
