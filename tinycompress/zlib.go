// Package tinycompress implements the stored-block subset of zlib
// (RFC 1950 framing around RFC 1951 type-0 blocks). Payloads travel
// uncompressed inside standard zlib framing: a stock inflate on the host
// reads the stream, while the firmware side never pays for match tables
// or sliding windows. The adler32 trailer still catches corruption.
package tinycompress

import (
	"errors"
	"hash/adler32"
)

// BlockMax is the largest payload one stored block can carry.
const BlockMax = 0xFFFF

const (
	headerSize  = 2 // 0x78 0x9C
	blockSize   = 5 // type byte, LEN, NLEN
	trailerSize = 4 // adler32, big endian
)

var (
	ErrTooLarge  = errors.New("tinycompress: payload exceeds stored block limit")
	ErrTruncated = errors.New("tinycompress: truncated stream")
	ErrHeader    = errors.New("tinycompress: bad zlib header")
	ErrBlockType = errors.New("tinycompress: compressed block types not supported")
	ErrChecksum  = errors.New("tinycompress: adler32 mismatch")
)

// Encoder frames payloads as single-block zlib streams. The output
// scratch is reused across calls, so a returned slice is valid only
// until the next Compress.
type Encoder struct {
	out []byte
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Compress wraps input in a zlib stream holding one final stored block.
func (e *Encoder) Compress(input []byte) ([]byte, error) {
	if len(input) > BlockMax {
		return nil, ErrTooLarge
	}

	need := headerSize + blockSize + len(input) + trailerSize
	if cap(e.out) < need {
		e.out = make([]byte, need)
	}
	out := e.out[:need]

	out[0] = 0x78
	out[1] = 0x9C
	out[2] = 0x01 // BFINAL set, BTYPE stored

	n := uint16(len(input))
	out[3] = byte(n)
	out[4] = byte(n >> 8)
	out[5] = byte(^n)
	out[6] = byte(^n >> 8)
	copy(out[7:], input)

	sum := adler32.Checksum(input)
	pos := headerSize + blockSize + len(input)
	out[pos] = byte(sum >> 24)
	out[pos+1] = byte(sum >> 16)
	out[pos+2] = byte(sum >> 8)
	out[pos+3] = byte(sum)

	return out, nil
}

// Decompress unwraps a stream of stored blocks, as produced by Compress
// or by any zlib writer running at compression level zero. Streams
// holding huffman-coded blocks are rejected.
func (e *Encoder) Decompress(stream []byte) ([]byte, error) {
	if len(stream) < headerSize+1+trailerSize {
		return nil, ErrTruncated
	}
	if stream[0] != 0x78 {
		return nil, ErrHeader
	}

	body := len(stream) - trailerSize
	pos := headerSize
	var out []byte
	for {
		if pos >= body {
			return nil, ErrTruncated
		}
		hdr := stream[pos]
		pos++
		if (hdr>>1)&0x03 != 0 {
			return nil, ErrBlockType
		}
		if pos+4 > body {
			return nil, ErrTruncated
		}
		n := int(stream[pos]) | int(stream[pos+1])<<8
		nlen := int(stream[pos+2]) | int(stream[pos+3])<<8
		pos += 4
		if n != ^nlen&0xFFFF {
			return nil, ErrTruncated
		}
		if pos+n > body {
			return nil, ErrTruncated
		}
		out = append(out, stream[pos:pos+n]...)
		pos += n
		if hdr&0x01 != 0 {
			break
		}
	}

	if pos != body {
		return nil, ErrTruncated
	}
	want := uint32(stream[pos])<<24 |
		uint32(stream[pos+1])<<16 |
		uint32(stream[pos+2])<<8 |
		uint32(stream[pos+3])
	if adler32.Checksum(out) != want {
		return nil, ErrChecksum
	}
	return out, nil
}
