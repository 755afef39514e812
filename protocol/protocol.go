// Package protocol implements the framed serial protocol spoken between
// dimmer firmware and host tools.
//
// A frame is: length byte, sequence byte, payload, CRC-16 (big endian),
// sync byte. The length counts the whole frame. Sequence bytes carry a
// 4-bit rolling counter in the low nibble and 0x10 in the high nibble,
// which doubles as a framing check. Payload integers use a 7-bit
// variable-length encoding.
package protocol

// Version reported in the hello record.
const Version = "0.1.0"

// Frame layout.
const (
	MessageMax         = 512 // Output buffer size (holds several frames)
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F
)
