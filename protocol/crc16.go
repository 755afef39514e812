package protocol

// CRC16 is the frame checksum: CCITT polynomial, 0xFFFF seed, computed
// bytewise without a lookup table so the MCU image stays small.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(data); i++ {
		t := data[i] ^ byte(crc)
		t ^= t << 4
		crc = uint16(t)<<8 | crc>>8
		crc ^= uint16(t) >> 4
		crc ^= uint16(t) << 3
	}
	return crc
}
