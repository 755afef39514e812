//go:build rp2040 || rp2350

package main

import "machine"

// InitUSB brings up the CDC serial port. On the RP2040 machine.Serial is
// the USB CDC endpoint; the descriptors come from the TinyGo runtime.
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// USBAvailable returns the number of bytes buffered for reading.
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte.
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes data, returning how much was accepted.
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
