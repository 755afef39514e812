package serial

import (
	"io"
)

// Port is a byte pipe to the board. The native implementation wraps a
// real serial device; tests substitute in-memory ports.
type Port interface {
	io.ReadWriteCloser

	// Flush pushes any buffered data to the device.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate. USB CDC ignores it; it matters only on a real UART.
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration for a USB CDC board.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
