// Package serial opens the board's serial console from the host.
package serial

import (
	"io"
	"time"
)

// Port is a host serial connection to the board.
// NativePort implements it on top of github.com/tarm/serial; tests use any
// io.ReadWriteCloser wrapped with Wrap.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate. The rtctest log runs at 115200 on USART1; USB CDC ignores it.
	Baud int

	// ReadTimeout bounds a single Read. Zero blocks.
	ReadTimeout time.Duration
}

// DefaultBaud is the rate both firmware images use
const DefaultBaud = 115200

// DefaultConfig returns the configuration for the bluepill console on device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// nopFlush adapts an io.ReadWriteCloser without a flush operation
type nopFlush struct {
	io.ReadWriteCloser
}

func (nopFlush) Flush() error { return nil }

// Wrap turns rwc into a Port whose Flush does nothing
func Wrap(rwc io.ReadWriteCloser) Port {
	if p, ok := rwc.(Port); ok {
		return p
	}
	return nopFlush{rwc}
}
