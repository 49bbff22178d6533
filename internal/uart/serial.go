package uart

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Defaults for the console port.
const (
	DefaultBaud = 115200
	ReadTimeout = 100 * time.Millisecond
)

// Open opens a serial port in 8N1 mode at baud with a short read timeout so
// Console.Serve can observe cancellation.
func Open(name string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return port, nil
}
