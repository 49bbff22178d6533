// Package gpio provides raw button line reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the raw level of one input line.
type Reader interface {
	// Read returns the raw level of the line (true = high).
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults for a button on a Raspberry Pi (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 17
)
