package uart

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sweeney/button-sensor/internal/cli"
)

// Console runs command lines read from a serial transport.
type Console struct {
	r        io.Reader
	registry *cli.Registry
	printer  *cli.Printer
	framer   Framer
}

// NewConsole returns a Console reading lines from r. Replies are written
// through tx so they show up in its statistics.
func NewConsole(r io.Reader, tx *Transmitter, registry *cli.Registry) *Console {
	return &Console{
		r:        r,
		registry: registry,
		printer:  cli.NewPrinter(tx),
	}
}

// Serve reads until ctx is cancelled, the reader returns io.EOF, or a read
// fails. A zero-byte read is treated as a read timeout and polls ctx again.
func (c *Console) Serve(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := c.r.Read(buf)
		for _, b := range buf[:n] {
			line, ok := c.framer.Feed(b)
			if !ok {
				continue
			}
			if werr := c.registry.Execute(line, c.printer); werr != nil {
				return fmt.Errorf("console write: %w", werr)
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("console read: %w", err)
		}
	}
}

// Dropped returns how many overlong lines were discarded.
func (c *Console) Dropped() int {
	return c.framer.Dropped()
}

