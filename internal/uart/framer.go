// Package uart frames command lines received on a serial port and serves
// them through a cli.Registry.
package uart

// BufferSize is the receive line buffer size, terminator included.
const BufferSize = 128

// Framer accumulates received bytes into lines terminated by '\n'.
type Framer struct {
	buf      [BufferSize]byte
	n        int
	overflow bool
	dropped  int
}

// Feed appends one byte. It returns the completed line, terminator
// included, when b is '\n'. A line longer than BufferSize is discarded up to
// and including its terminator.
func (f *Framer) Feed(b byte) (line string, ok bool) {
	if f.overflow {
		if b == '\n' {
			f.overflow = false
			f.dropped++
		}
		return "", false
	}

	f.buf[f.n] = b
	f.n++
	if b == '\n' {
		line = string(f.buf[:f.n])
		f.n = 0
		return line, true
	}
	if f.n == BufferSize {
		f.n = 0
		f.overflow = true
	}
	return "", false
}

// Pending returns the number of bytes of the incomplete line.
func (f *Framer) Pending() int {
	return f.n
}

// Dropped returns how many overlong lines have been discarded.
func (f *Framer) Dropped() int {
	return f.dropped
}

// Reset discards any partial line.
func (f *Framer) Reset() {
	f.n = 0
	f.overflow = false
}
