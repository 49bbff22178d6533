package uart

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Transmit buffer limits.
const (
	MaxTransBuffer     = 512
	DefaultTransBuffer = 256
	DefaultNewline     = "\r\n"
	maxNewline         = 3
	minTransBuffer     = 8
)

var (
	ErrInvalidParam   = errors.New("invalid parameter")
	ErrBusy           = errors.New("transmitter busy")
	ErrBufferOverflow = errors.New("buffer overflow")
)

// DataType selects how SendData and SendArray format a value.
type DataType int

const (
	TypeUint8  DataType = iota // uint8, decimal
	TypeInt8                   // int8, decimal
	TypeUint16                 // uint16, decimal
	TypeInt16                  // int16, decimal
	TypeUint32                 // uint32, decimal
	TypeInt32                  // int32, decimal
	TypeFloat                  // float32, three fixed decimals
	TypeString                 // string, verbatim
	TypeHex                    // uint8, 0x%02X
	TypeBinary                 // uint8, 0b and eight digits
	numDataTypes
)

var dataTypeNames = [numDataTypes]string{
	TypeUint8:  "u8",
	TypeInt8:   "i8",
	TypeUint16: "u16",
	TypeInt16:  "i16",
	TypeUint32: "u32",
	TypeInt32:  "i32",
	TypeFloat:  "float",
	TypeString: "str",
	TypeHex:    "hex",
	TypeBinary: "bin",
}

func (d DataType) String() string {
	if d < 0 || d >= numDataTypes {
		return fmt.Sprintf("DataType(%d)", int(d))
	}
	return dataTypeNames[d]
}

// ParseDataType returns the type named by s, as produced by String.
func ParseDataType(s string) (DataType, error) {
	for i, name := range dataTypeNames {
		if name == s {
			return DataType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown data type %q: %w", s, ErrInvalidParam)
}

// numeric reports whether d can be an array element.
func (d DataType) numeric() bool {
	return d >= 0 && d < numDataTypes && d != TypeString
}

// ParseValue converts s to the Go type FormatValue expects for d. Integers
// accept a 0x or 0b prefix.
func ParseValue(d DataType, s string) (interface{}, error) {
	var (
		v   interface{}
		err error
	)
	switch d {
	case TypeUint8, TypeHex, TypeBinary:
		var u uint64
		u, err = strconv.ParseUint(s, 0, 8)
		v = uint8(u)
	case TypeInt8:
		var i int64
		i, err = strconv.ParseInt(s, 0, 8)
		v = int8(i)
	case TypeUint16:
		var u uint64
		u, err = strconv.ParseUint(s, 0, 16)
		v = uint16(u)
	case TypeInt16:
		var i int64
		i, err = strconv.ParseInt(s, 0, 16)
		v = int16(i)
	case TypeUint32:
		var u uint64
		u, err = strconv.ParseUint(s, 0, 32)
		v = uint32(u)
	case TypeInt32:
		var i int64
		i, err = strconv.ParseInt(s, 0, 32)
		v = int32(i)
	case TypeFloat:
		var f float64
		f, err = strconv.ParseFloat(s, 32)
		v = float32(f)
	case TypeString:
		v = s
	default:
		return nil, fmt.Errorf("data type %v: %w", d, ErrInvalidParam)
	}
	if err != nil {
		return nil, fmt.Errorf("%s value %q: %w", d, s, ErrInvalidParam)
	}
	return v, nil
}

// FormatValue renders v as d. v must have the Go type matching d: uint8 for
// TypeUint8, TypeHex and TypeBinary, float32 for TypeFloat, and so on.
func FormatValue(d DataType, v interface{}) (string, error) {
	switch d {
	case TypeUint8:
		if x, ok := v.(uint8); ok {
			return strconv.FormatUint(uint64(x), 10), nil
		}
	case TypeInt8:
		if x, ok := v.(int8); ok {
			return strconv.FormatInt(int64(x), 10), nil
		}
	case TypeUint16:
		if x, ok := v.(uint16); ok {
			return strconv.FormatUint(uint64(x), 10), nil
		}
	case TypeInt16:
		if x, ok := v.(int16); ok {
			return strconv.FormatInt(int64(x), 10), nil
		}
	case TypeUint32:
		if x, ok := v.(uint32); ok {
			return strconv.FormatUint(uint64(x), 10), nil
		}
	case TypeInt32:
		if x, ok := v.(int32); ok {
			return strconv.FormatInt(int64(x), 10), nil
		}
	case TypeFloat:
		if x, ok := v.(float32); ok {
			return formatFixed3(x), nil
		}
	case TypeString:
		if x, ok := v.(string); ok {
			return x, nil
		}
	case TypeHex:
		if x, ok := v.(uint8); ok {
			return fmt.Sprintf("0x%02X", x), nil
		}
	case TypeBinary:
		if x, ok := v.(uint8); ok {
			return fmt.Sprintf("0b%08b", x), nil
		}
	}
	return "", fmt.Errorf("cannot format %T as %v: %w", v, d, ErrInvalidParam)
}

// formatFixed3 truncates f to three decimals.
func formatFixed3(f float32) string {
	whole := int32(f)
	frac := int32((f - float32(whole)) * 1000)
	if frac < 0 {
		frac = -frac
	}
	sign := ""
	if f < 0 && whole == 0 && frac != 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%03d", sign, whole, frac)
}

// TransConfig controls framing of transmitted messages.
type TransConfig struct {
	// BufferSize bounds one message; content is cut to BufferSize-1 bytes.
	BufferSize int
	AddNewline bool
	// Newline is appended when AddNewline is set and it still fits.
	Newline string
}

// TransStats counts transmissions since startup or the last ResetStats.
type TransStats struct {
	BytesSent uint64
	TxCount   uint64
	TxErrors  uint64
	LastTx    time.Time
	Busy      bool
}

// Transmitter formats typed values and writes them to a serial port,
// keeping transmit statistics. One message is in flight at a time; a send
// while another is being written fails with ErrBusy.
type Transmitter struct {
	w   io.Writer
	now func() time.Time

	mu     sync.Mutex
	cfg    TransConfig
	stats  TransStats
	onDone func(ok bool)
}

// NewTransmitter returns a Transmitter on w with a DefaultTransBuffer buffer
// and DefaultNewline line endings.
func NewTransmitter(w io.Writer) *Transmitter {
	return &Transmitter{
		w:   w,
		now: time.Now,
		cfg: TransConfig{
			BufferSize: DefaultTransBuffer,
			AddNewline: true,
			Newline:    DefaultNewline,
		},
	}
}

// Configure replaces the framing config. BufferSize is capped at
// MaxTransBuffer.
func (t *Transmitter) Configure(cfg TransConfig) error {
	if cfg.BufferSize < minTransBuffer {
		return fmt.Errorf("buffer size %d below %d: %w", cfg.BufferSize, minTransBuffer, ErrInvalidParam)
	}
	if len(cfg.Newline) > maxNewline {
		return fmt.Errorf("newline longer than %d bytes: %w", maxNewline, ErrInvalidParam)
	}
	if cfg.BufferSize > MaxTransBuffer {
		cfg.BufferSize = MaxTransBuffer
	}

	t.mu.Lock()
	t.cfg = cfg
	t.mu.Unlock()
	return nil
}

// Config returns the current framing config.
func (t *Transmitter) Config() TransConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// SetCallback registers fn to run after every transmission with its
// outcome. fn runs on the sending goroutine without locks held.
func (t *Transmitter) SetCallback(fn func(ok bool)) {
	t.mu.Lock()
	t.onDone = fn
	t.mu.Unlock()
}

// Busy reports whether a message is being written.
func (t *Transmitter) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.Busy
}

// Status returns a copy of the statistics.
func (t *Transmitter) Status() TransStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// ResetStats clears the counters. The busy state is kept.
func (t *Transmitter) ResetStats() {
	t.mu.Lock()
	t.stats = TransStats{Busy: t.stats.Busy}
	t.mu.Unlock()
}

// SendData formats v as d and transmits it.
func (t *Transmitter) SendData(d DataType, v interface{}) error {
	cfg, err := t.begin()
	if err != nil {
		return err
	}
	s, err := FormatValue(d, v)
	if err != nil {
		t.abort(true)
		return err
	}
	_, err = t.finish(withNewline(clip(s, cfg.BufferSize), cfg))
	return err
}

// SendString transmits s, cut to the buffer.
func (t *Transmitter) SendString(s string) error {
	cfg, err := t.begin()
	if err != nil {
		return err
	}
	_, err = t.finish(withNewline(clip(s, cfg.BufferSize), cfg))
	return err
}

// Printf formats like fmt.Printf and transmits the result, cut to the buffer.
func (t *Transmitter) Printf(format string, args ...interface{}) error {
	cfg, err := t.begin()
	if err != nil {
		return err
	}
	s := fmt.Sprintf(format, args...)
	_, err = t.finish(withNewline(clip(s, cfg.BufferSize), cfg))
	return err
}

// SendHex transmits data as space separated upper-case hex pairs. It fails
// with ErrBufferOverflow when the dump and a two byte terminator would not
// fit the buffer.
func (t *Transmitter) SendHex(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty hex dump: %w", ErrInvalidParam)
	}
	cfg, err := t.begin()
	if err != nil {
		return err
	}
	if len(data)*3+2 > cfg.BufferSize {
		t.abort(false)
		return fmt.Errorf("%d bytes as hex: %w", len(data), ErrBufferOverflow)
	}

	var b strings.Builder
	for _, c := range data {
		fmt.Fprintf(&b, "%02X ", c)
	}
	if cfg.AddNewline {
		b.WriteString(cfg.Newline)
	}
	_, err = t.finish(b.String())
	return err
}

// SendArray transmits values as "[a, b, c]". Output that reaches the end of
// the buffer is cut and closed with "..]" and gets no newline.
func (t *Transmitter) SendArray(d DataType, values []interface{}) error {
	if len(values) == 0 || !d.numeric() {
		return fmt.Errorf("array of %d %v: %w", len(values), d, ErrInvalidParam)
	}
	cfg, err := t.begin()
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("[")
	out := ""
	for i, v := range values {
		s, err := FormatValue(d, v)
		if err != nil {
			t.abort(true)
			return err
		}
		b.WriteString(s)
		if i < len(values)-1 {
			b.WriteString(", ")
		} else {
			b.WriteString("]")
		}
		if b.Len() >= cfg.BufferSize-1 {
			out = b.String()[:cfg.BufferSize-4] + "..]"
			break
		}
	}
	if out == "" {
		out = withNewline(b.String(), cfg)
	}
	_, err = t.finish(out)
	return err
}

// Write transmits p unchanged. It lets a cli.Printer reply through the
// Transmitter so console output is counted.
func (t *Transmitter) Write(p []byte) (int, error) {
	if _, err := t.begin(); err != nil {
		return 0, err
	}
	return t.finish(string(p))
}

func (t *Transmitter) begin() (TransConfig, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stats.Busy {
		return TransConfig{}, ErrBusy
	}
	t.stats.Busy = true
	return t.cfg, nil
}

// abort releases the busy state without writing.
func (t *Transmitter) abort(countError bool) {
	t.mu.Lock()
	t.stats.Busy = false
	if countError {
		t.stats.TxErrors++
	}
	t.mu.Unlock()
}

func (t *Transmitter) finish(s string) (int, error) {
	n, err := io.WriteString(t.w, s)

	t.mu.Lock()
	t.stats.Busy = false
	t.stats.BytesSent += uint64(n)
	t.stats.TxCount++
	t.stats.LastTx = t.now()
	if err != nil {
		t.stats.TxErrors++
	}
	done := t.onDone
	t.mu.Unlock()

	if done != nil {
		done(err == nil)
	}
	if err != nil {
		return n, fmt.Errorf("transmit: %w", err)
	}
	return n, nil
}

// clip cuts s to size-1 bytes.
func clip(s string, size int) string {
	if len(s) > size-1 {
		return s[:size-1]
	}
	return s
}

func withNewline(s string, cfg TransConfig) string {
	if cfg.AddNewline && len(s)+len(cfg.Newline) < cfg.BufferSize {
		return s + cfg.Newline
	}
	return s
}
