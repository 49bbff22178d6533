package cli

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/sweeney/button-sensor/internal/button"
)

// HelpCommand lists every command of r.
func HelpCommand(r *Registry) *Command {
	return &Command{
		Name: "help",
		Help: "List commands",
		Run: func(p *Printer, args []string) error {
			for _, c := range r.Commands() {
				if err := p.Printf("%s - %s\n", c.Name, c.Help); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// StatusCommand prints the queryable button flags returned by flags.
func StatusCommand(flags func() button.Flags) *Command {
	return &Command{
		Name: "status",
		Help: "Show button flags",
		Run: func(p *Printer, args []string) error {
			f := flags()
			return p.Printf("pressed=%d long=%d very_long=%d holding=%d\n",
				b2i(f.Pressed), b2i(f.LongPressed), b2i(f.VeryLongPressed), b2i(f.Holding))
		},
	}
}

// Positioner moves an actuator to an angle in degrees.
type Positioner interface {
	Write(angle int) error
}

// ServoCommand moves s to the angle given as its only argument.
func ServoCommand(s Positioner) *Command {
	return &Command{
		Name: "servo",
		Help: "Move servo: servo <0-180>",
		Run: func(p *Printer, args []string) error {
			if len(args) != 1 {
				return p.Printf("Too much argument\n")
			}
			angle, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid angle %q", args[0])
			}
			if err := s.Write(angle); err != nil {
				return err
			}
			return p.Printf("servo %d\n", angle)
		},
	}
}

// Channel limits accepted by the temperature commands.
const (
	MaxChannel = 5
	MaxTempMax = 100
	MinTempMin = -100
)

// Thresholds stores per-channel temperature limits set from the console.
type Thresholds struct {
	mu  sync.Mutex
	min [MaxChannel + 1]int
	max [MaxChannel + 1]int
}

// Get returns the limits of ch, which must be in 0..MaxChannel.
func (t *Thresholds) Get(ch int) (lo, hi int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.min[ch], t.max[ch]
}

func (t *Thresholds) setMax(ch, v int) {
	t.mu.Lock()
	t.max[ch] = v
	t.mu.Unlock()
}

func (t *Thresholds) setMin(ch, v int) {
	t.mu.Lock()
	t.min[ch] = v
	t.mu.Unlock()
}

var errArgCount = errors.New("argument count")

// TemperatureCommands returns getTemp, setTempMax and setTempMin over t.
func TemperatureCommands(t *Thresholds) []*Command {
	return []*Command{
		{
			Name: "getTemp",
			Help: "Show limits: getTemp <channel>",
			Run: func(p *Printer, args []string) error {
				ch, _, err := channelArgs(p, args, 1)
				if err != nil {
					return nil
				}
				lo, hi := t.Get(ch)
				return p.Printf("CHANNEL %d: min %d max %d\n", ch, lo, hi)
			},
		},
		{
			Name: "setTempMax",
			Help: "Set max: setTempMax <channel> <value>",
			Run: func(p *Printer, args []string) error {
				ch, v, err := channelArgs(p, args, 2)
				if err != nil {
					return nil
				}
				if v > MaxTempMax {
					return p.Printf("Temperature Error\n")
				}
				t.setMax(ch, v)
				return p.Printf("Max CHANNEL %d: %d\n", ch, v)
			},
		},
		{
			Name: "setTempMin",
			Help: "Set min: setTempMin <channel> <value>",
			Run: func(p *Printer, args []string) error {
				ch, v, err := channelArgs(p, args, 2)
				if err != nil {
					return nil
				}
				if v < MinTempMin {
					return p.Printf("Temperature Error\n")
				}
				t.setMin(ch, v)
				return p.Printf("Min CHANNEL %d: %d\n", ch, v)
			},
		},
	}
}

// channelArgs checks the argument count and channel and reports problems to
// p. A non-nil error means the reply was already written.
func channelArgs(p *Printer, args []string, want int) (ch, value int, err error) {
	if len(args) != want {
		p.Printf("Too much argument\n")
		return 0, 0, errArgCount
	}
	ch, err = strconv.Atoi(args[0])
	if err != nil || ch < 0 || ch > MaxChannel {
		p.Printf("CHANNEL Error\n")
		return 0, 0, errors.New("channel")
	}
	if want == 2 {
		value, err = strconv.Atoi(args[1])
		if err != nil {
			p.Printf("Temperature Error\n")
			return 0, 0, errors.New("temperature")
		}
	}
	return ch, value, nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
