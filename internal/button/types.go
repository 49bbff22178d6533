// Package button turns a noisy digital input line into discrete press
// gestures. It is a pure state machine: the caller supplies the raw line
// level and a millisecond tick, and the engine never sleeps, allocates or
// starts goroutines.
package button

import "fmt"

// Timing thresholds in milliseconds.
const (
	ShortThreshold      = 300  // max duration of a short press
	LongThreshold       = 1000 // min duration of a long press
	VeryLongThreshold   = 3000 // min duration of a very long press
	DoublePressInterval = 300  // max gap between two presses of a double press
	HoldInterval        = 200  // cadence of the hold callback
	DebounceTime        = 15   // time a new level must persist before it is accepted
)

// ActiveLevel selects which raw level counts as pressed.
type ActiveLevel int

const (
	ActiveLow  ActiveLevel = iota // pull-up wiring, pressed = low
	ActiveHigh                    // pull-down wiring, pressed = high
)

func (a ActiveLevel) String() string {
	switch a {
	case ActiveLow:
		return "active_low"
	case ActiveHigh:
		return "active_high"
	default:
		return fmt.Sprintf("unknown(%d)", int(a))
	}
}

// idle returns the raw level of a released button.
func (a ActiveLevel) idle() bool {
	return a == ActiveLow
}

// EventKind identifies a button event.
type EventKind int

const (
	EventNone EventKind = iota
	EventPressed
	EventReleased
	EventShortPress
	EventLongPress
	EventVeryLongPress
	EventDoublePress
	EventHold

	numEventKinds
)

var eventNames = [numEventKinds]string{
	EventNone:          "none",
	EventPressed:       "pressed",
	EventReleased:      "released",
	EventShortPress:    "short_press",
	EventLongPress:     "long_press",
	EventVeryLongPress: "very_long_press",
	EventDoublePress:   "double_press",
	EventHold:          "hold",
}

func (k EventKind) String() string {
	if k < 0 || k >= numEventKinds {
		return fmt.Sprintf("unknown(%d)", int(k))
	}
	return eventNames[k]
}

// ParseEventKind returns the kind named by s, as produced by String.
func ParseEventKind(s string) (EventKind, error) {
	for k, name := range eventNames {
		if name == s {
			return EventKind(k), nil
		}
	}
	return EventNone, fmt.Errorf("unknown event kind %q", s)
}

// Kinds lists every event kind a handler can be registered for.
func Kinds() []EventKind {
	return []EventKind{
		EventPressed,
		EventReleased,
		EventShortPress,
		EventLongPress,
		EventVeryLongPress,
		EventDoublePress,
		EventHold,
	}
}

// Line reads the raw logic level of an input. true = high.
type Line interface {
	Level() bool
}

// LineFunc adapts a plain function to the Line interface.
type LineFunc func() bool

// Level calls f.
func (f LineFunc) Level() bool { return f() }

// Handler is invoked synchronously from Handle when an event fires.
type Handler func()
