package button

// Button is the state of one debounced input. It is plain data owned by the
// polling loop that drives it and must not be polled from two goroutines.
type Button struct {
	line  Line
	level ActiveLevel

	// Raw and filtered levels.
	current    bool // last committed level
	last       bool // level before the last commit
	filter     bool
	debouncing bool

	debounceStart uint32
	lastHold      uint32
	pressTime     uint32
	releaseTime   uint32

	pressed         bool
	longPressed     bool
	veryLongPressed bool
	holding         bool

	pressCount    uint8
	lastPressTime uint32

	handlers [numEventKinds]Handler
}

// New returns a Button bound to line with the given polarity.
func New(line Line, level ActiveLevel) Button {
	var b Button
	Init(&b, line, level)
	return b
}

// Init resets b and binds it to line. All flags, timestamps and handlers are
// cleared; the filtered level starts at the released level of the polarity.
// Re-initialising is the only way to reset a button.
func Init(b *Button, line Line, level ActiveLevel) {
	if b == nil {
		return
	}

	idle := level.idle()
	*b = Button{
		line:    line,
		level:   level,
		current: idle,
		last:    idle,
		filter:  idle,
	}
}

func (b *Button) valid() bool {
	return b != nil && b.line != nil
}

// SetCallback registers h for kind, replacing any earlier handler.
// A nil h clears the slot. EventNone and unknown kinds are ignored.
func (b *Button) SetCallback(kind EventKind, h Handler) {
	if b == nil || kind <= EventNone || kind >= numEventKinds {
		return
	}
	b.handlers[kind] = h
}

func (b *Button) fire(kind EventKind) {
	if h := b.handlers[kind]; h != nil {
		h()
	}
}

// IsPressed reports whether the debounced level equals the active level.
func (b *Button) IsPressed() bool {
	if !b.valid() {
		return false
	}
	return b.current == !b.level.idle()
}

// Event reports the persisted flag for kind. Only EventPressed,
// EventLongPress, EventVeryLongPress and EventHold have one; released, short
// and double presses are momentary and always report false.
func (b *Button) Event(kind EventKind) bool {
	if !b.valid() {
		return false
	}

	switch kind {
	case EventPressed:
		return b.pressed
	case EventLongPress:
		return b.longPressed
	case EventVeryLongPress:
		return b.veryLongPressed
	case EventHold:
		return b.holding
	default:
		return false
	}
}

// ActiveLevel returns the configured polarity.
func (b *Button) ActiveLevel() ActiveLevel {
	if b == nil {
		return ActiveLow
	}
	return b.level
}

// PressTime returns the tick of the last press edge.
func (b *Button) PressTime() uint32 {
	if b == nil {
		return 0
	}
	return b.pressTime
}

// ReleaseTime returns the tick of the last release edge.
func (b *Button) ReleaseTime() uint32 {
	if b == nil {
		return 0
	}
	return b.releaseTime
}

// Flags is a copy of the four queryable flags.
type Flags struct {
	Pressed         bool
	LongPressed     bool
	VeryLongPressed bool
	Holding         bool
}

// Flags returns the current value of every queryable flag.
func (b *Button) Flags() Flags {
	return Flags{
		Pressed:         b.Event(EventPressed),
		LongPressed:     b.Event(EventLongPress),
		VeryLongPressed: b.Event(EventVeryLongPress),
		Holding:         b.Event(EventHold),
	}
}
