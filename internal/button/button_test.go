package button

import (
	"math"
	"reflect"
	"testing"
)

type firing struct {
	kind EventKind
	tick uint32
}

// harness drives a Button from a scripted line and records every handler call.
type harness struct {
	level ActiveLevel
	high  bool
	tick  uint32
	btn   Button
	fired []firing
}

func newHarness(level ActiveLevel) *harness {
	h := &harness{level: level, high: level == ActiveLow}
	h.btn = New(LineFunc(func() bool { return h.high }), level)
	for _, k := range Kinds() {
		k := k
		h.btn.SetCallback(k, func() {
			h.fired = append(h.fired, firing{kind: k, tick: h.tick})
		})
	}
	return h
}

func (h *harness) setDown(down bool) {
	if h.level == ActiveLow {
		h.high = !down
	} else {
		h.high = down
	}
}

func (h *harness) step(tick uint32) {
	h.tick = tick
	h.btn.Handle(tick)
}

// drive polls every `every` ms from `from` to `to` inclusive, setting the line
// from down(tick) before each poll. Offsets are used so ranges may wrap.
func (h *harness) drive(from, to, every uint32, down func(tick uint32) bool) {
	for off := uint32(0); off <= to-from; off += every {
		t := from + off
		h.setDown(down(t))
		h.step(t)
	}
}

func (h *harness) count(kind EventKind) int {
	n := 0
	for _, f := range h.fired {
		if f.kind == kind {
			n++
		}
	}
	return n
}

func (h *harness) ticks(kind EventKind) []uint32 {
	var out []uint32
	for _, f := range h.fired {
		if f.kind == kind {
			out = append(out, f.tick)
		}
	}
	return out
}

func always(uint32) bool { return true }

func downBetween(start, end uint32) func(uint32) bool {
	return func(t uint32) bool { return t >= start && t < end }
}

func TestNewInitialState(t *testing.T) {
	for _, level := range []ActiveLevel{ActiveLow, ActiveHigh} {
		t.Run(level.String(), func(t *testing.T) {
			b := New(LineFunc(func() bool { return level == ActiveLow }), level)
			if b.IsPressed() {
				t.Error("new button should not be pressed")
			}
			for _, k := range Kinds() {
				if b.Event(k) {
					t.Errorf("Event(%s) = true on new button", k)
				}
			}
			if b.ActiveLevel() != level {
				t.Errorf("ActiveLevel() = %v, want %v", b.ActiveLevel(), level)
			}
		})
	}
}

func TestInitClearsState(t *testing.T) {
	h := newHarness(ActiveLow)
	h.drive(0, 500, 1, always)
	if !h.btn.Event(EventPressed) || !h.btn.Event(EventHold) {
		t.Fatal("expected pressed and holding before re-init")
	}

	calls := 0
	h.btn.SetCallback(EventPressed, func() { calls++ })

	Init(&h.btn, LineFunc(func() bool { return h.high }), ActiveLow)
	if h.btn.IsPressed() || h.btn.Event(EventPressed) || h.btn.Event(EventHold) {
		t.Error("Init should clear pressed and holding")
	}

	// Handlers are cleared too.
	h.setDown(false)
	h.drive(1000, 1100, 1, downBetween(1000, 2000))
	if calls != 0 {
		t.Errorf("pressed handler ran %d times after Init, want 0", calls)
	}
}

func TestDebounceCommitsAfterThreshold(t *testing.T) {
	low := false
	b := New(LineFunc(func() bool { return !low }), ActiveLow)

	low = true
	if b.Debounce(0) {
		t.Error("first divergent sample must not commit")
	}
	if b.Debounce(14) {
		t.Error("commit before 15ms")
	}
	if !b.Debounce(15) {
		t.Error("expected commit at 15ms")
	}
	if !b.IsPressed() {
		t.Error("expected pressed after commit")
	}
	if b.Debounce(16) {
		t.Error("stable level must not report a change")
	}
}

func TestDebounceCancelledByReturnToFilteredLevel(t *testing.T) {
	low := true
	b := New(LineFunc(func() bool { return !low }), ActiveLow)

	b.Debounce(0)
	b.Debounce(8)

	// Bounce back to the filtered level cancels the timer.
	low = false
	if b.Debounce(10) {
		t.Error("return to filtered level must not commit")
	}

	low = true
	if b.Debounce(12) {
		t.Error("restart must not commit")
	}
	if b.Debounce(20) {
		t.Error("timer should have restarted at 12ms")
	}
	if !b.Debounce(27) {
		t.Error("expected commit 15ms after restart")
	}
}

func TestDebounceMeasuresFromFirstDivergence(t *testing.T) {
	low := true
	b := New(LineFunc(func() bool { return !low }), ActiveLow)

	// Sparse polling: 0 starts the timer, 40 commits.
	b.Debounce(0)
	if !b.Debounce(40) {
		t.Error("expected commit on the first poll past the threshold")
	}
}

func TestPressCommitsAfterDebounce(t *testing.T) {
	h := newHarness(ActiveLow)

	h.drive(0, 14, 1, always)
	if h.btn.IsPressed() || h.count(EventPressed) != 0 {
		t.Fatal("pressed before debounce elapsed")
	}

	h.drive(15, 15, 1, always)
	if !h.btn.IsPressed() {
		t.Error("IsPressed() = false at 15ms")
	}
	if !h.btn.Event(EventPressed) {
		t.Error("Event(pressed) = false at 15ms")
	}
	if got := h.ticks(EventPressed); !reflect.DeepEqual(got, []uint32{15}) {
		t.Errorf("pressed ticks = %v, want [15]", got)
	}
	if h.btn.PressTime() != 15 {
		t.Errorf("PressTime() = %d, want 15", h.btn.PressTime())
	}
}

func TestShortPress(t *testing.T) {
	h := newHarness(ActiveLow)
	h.drive(0, 300, 1, downBetween(0, 100))

	want := []firing{
		{EventPressed, 15},
		{EventReleased, 115},
		{EventShortPress, 115},
	}
	if !reflect.DeepEqual(h.fired, want) {
		t.Errorf("fired = %v, want %v", h.fired, want)
	}
	if h.btn.Event(EventLongPress) || h.btn.Event(EventVeryLongPress) {
		t.Error("long flags set after short press")
	}
	if h.btn.ReleaseTime() != 115 {
		t.Errorf("ReleaseTime() = %d, want 115", h.btn.ReleaseTime())
	}
}

func TestNoShortPressAtThreshold(t *testing.T) {
	h := newHarness(ActiveLow)
	// Press commits at 15, release commits at 315: duration 300.
	h.drive(0, 400, 1, downBetween(0, 300))

	if h.count(EventReleased) != 1 {
		t.Errorf("released = %d, want 1", h.count(EventReleased))
	}
	if h.count(EventShortPress) != 0 {
		t.Errorf("short = %d, want 0 for a 300ms press", h.count(EventShortPress))
	}
}

func TestLongPress(t *testing.T) {
	h := newHarness(ActiveLow)
	h.drive(0, 2000, 1, downBetween(0, 1500))

	if got := h.ticks(EventLongPress); !reflect.DeepEqual(got, []uint32{1015}) {
		t.Errorf("long ticks = %v, want [1015]", got)
	}
	if h.count(EventShortPress) != 0 {
		t.Errorf("short = %d, want 0", h.count(EventShortPress))
	}
	if h.count(EventVeryLongPress) != 0 {
		t.Errorf("very long = %d, want 0", h.count(EventVeryLongPress))
	}
	// The flag persists past release until the next press edge.
	if !h.btn.Event(EventLongPress) {
		t.Error("long flag cleared on release")
	}

	h.drive(2001, 2100, 1, downBetween(2050, 3000))
	if h.btn.Event(EventLongPress) {
		t.Error("long flag should reset on the next press edge")
	}
}

func TestContinuousHold(t *testing.T) {
	h := newHarness(ActiveLow)
	// Press commits at 15 and is held for 3200ms.
	h.drive(0, 3215, 1, always)

	var wantHold []uint32
	for tk := uint32(215); tk <= 3215; tk += HoldInterval {
		wantHold = append(wantHold, tk)
	}
	if got := h.ticks(EventHold); !reflect.DeepEqual(got, wantHold) {
		t.Errorf("hold ticks = %v, want %v", got, wantHold)
	}
	if got := h.ticks(EventLongPress); !reflect.DeepEqual(got, []uint32{1015}) {
		t.Errorf("long ticks = %v, want [1015]", got)
	}
	if got := h.ticks(EventVeryLongPress); !reflect.DeepEqual(got, []uint32{3015}) {
		t.Errorf("very long ticks = %v, want [3015]", got)
	}
	if !h.btn.Event(EventLongPress) || !h.btn.Event(EventVeryLongPress) || !h.btn.Event(EventHold) {
		t.Error("expected long, very long and hold flags while held")
	}

	h.drive(3216, 3300, 1, downBetween(0, 3216))
	if h.btn.Event(EventHold) {
		t.Error("holding should clear on release")
	}
	if h.count(EventShortPress) != 0 {
		t.Error("short press after a long episode")
	}
	if h.count(EventHold) != len(wantHold) {
		t.Errorf("hold fired after release: %d, want %d", h.count(EventHold), len(wantHold))
	}
}

func TestCoarsePollingSkipsLongPress(t *testing.T) {
	h := newHarness(ActiveLow)
	h.setDown(true)
	h.step(0)
	h.step(15)
	h.step(3100)
	h.step(3200)
	h.setDown(false)
	h.step(3300)
	h.step(3400)

	if h.count(EventVeryLongPress) != 1 {
		t.Errorf("very long = %d, want 1", h.count(EventVeryLongPress))
	}
	if h.count(EventLongPress) != 0 {
		t.Errorf("long = %d, want 0", h.count(EventLongPress))
	}
	if h.btn.Event(EventLongPress) {
		t.Error("long flag set although long never fired")
	}
	if h.count(EventShortPress) != 0 {
		t.Errorf("short = %d, want 0", h.count(EventShortPress))
	}
}

func TestDoublePress(t *testing.T) {
	h := newHarness(ActiveLow)
	down := func(t uint32) bool {
		return t < 50 || (t >= 150 && t < 200)
	}
	h.drive(0, 400, 1, down)

	if got := h.ticks(EventDoublePress); !reflect.DeepEqual(got, []uint32{165}) {
		t.Errorf("double ticks = %v, want [165]", got)
	}
	if h.btn.pressCount != 0 {
		t.Errorf("pressCount = %d, want 0 after double press", h.btn.pressCount)
	}

	// The double fires after the pressed handler on the same edge.
	var order []EventKind
	for _, f := range h.fired {
		if f.tick == 165 {
			order = append(order, f.kind)
		}
	}
	if !reflect.DeepEqual(order, []EventKind{EventPressed, EventDoublePress}) {
		t.Errorf("order at 165 = %v", order)
	}
}

func TestDoublePressCounterResetsAfterDetection(t *testing.T) {
	h := newHarness(ActiveLow)
	// Four presses 150ms apart: pairs (1,2) and (3,4) are doubles, (2,3) is not.
	down := func(t uint32) bool {
		return t%150 < 50 && t < 600
	}
	h.drive(0, 900, 1, down)

	if h.count(EventPressed) != 4 {
		t.Fatalf("pressed = %d, want 4", h.count(EventPressed))
	}
	if got := h.ticks(EventDoublePress); !reflect.DeepEqual(got, []uint32{165, 465}) {
		t.Errorf("double ticks = %v, want [165 465]", got)
	}
}

func TestDoublePressTimeout(t *testing.T) {
	h := newHarness(ActiveLow)
	// Second press starts 300ms after the first: gap == interval.
	down := func(t uint32) bool {
		return t < 50 || (t >= 300 && t < 350)
	}
	h.drive(0, 600, 1, down)

	if h.count(EventDoublePress) != 0 {
		t.Errorf("double = %d, want 0", h.count(EventDoublePress))
	}
	if h.btn.pressCount != 1 {
		t.Errorf("pressCount = %d, want 1 after timeout", h.btn.pressCount)
	}
}

func TestHoldNotFiredBeforeInterval(t *testing.T) {
	h := newHarness(ActiveLow)
	h.drive(0, 400, 1, downBetween(0, 150))

	if h.count(EventHold) != 0 {
		t.Errorf("hold = %d, want 0", h.count(EventHold))
	}
	if h.btn.Event(EventHold) {
		t.Error("holding set for a 150ms press")
	}
}

func TestHoldRequiresHandler(t *testing.T) {
	h := newHarness(ActiveLow)
	h.btn.SetCallback(EventHold, nil)
	h.drive(0, 1000, 1, always)

	if h.btn.Event(EventHold) {
		t.Error("holding set without a hold handler")
	}
	if h.count(EventHold) != 0 {
		t.Errorf("hold = %d, want 0", h.count(EventHold))
	}
}

func TestPressedFlagSpansEpisode(t *testing.T) {
	h := newHarness(ActiveLow)
	down := downBetween(0, 500)
	for tick := uint32(0); tick <= 700; tick++ {
		h.setDown(down(tick))
		h.step(tick)
		want := tick >= 15 && tick < 515
		if got := h.btn.Event(EventPressed); got != want {
			t.Fatalf("tick %d: Event(pressed) = %v, want %v", tick, got, want)
		}
	}
}

func TestMomentaryKindsHaveNoFlag(t *testing.T) {
	h := newHarness(ActiveLow)
	down := func(t uint32) bool {
		return t < 50 || (t >= 150 && t < 200)
	}
	for tick := uint32(0); tick <= 400; tick++ {
		h.setDown(down(tick))
		h.step(tick)
		for _, k := range []EventKind{EventNone, EventReleased, EventShortPress, EventDoublePress, EventKind(42)} {
			if h.btn.Event(k) {
				t.Fatalf("tick %d: Event(%s) = true", tick, k)
			}
		}
	}
}

func TestActiveHigh(t *testing.T) {
	h := newHarness(ActiveHigh)
	if h.high {
		t.Fatal("active-high button should idle low")
	}
	h.drive(0, 300, 1, downBetween(0, 100))

	if h.count(EventPressed) != 1 || h.count(EventShortPress) != 1 {
		t.Errorf("fired = %v", h.fired)
	}
}

func TestTickWraparound(t *testing.T) {
	h := newHarness(ActiveLow)
	start := uint32(math.MaxUint32 - 500)
	h.drive(start, start+1500, 1, always)

	if got := h.ticks(EventLongPress); !reflect.DeepEqual(got, []uint32{start + 1015}) {
		t.Errorf("long ticks = %v, want [%d]", got, start+1015)
	}
	if h.count(EventVeryLongPress) != 0 {
		t.Errorf("very long = %d, want 0", h.count(EventVeryLongPress))
	}
	if n := h.count(EventHold); n != 7 {
		t.Errorf("hold = %d, want 7", n)
	}
}

func TestSetCallbackReplaces(t *testing.T) {
	h := newHarness(ActiveLow)
	first, second := 0, 0
	h.btn.SetCallback(EventPressed, func() { first++ })
	h.btn.SetCallback(EventPressed, func() { second++ })
	h.btn.SetCallback(EventNone, func() { t.Error("EventNone handler ran") })
	h.btn.SetCallback(EventKind(99), func() { t.Error("unknown handler ran") })

	h.drive(0, 100, 1, always)

	if first != 0 || second != 1 {
		t.Errorf("first=%d second=%d, want 0 and 1", first, second)
	}
}

func TestNilAndUninitialisedAreNoOps(t *testing.T) {
	var nilBtn *Button
	nilBtn.SetCallback(EventPressed, func() {})
	nilBtn.Handle(10)
	Init(nilBtn, nil, ActiveLow)
	if nilBtn.Debounce(10) || nilBtn.IsPressed() || nilBtn.Event(EventPressed) {
		t.Error("nil button should report false")
	}

	var zero Button
	zero.Handle(10)
	zero.Handle(100)
	if zero.Debounce(200) || zero.IsPressed() || zero.Event(EventPressed) {
		t.Error("uninitialised button should report false")
	}
}

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{EventNone, "none"},
		{EventPressed, "pressed"},
		{EventReleased, "released"},
		{EventShortPress, "short_press"},
		{EventLongPress, "long_press"},
		{EventVeryLongPress, "very_long_press"},
		{EventDoublePress, "double_press"},
		{EventHold, "hold"},
		{EventKind(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseEventKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseEventKind(k.String())
		if err != nil {
			t.Errorf("ParseEventKind(%q): %v", k, err)
		}
		if got != k {
			t.Errorf("ParseEventKind(%q) = %v", k, got)
		}
	}
	if _, err := ParseEventKind("triple_press"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestActiveLevelString(t *testing.T) {
	if ActiveLow.String() != "active_low" || ActiveHigh.String() != "active_high" {
		t.Errorf("got %q, %q", ActiveLow, ActiveHigh)
	}
	if ActiveLevel(5).String() != "unknown(5)" {
		t.Errorf("got %q", ActiveLevel(5))
	}
}

func TestFlags(t *testing.T) {
	h := newHarness(ActiveLow)
	h.drive(0, 1215, 1, always)

	want := Flags{Pressed: true, LongPressed: true, Holding: true}
	if got := h.btn.Flags(); got != want {
		t.Errorf("Flags() = %+v, want %+v", got, want)
	}

	var nilBtn *Button
	if got := nilBtn.Flags(); got != (Flags{}) {
		t.Errorf("nil Flags() = %+v", got)
	}
}
