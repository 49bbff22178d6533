package button

// Handle runs one polling cycle at tick: debounce, then edge handling when
// the filtered level changed, then duration-based gestures and hold repeat
// while the button is down. Handlers run synchronously in the caller.
func (b *Button) Handle(tick uint32) {
	if !b.valid() {
		return
	}

	if b.Debounce(tick) {
		down := b.IsPressed()
		switch {
		case down && !b.pressed:
			b.onPress(tick)
		case !down && b.pressed:
			b.onRelease(tick)
		}
	}

	if b.pressed {
		duration := tick - b.pressTime
		b.classify(duration)
		b.repeatHold(tick, duration)
	}
}

func (b *Button) onPress(tick uint32) {
	b.pressed = true
	b.pressTime = tick
	b.longPressed = false
	b.veryLongPressed = false

	b.fire(EventPressed)

	// A timed-out sequence restarts at 1; only a detected double press
	// resets the counter to 0.
	if tick-b.lastPressTime < DoublePressInterval {
		b.pressCount++
		if b.pressCount >= 2 {
			b.fire(EventDoublePress)
			b.pressCount = 0
		}
	} else {
		b.pressCount = 1
	}
	b.lastPressTime = tick
}

func (b *Button) onRelease(tick uint32) {
	b.pressed = false
	b.holding = false
	b.releaseTime = tick
	duration := tick - b.pressTime

	b.fire(EventReleased)

	if !b.longPressed && !b.veryLongPressed && duration < ShortThreshold {
		b.fire(EventShortPress)
	}
}

// classify fires at most one of very-long or long per call, very-long first.
// If polling is coarse enough to jump straight past VeryLongThreshold the
// long event is skipped for the rest of that episode.
func (b *Button) classify(duration uint32) {
	if !b.veryLongPressed && duration >= VeryLongThreshold {
		b.veryLongPressed = true
		b.fire(EventVeryLongPress)
	} else if !b.longPressed && !b.veryLongPressed && duration >= LongThreshold {
		b.longPressed = true
		b.fire(EventLongPress)
	}
}

func (b *Button) repeatHold(tick, duration uint32) {
	if b.handlers[EventHold] == nil {
		return
	}

	if !b.holding {
		if duration >= HoldInterval {
			b.holding = true
			b.lastHold = tick
			b.fire(EventHold)
		}
		return
	}

	if tick-b.lastHold >= HoldInterval {
		b.lastHold = tick
		b.fire(EventHold)
	}
}
