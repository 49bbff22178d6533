package button

// Debounce samples the line and reports whether the filtered level changed on
// this call.
//
// A level that differs from the filtered one starts a timer at the first
// differing sample; once DebounceTime has elapsed the sampled level is
// committed. Any sample equal to the filtered level cancels the timer.
// The comparison is always against the filtered level, so a line that keeps
// moving between non-filtered values still accumulates time from the first
// divergence and commits whatever it reads when the threshold is crossed.
func (b *Button) Debounce(tick uint32) bool {
	if !b.valid() {
		return false
	}

	raw := b.line.Level()
	if raw == b.filter {
		b.debouncing = false
		return false
	}

	if !b.debouncing {
		b.debouncing = true
		b.debounceStart = tick
		return false
	}

	if tick-b.debounceStart < DebounceTime {
		return false
	}

	b.last = b.current
	b.current = raw
	b.filter = raw
	b.debouncing = false
	return true
}
