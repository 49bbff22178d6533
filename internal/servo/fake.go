package servo

import "time"

// FakeDriver records pulses for tests.
type FakeDriver struct {
	Pulses []time.Duration
	Err    error
	Closed bool
}

func (f *FakeDriver) SetPulse(width time.Duration) error {
	if f.Err != nil {
		return f.Err
	}
	f.Pulses = append(f.Pulses, width)
	return nil
}

func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}
