// Package servo drives a hobby servo from an angle in degrees.
package servo

import (
	"fmt"
	"time"
)

// Pulse range of a standard 0-180 degree hobby servo.
const (
	MaxAngle = 180
	MinPulse = 544 * time.Microsecond
	MaxPulse = 2400 * time.Microsecond
	Period   = 20 * time.Millisecond
)

// Map linearly maps x from [inMin, inMax] to [outMin, outMax] using
// integer arithmetic. x is not clamped.
func Map(x, inMin, inMax, outMin, outMax int64) int64 {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// PulseWidth returns the pulse width for angle, clamped to 0..MaxAngle.
func PulseWidth(angle int) time.Duration {
	if angle < 0 {
		angle = 0
	}
	if angle > MaxAngle {
		angle = MaxAngle
	}
	us := Map(int64(angle), 0, MaxAngle, int64(MinPulse/time.Microsecond), int64(MaxPulse/time.Microsecond))
	return time.Duration(us) * time.Microsecond
}

// Driver outputs a PWM pulse train with a fixed Period.
type Driver interface {
	SetPulse(width time.Duration) error
	Close() error
}

// Servo positions a servo through a Driver.
type Servo struct {
	d     Driver
	angle int
}

// New returns a Servo on d. The position is unknown until the first Write.
func New(d Driver) *Servo {
	return &Servo{d: d, angle: -1}
}

// Write moves the servo to angle degrees.
func (s *Servo) Write(angle int) error {
	if angle < 0 || angle > MaxAngle {
		return fmt.Errorf("angle %d out of range 0-%d", angle, MaxAngle)
	}
	if err := s.d.SetPulse(PulseWidth(angle)); err != nil {
		return fmt.Errorf("set pulse: %w", err)
	}
	s.angle = angle
	return nil
}

// Angle returns the last written angle, or -1 before the first Write.
func (s *Servo) Angle() int {
	return s.angle
}

// Close releases the driver.
func (s *Servo) Close() error {
	return s.d.Close()
}
