// Package status provides a thread-safe status tracker for the button-sensor daemon.
// It is written by the polling loop and read by HTTP handlers and MQTT
// lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/button-sensor/internal/button"
)

// Config contains daemon configuration for display.
type Config struct {
	Name        string
	Chip        string
	Pin         int
	ActiveLevel string
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Serial      string
}

// Counts tracks how often each event kind fired since startup.
type Counts struct {
	Pressed     int
	Released    int
	ShortPress  int
	LongPress   int
	VeryLong    int
	DoublePress int
	Hold        int
}

// Add increments the counter for kind. Unknown kinds are ignored.
func (c *Counts) Add(kind button.EventKind) {
	switch kind {
	case button.EventPressed:
		c.Pressed++
	case button.EventReleased:
		c.Released++
	case button.EventShortPress:
		c.ShortPress++
	case button.EventLongPress:
		c.LongPress++
	case button.EventVeryLongPress:
		c.VeryLong++
	case button.EventDoublePress:
		c.DoublePress++
	case button.EventHold:
		c.Hold++
	}
}

// ConsoleStats mirrors the serial console transmit counters.
type ConsoleStats struct {
	BytesSent uint64
	TxCount   uint64
	TxErrors  uint64
	LastTx    time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Flags         button.Flags
	Counts        Counts
	LastEvent     button.EventKind
	LastEventAt   time.Time
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
	// Console is nil when no serial console is configured.
	Console *ConsoleStats
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu            sync.RWMutex
	snap          Snapshot
	lastHeartbeat time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		lastHeartbeat: startTime,
	}
}

// Update stores the current button flags. Called from runLoop on every tick.
func (t *Tracker) Update(flags button.Flags) {
	t.mu.Lock()
	t.snap.Flags = flags
	t.mu.Unlock()
}

// Record counts an event and remembers it as the most recent one.
func (t *Tracker) Record(kind button.EventKind, at time.Time) {
	t.mu.Lock()
	t.snap.Counts.Add(kind)
	t.snap.LastEvent = kind
	t.snap.LastEventAt = at
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetConfig replaces the displayed config, e.g. after a reload.
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	t.snap.Config = cfg
	t.mu.Unlock()
}

// SetConsoleStats replaces the console transmit counters.
func (t *Tracker) SetConsoleStats(cs ConsoleStats) {
	t.mu.Lock()
	t.snap.Console = &cs
	t.mu.Unlock()
}

// HeartbeatDue reports whether interval has elapsed since the last
// heartbeat (or startup) and, if so, restarts the interval at now.
// An interval <= 0 disables heartbeats.
func (t *Tracker) HeartbeatDue(now time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastHeartbeat) < interval {
		return false
	}
	t.lastHeartbeat = now
	return true
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Console != nil {
		cs := *s.Console
		s.Console = &cs
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
