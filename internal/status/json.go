package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/button-sensor/internal/button"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Button        ButtonJSON   `json:"button"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Config        ConfigJSON   `json:"config"`
	Console       *ConsoleJSON `json:"console,omitempty"`
}

// ButtonJSON reports the queryable flags and the most recent event.
type ButtonJSON struct {
	Name            string `json:"name"`
	Pressed         bool   `json:"pressed"`
	LongPressed     bool   `json:"long_pressed"`
	VeryLongPressed bool   `json:"very_long_pressed"`
	Holding         bool   `json:"holding"`
	LastEvent       string `json:"last_event,omitempty"`
	LastEventAt     string `json:"last_event_at,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Pressed     int `json:"pressed"`
	Released    int `json:"released"`
	ShortPress  int `json:"short_press"`
	LongPress   int `json:"long_press"`
	VeryLong    int `json:"very_long_press"`
	DoublePress int `json:"double_press"`
	Hold        int `json:"hold"`
}

// ConsoleJSON reports serial console transmit counters.
type ConsoleJSON struct {
	BytesSent uint64 `json:"bytes_sent"`
	TxCount   uint64 `json:"tx_count"`
	TxErrors  uint64 `json:"tx_errors"`
	LastTx    string `json:"last_tx,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip        string `json:"chip"`
	Pin         int    `json:"pin"`
	ActiveLevel string `json:"active_level"`
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	Serial      string `json:"serial,omitempty"`
}

func buildButton(snap Snapshot) ButtonJSON {
	b := ButtonJSON{
		Name:            snap.Config.Name,
		Pressed:         snap.Flags.Pressed,
		LongPressed:     snap.Flags.LongPressed,
		VeryLongPressed: snap.Flags.VeryLongPressed,
		Holding:         snap.Flags.Holding,
	}
	if snap.LastEvent != button.EventNone {
		b.LastEvent = snap.LastEvent.String()
		b.LastEventAt = snap.LastEventAt.UTC().Format(time.RFC3339)
	}
	return b
}

func buildConsole(cs *ConsoleStats) *ConsoleJSON {
	if cs == nil {
		return nil
	}
	c := &ConsoleJSON{
		BytesSent: cs.BytesSent,
		TxCount:   cs.TxCount,
		TxErrors:  cs.TxErrors,
	}
	if !cs.LastTx.IsZero() {
		c.LastTx = cs.LastTx.UTC().Format(time.RFC3339)
	}
	return c
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Console:       buildConsole(snap.Console),
		Button:        buildButton(snap),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Pressed:     snap.Counts.Pressed,
			Released:    snap.Counts.Released,
			ShortPress:  snap.Counts.ShortPress,
			LongPress:   snap.Counts.LongPress,
			VeryLong:    snap.Counts.VeryLong,
			DoublePress: snap.Counts.DoublePress,
			Hold:        snap.Counts.Hold,
		},
		Config: ConfigJSON{
			Chip:        snap.Config.Chip,
			Pin:         snap.Config.Pin,
			ActiveLevel: snap.Config.ActiveLevel,
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Serial:      snap.Config.Serial,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatButton returns only the button flags and last event.
func FormatButton(snap Snapshot) []byte {
	data, _ := json.Marshal(buildButton(snap))
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
