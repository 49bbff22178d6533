package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/button-sensor/internal/button"
)

func TestNewTopics(t *testing.T) {
	tests := []struct {
		prefix     string
		wantEvents string
		wantSystem string
	}{
		{"", "home/button/sensor/events", "home/button/sensor/system"},
		{"lab/bench", "lab/bench/events", "lab/bench/system"},
		{"lab/bench/", "lab/bench/events", "lab/bench/system"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := NewTopics(tt.prefix)
			if got.Events != tt.wantEvents {
				t.Errorf("Events: got %s, want %s", got.Events, tt.wantEvents)
			}
			if got.System != tt.wantSystem {
				t.Errorf("System: got %s, want %s", got.System, tt.wantSystem)
			}
		})
	}
}

func TestFormatPayload(t *testing.T) {
	event := Event{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Button:    "door",
		Kind:      button.EventLongPress,
		Flags:     button.Flags{Pressed: true, LongPressed: true, Holding: true},
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"button":{"timestamp":"2026-02-02T22:18:12Z","name":"door","event":"long_press","pressed":true,"long_pressed":true,"very_long_pressed":false,"holding":true}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadAllEventKinds(t *testing.T) {
	for _, kind := range button.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			payload, err := FormatPayload(Event{Timestamp: time.Now(), Kind: kind})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Button.Event != kind.String() {
				t.Errorf("event: got %s, want %s", parsed.Button.Event, kind)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := Event{
		Timestamp: time.Date(2026, 2, 2, 12, 0, 0, 500_000_000, loc),
		Kind:      button.EventPressed,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	json.Unmarshal(payload, &parsed)
	if parsed.Button.Timestamp != "2026-02-02T10:00:00.5Z" {
		t.Errorf("unexpected timestamp: %s", parsed.Button.Timestamp)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	e1 := Event{Timestamp: time.Now(), Button: "a", Kind: button.EventPressed}
	e2 := Event{Timestamp: time.Now(), Button: "a", Kind: button.EventReleased}

	if err := f.Publish(e1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Publish(e2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(f.Events))
	}
	if f.Events[0].Kind != button.EventPressed || f.Events[1].Kind != button.EventReleased {
		t.Errorf("events out of order: %v", f.Events)
	}
	if len(f.Payloads) != 2 {
		t.Errorf("expected 2 payloads, got %d", len(f.Payloads))
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")

	if err := f.Publish(Event{Kind: button.EventPressed}); err == nil {
		t.Error("expected error")
	}
	if len(f.Events) != 0 {
		t.Errorf("expected no recorded events, got %d", len(f.Events))
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()

	if err := f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.SystemEvents) != 1 || !f.SystemEvents[0].Retained {
		t.Errorf("unexpected system events: %+v", f.SystemEvents)
	}

	f.PublishSystemError = errors.New("fail")
	if err := f.PublishSystem(SystemEvent{Event: "SHUTDOWN"}); err == nil {
		t.Error("expected error")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(Event{Kind: button.EventHold})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true

	f.Reset()

	if f.Events != nil || f.Payloads != nil || f.SystemEvents != nil || f.SystemPayloads != nil {
		t.Error("expected recorded data to be cleared")
	}
	if f.Closed || f.Connected {
		t.Error("expected Closed and Connected to be reset")
	}
}

func TestFakePublisherKinds(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(Event{Kind: button.EventPressed})
	f.Publish(Event{Kind: button.EventDoublePress})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})

	kinds := f.Kinds()
	if len(kinds) != 2 || kinds[0] != button.EventPressed || kinds[1] != button.EventDoublePress {
		t.Errorf("Kinds() = %v", kinds)
	}
	if names := f.SystemNames(); len(names) != 1 || names[0] != "STARTUP" {
		t.Errorf("SystemNames() = %v", names)
	}
}
