package hass

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angas/otesensor-go/sensor"
	"github.com/angas/otesensor-go/types"
	"github.com/angas/otesensor-go/types/maybe"
)

func TestNewTopics(t *testing.T) {
	topics := NewTopics("homeassistant", "otesensor", "ote_energy_cost")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"Config", topics.Config, "homeassistant/sensor/ote_energy_cost/config"},
		{"State", topics.State, "otesensor/ote_energy_cost/state"},
		{"Attributes", topics.Attributes, "otesensor/ote_energy_cost/attributes"},
		{"Availability", topics.Availability, "otesensor/ote_energy_cost/availability"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.got)
			}
		})
	}
}

func TestDiscoveryMessage(t *testing.T) {
	topics := NewTopics("homeassistant", "otesensor", "ote_energy_cost")
	msg, err := DiscoveryMessage(topics, "Current OTE Energy Cost", "ote_energy_cost", "1.2.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Topic != topics.Config {
		t.Errorf("expected topic %q, got %q", topics.Config, msg.Topic)
	}
	if !msg.Retain {
		t.Errorf("expected discovery config to be retained")
	}

	var payload map[string]any
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}

	expected := map[string]any{
		"name":                  "Current OTE Energy Cost",
		"unique_id":             "ote_energy_cost",
		"device_class":          "monetary",
		"unit_of_measurement":   "EUR/MWh",
		"state_topic":           topics.State,
		"json_attributes_topic": topics.Attributes,
		"availability_topic":    topics.Availability,
		"payload_available":     "online",
		"payload_not_available": "offline",
	}
	for k, v := range expected {
		if payload[k] != v {
			t.Errorf("expected %s=%v, got %v", k, v, payload[k])
		}
	}

	device, ok := payload["device"].(map[string]any)
	if !ok {
		t.Fatalf("expected device object, got %v", payload["device"])
	}
	if device["sw_version"] != "1.2.3" {
		t.Errorf("expected sw_version 1.2.3, got %v", device["sw_version"])
	}
}

func TestStateMessages(t *testing.T) {
	topics := NewTopics("homeassistant", "otesensor", "ote_energy_cost")

	t.Run("Available", func(t *testing.T) {
		state := sensor.State{
			Value:      maybe.Some(40.5),
			Available:  true,
			Attributes: types.HourPriceCurve{0: 40.5, 1: 38.0, 24: 42.0},
			ResolvedAt: time.Now(),
		}

		msgs, err := StateMessages(topics, state)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(msgs))
		}

		if msgs[0].Topic != topics.State || string(msgs[0].Payload) != "40.5" {
			t.Errorf("expected state 40.5 on %s, got %q on %s", topics.State, msgs[0].Payload, msgs[0].Topic)
		}
		if msgs[1].Topic != topics.Attributes || string(msgs[1].Payload) != `{"0":40.5,"1":38,"24":42}` {
			t.Errorf("unexpected attributes %q on %s", msgs[1].Payload, msgs[1].Topic)
		}
		if msgs[2].Topic != topics.Availability || string(msgs[2].Payload) != PayloadOnline {
			t.Errorf("expected online, got %q", msgs[2].Payload)
		}
		for _, m := range msgs {
			if !m.Retain {
				t.Errorf("expected %s to be retained", m.Topic)
			}
		}
	})

	t.Run("StaleValue", func(t *testing.T) {
		state := sensor.State{
			Value:      maybe.Some(40.5),
			Available:  false,
			Attributes: types.HourPriceCurve{0: 40.5},
			Error:      errors.New("boom"),
		}

		msgs, err := StateMessages(topics, state)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(msgs))
		}
		if string(msgs[0].Payload) != "40.5" {
			t.Errorf("expected stale value 40.5, got %q", msgs[0].Payload)
		}
		if string(msgs[2].Payload) != PayloadOffline {
			t.Errorf("expected offline, got %q", msgs[2].Payload)
		}
	})

	t.Run("NoReading", func(t *testing.T) {
		state := sensor.State{Value: maybe.None[float64](), Available: false}

		msgs, err := StateMessages(topics, state)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 1 {
			t.Fatalf("expected only availability, got %d messages", len(msgs))
		}
		if msgs[0].Topic != topics.Availability || string(msgs[0].Payload) != PayloadOffline {
			t.Errorf("expected offline on %s, got %q on %s", topics.Availability, msgs[0].Payload, msgs[0].Topic)
		}
	})
}
