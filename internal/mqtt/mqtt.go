// Package mqtt provides telemetry publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/sht1x-node/internal/logic"
)

// TopicPrefix is the root of every topic this node publishes on.
const TopicPrefix = "sensors/sht1x"

// Topics are the MQTT topics for one node.
type Topics struct {
	Telemetry string
	Events    string
	System    string
}

// TopicsFor returns the topics for the node with the given client ID.
func TopicsFor(clientID string) Topics {
	base := TopicPrefix + "/" + clientID
	return Topics{
		Telemetry: base + "/telemetry",
		Events:    base + "/events",
		System:    base + "/system",
	}
}

// Publisher publishes node messages to MQTT.
type Publisher interface {
	// PublishTelemetry sends a measurement to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishTelemetry(m logic.Measurement) error

	// PublishEvent sends a sensor health event to the broker.
	PublishEvent(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// TelemetryPayload represents the MQTT message payload for a measurement.
type TelemetryPayload struct {
	Telemetry TelemetryInner `json:"telemetry"`
}

// TelemetryInner contains the measurement details.
type TelemetryInner struct {
	Timestamp   string      `json:"timestamp"`
	BatteryV    float64     `json:"battery_v"`
	SolarV      float64     `json:"solar_v"`
	UptimeMs    int64       `json:"uptime_ms"`
	PowerError  string      `json:"power_error,omitempty"`
	Sensor      *SensorJSON `json:"sensor,omitempty"`
	SensorError string      `json:"sensor_error,omitempty"`
}

// SensorJSON is the JSON representation of calibrated sensor values.
type SensorJSON struct {
	TemperatureC float64  `json:"temperature_c"`
	HumidityPct  float64  `json:"humidity_pct"`
	DewPointC    *float64 `json:"dew_point_c,omitempty"`
}

// FormatTelemetry creates the JSON payload for a measurement. Voltages are
// reported to the millivolt, temperatures to a hundredth of a degree.
func FormatTelemetry(m logic.Measurement) ([]byte, error) {
	inner := TelemetryInner{
		Timestamp:   m.Timestamp.UTC().Format(time.RFC3339),
		BatteryV:    round(m.BatteryV, 3),
		SolarV:      round(m.SolarV, 3),
		UptimeMs:    m.Uptime.Milliseconds(),
		PowerError:  m.PowerError,
		SensorError: m.SensorError,
	}
	if m.Sensor != nil {
		inner.Sensor = &SensorJSON{
			TemperatureC: round(m.Sensor.TemperatureC, 2),
			HumidityPct:  m.Sensor.HumidityPct,
		}
		if m.Sensor.DewPointC != nil {
			dp := round(*m.Sensor.DewPointC, 2)
			inner.Sensor.DewPointC = &dp
		}
	}
	return json.Marshal(TelemetryPayload{Telemetry: inner})
}

// EventPayload represents the MQTT message payload for a health event.
type EventPayload struct {
	Sensor EventInner `json:"sensor"`
}

// EventInner contains the health event details.
type EventInner struct {
	Timestamp string     `json:"timestamp"`
	Event     string     `json:"event"`
	Health    string     `json:"health"`
	Counts    CountsJSON `json:"counts"`
}

// CountsJSON is the JSON representation of read counters.
type CountsJSON struct {
	Reads         int `json:"reads"`
	Failures      int `json:"failures"`
	Timeouts      int `json:"timeouts"`
	AckFailures   int `json:"ack_failures"`
	IOErrors      int `json:"io_errors"`
	AckMismatches int `json:"ack_mismatches"`
}

// CountsToJSON converts read counters for a payload.
func CountsToJSON(c logic.ReadCounts) CountsJSON {
	return CountsJSON{
		Reads:         c.Reads,
		Failures:      c.Failures,
		Timeouts:      c.Timeouts,
		AckFailures:   c.AckFailures,
		IOErrors:      c.IOErrors,
		AckMismatches: c.AckMismatches,
	}
}

// FormatEvent creates the JSON payload for a health event.
func FormatEvent(event logic.Event) ([]byte, error) {
	payload := EventPayload{
		Sensor: EventInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Health:    string(event.Health),
			Counts:    CountsToJSON(event.Counts),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillEvent is the last-will message the broker publishes if the node drops
// off without a clean shutdown.
func WillEvent(now time.Time) SystemEvent {
	return SystemEvent{
		Timestamp: now,
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
		Retained:  true,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
