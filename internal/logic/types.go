// Package logic contains pure business logic for sensor health tracking and
// the telemetry data model.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Health represents the debounced health of the sensor.
type Health string

const (
	HealthOK    Health = "OK"
	HealthFault Health = "FAULT"
)

// EventType represents a health transition event.
type EventType string

const (
	EventSensorOK    EventType = "SENSOR_OK"
	EventSensorFault EventType = "SENSOR_FAULT"
)

// Failure classifies a failed sensor read.
type Failure int

const (
	FailureNone    Failure = iota
	FailureTimeout         // sensor never signalled the end of conversion
	FailureAck             // strict acknowledge check failed the read
	FailureIO              // GPIO line error
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureTimeout:
		return "timeout"
	case FailureAck:
		return "ack"
	default:
		return "io"
	}
}

// Input is the outcome of one sensor read.
type Input struct {
	Failure       Failure
	AckMismatches int // tolerated mismatches seen during the read
	Time          time.Time
}

// Event represents a health transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Health    Health
	Counts    ReadCounts
}

// ChannelState tracks debounce state for the health signal.
type ChannelState struct {
	// Current stable (debounced) state
	Stable Health
	// Pending state during debounce
	Pending Health
	// Time when pending state was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// ReadCounts tracks sensor read outcomes since startup.
type ReadCounts struct {
	Reads         int
	Failures      int
	Timeouts      int
	AckFailures   int
	IOErrors      int
	AckMismatches int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    ReadCounts
}

// SensorValues are the calibrated values of one successful read.
type SensorValues struct {
	TemperatureC float64
	HumidityPct  float64
	DewPointC    *float64 // nil when humidity <= 0
}

// Measurement is one telemetry sample.
type Measurement struct {
	Timestamp   time.Time
	Uptime      time.Duration
	BatteryV    float64
	SolarV      float64
	PowerError  string
	Sensor      *SensorValues // nil when the sensor read failed
	SensorError string
}
