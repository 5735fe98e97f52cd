package mqtt

import (
	"github.com/sweeney/sht1x-node/internal/logic"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Telemetry contains all measurements that were published.
	Telemetry []logic.Measurement

	// TelemetryPayloads contains the JSON payloads for measurements.
	TelemetryPayloads [][]byte

	// Events contains all health events that were published.
	Events []logic.Event

	// EventPayloads contains the JSON payloads for health events.
	EventPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishTelemetry and PublishEvent.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishTelemetry records the measurement.
func (f *FakePublisher) PublishTelemetry(m logic.Measurement) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatTelemetry(m)
	if err != nil {
		return err
	}
	f.Telemetry = append(f.Telemetry, m)
	f.TelemetryPayloads = append(f.TelemetryPayloads, payload)

	return nil
}

// PublishEvent records the health event.
func (f *FakePublisher) PublishEvent(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatEvent(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.EventPayloads = append(f.EventPayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Telemetry = nil
	f.TelemetryPayloads = nil
	f.Events = nil
	f.EventPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
