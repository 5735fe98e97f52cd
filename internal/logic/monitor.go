package logic

import "time"

// Monitor tracks sensor health and detects debounced transitions.
type Monitor struct {
	debounceDuration time.Duration
	health           ChannelState
	startTime        time.Time
	counts           ReadCounts
	lastHeartbeat    time.Time
}

// NewMonitor creates a new health monitor with the given debounce duration.
// The startTime is used for calculating uptime in heartbeat events.
func NewMonitor(debounceDuration time.Duration, startTime time.Time) *Monitor {
	return &Monitor{
		debounceDuration: debounceDuration,
		startTime:        startTime,
		lastHeartbeat:    startTime,
	}
}

// Process takes the outcome of a read and returns any events that should be
// emitted. Events are only returned after baseline is established and on
// health transitions.
func (m *Monitor) Process(input Input) []Event {
	m.count(input)

	state := HealthOK
	if input.Failure != FailureNone {
		state = HealthFault
	}

	wasBaselined := m.health.Baselined
	transition := m.processChannel(&m.health, state, input.Time)
	if !wasBaselined || transition == nil {
		return nil
	}

	return []Event{{
		Timestamp: input.Time,
		Type:      *transition,
		Health:    m.health.Stable,
		Counts:    m.counts,
	}}
}

func (m *Monitor) count(input Input) {
	m.counts.Reads++
	m.counts.AckMismatches += input.AckMismatches
	if input.Failure == FailureNone {
		return
	}
	m.counts.Failures++
	switch input.Failure {
	case FailureTimeout:
		m.counts.Timeouts++
	case FailureAck:
		m.counts.AckFailures++
	default:
		m.counts.IOErrors++
	}
}

// processChannel handles debounce logic for the health signal.
// Returns the event type if a transition occurred, nil otherwise.
func (m *Monitor) processChannel(ch *ChannelState, newState Health, now time.Time) *EventType {
	// First observation
	if !ch.Baselined {
		if ch.Pending == "" || ch.Pending != newState {
			// Start observing, or state changed during baseline: restart
			ch.Pending = newState
			ch.PendingSince = now
		}

		if now.Sub(ch.PendingSince) >= m.debounceDuration {
			ch.Stable = newState
			ch.Baselined = true
			ch.Pending = ""
		}
		return nil
	}

	// Already baselined - detect transitions
	if newState == ch.Stable {
		// No change from stable state, clear any pending
		ch.Pending = ""
		return nil
	}

	// State differs from stable
	if ch.Pending != newState {
		// New pending state
		ch.Pending = newState
		ch.PendingSince = now
	}

	if now.Sub(ch.PendingSince) >= m.debounceDuration {
		ch.Stable = newState
		ch.Pending = ""
		event := EventSensorOK
		if newState == HealthFault {
			event = EventSensorFault
		}
		return &event
	}

	return nil
}

// IsBaselined returns whether the monitor has established a baseline.
func (m *Monitor) IsBaselined() bool {
	return m.health.Baselined
}

// CurrentHealth returns the current stable health. It is empty until the
// baseline is established.
func (m *Monitor) CurrentHealth() Health {
	return m.health.Stable
}

// CountsSnapshot returns the read counters.
func (m *Monitor) CountsSnapshot() ReadCounts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}
