// Package status provides a thread-safe status tracker for the sht1x-node daemon.
// It is read by the HTTP handlers and by the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/sht1x-node/internal/logic"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	IntervalMs  int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	ClientID    string
	HTTPAddr    string
	GPIOBackend string
	PinClock    int
	PinData     int
	StrictAck   bool
	Profile     string // empty = built-in coefficients
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Health        logic.Health
	Baselined     bool
	Counts        logic.ReadCounts
	Last          *logic.Measurement
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Buffered      int
	Dropped       int
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the health state, baseline status, and read counters.
// Called from runLoop on every tick.
func (t *Tracker) Update(health logic.Health, baselined bool, counts logic.ReadCounts) {
	t.mu.Lock()
	t.snap.Health = health
	t.snap.Baselined = baselined
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMeasurement records the latest telemetry sample.
func (t *Tracker) SetMeasurement(m logic.Measurement) {
	if m.Sensor != nil {
		sv := *m.Sensor
		m.Sensor = &sv
	}
	t.mu.Lock()
	t.snap.Last = &m
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status and the number of
// messages waiting in the offline buffer.
func (t *Tracker) SetMQTTConnected(connected bool, buffered int) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.snap.Buffered = buffered
	t.mu.Unlock()
}

// SetMQTTDropped records how many offline messages were lost to overflow.
func (t *Tracker) SetMQTTDropped(dropped int) {
	t.mu.Lock()
	t.snap.Dropped = dropped
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
