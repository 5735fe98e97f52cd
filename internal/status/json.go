package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Health        string       `json:"health"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Reading       *ReadingJSON `json:"last_reading,omitempty"`
	Counts        CountsJSON   `json:"read_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Buffered  int    `json:"buffered"`
	Dropped   int    `json:"dropped,omitempty"`
}

// ReadingJSON is the latest telemetry sample.
type ReadingJSON struct {
	Timestamp    string   `json:"timestamp"`
	BatteryV     float64  `json:"battery_v"`
	SolarV       float64  `json:"solar_v"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`
	HumidityPct  *float64 `json:"humidity_pct,omitempty"`
	DewPointC    *float64 `json:"dew_point_c,omitempty"`
	SensorError  string   `json:"sensor_error,omitempty"`
	PowerError   string   `json:"power_error,omitempty"`
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

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	IntervalMs  int64  `json:"interval_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	HTTPAddr    string `json:"http_addr"`
	GPIOBackend string `json:"gpio_backend"`
	PinClock    int    `json:"pin_clock"`
	PinData     int    `json:"pin_data"`
	StrictAck   bool   `json:"strict_ack"`
	Profile     string `json:"profile,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	health := string(snap.Health)
	if health == "" {
		health = "UNKNOWN"
	}

	c := snap.Counts
	return StatusInner{
		Health:        health,
		Ready:         snap.Baselined,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Buffered:  snap.Buffered,
			Dropped:   snap.Dropped,
		},
		Counts: CountsJSON{
			Reads:         c.Reads,
			Failures:      c.Failures,
			Timeouts:      c.Timeouts,
			AckFailures:   c.AckFailures,
			IOErrors:      c.IOErrors,
			AckMismatches: c.AckMismatches,
		},
		Config: ConfigJSON{
			IntervalMs:  snap.Config.IntervalMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			ClientID:    snap.Config.ClientID,
			HTTPAddr:    snap.Config.HTTPAddr,
			GPIOBackend: snap.Config.GPIOBackend,
			PinClock:    snap.Config.PinClock,
			PinData:     snap.Config.PinData,
			StrictAck:   snap.Config.StrictAck,
			Profile:     snap.Config.Profile,
		},
	}
}

func buildReading(snap Snapshot, inner *StatusInner) {
	m := snap.Last
	if m == nil {
		return
	}
	r := &ReadingJSON{
		Timestamp:   m.Timestamp.UTC().Format(time.RFC3339),
		BatteryV:    round(m.BatteryV, 3),
		SolarV:      round(m.SolarV, 3),
		SensorError: m.SensorError,
		PowerError:  m.PowerError,
	}
	if s := m.Sensor; s != nil {
		t := round(s.TemperatureC, 2)
		h := s.HumidityPct
		r.TemperatureC = &t
		r.HumidityPct = &h
		if s.DewPointC != nil {
			dp := round(*s.DewPointC, 2)
			r.DewPointC = &dp
		}
	}
	inner.Reading = r
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildReading(snap, &inner)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildReading(snap, &inner)
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
