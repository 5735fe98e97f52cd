package logic

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(s int) time.Time {
	return t0.Add(time.Duration(s) * time.Second)
}

func ok(s int) Input {
	return Input{Time: at(s)}
}

func fail(s int, f Failure) Input {
	return Input{Time: at(s), Failure: f}
}

func TestNewMonitor(t *testing.T) {
	m := NewMonitor(30*time.Second, t0)
	if m == nil {
		t.Fatal("NewMonitor returned nil")
	}
	if m.debounceDuration != 30*time.Second {
		t.Errorf("expected debounce duration 30s, got %v", m.debounceDuration)
	}
	if m.IsBaselined() {
		t.Error("new monitor should not be baselined")
	}
	if m.CurrentHealth() != "" {
		t.Errorf("expected empty health before baseline, got %q", m.CurrentHealth())
	}
	if !m.lastHeartbeat.Equal(t0) {
		t.Errorf("expected lastHeartbeat %v, got %v", t0, m.lastHeartbeat)
	}
}

func TestBaselineEstablishment(t *testing.T) {
	m := NewMonitor(30*time.Second, t0)

	for _, s := range []int{0, 10, 20} {
		if events := m.Process(ok(s)); len(events) != 0 {
			t.Errorf("t=%ds: expected no events during baseline, got %d", s, len(events))
		}
		if m.IsBaselined() {
			t.Errorf("t=%ds: should not be baselined before debounce period", s)
		}
	}

	if events := m.Process(ok(30)); len(events) != 0 {
		t.Errorf("expected no events at baseline establishment, got %d", len(events))
	}
	if !m.IsBaselined() {
		t.Error("should be baselined after debounce period")
	}
	if m.CurrentHealth() != HealthOK {
		t.Errorf("expected OK, got %s", m.CurrentHealth())
	}
}

func TestBaselineFaulty(t *testing.T) {
	m := NewMonitor(20*time.Second, t0)

	m.Process(fail(0, FailureTimeout))
	m.Process(fail(10, FailureTimeout))
	events := m.Process(fail(20, FailureTimeout))

	if len(events) != 0 {
		t.Errorf("a faulty baseline emits nothing, got %d events", len(events))
	}
	if m.CurrentHealth() != HealthFault {
		t.Errorf("expected FAULT baseline, got %s", m.CurrentHealth())
	}
}

func TestBaselineResetOnChange(t *testing.T) {
	m := NewMonitor(30*time.Second, t0)

	m.Process(ok(0))
	m.Process(fail(10, FailureIO))
	m.Process(fail(30, FailureIO))
	if m.IsBaselined() {
		t.Error("should not be baselined: state changed at 10s")
	}

	m.Process(fail(40, FailureIO))
	if !m.IsBaselined() || m.CurrentHealth() != HealthFault {
		t.Errorf("expected FAULT baseline at 40s, got baselined=%v health=%s", m.IsBaselined(), m.CurrentHealth())
	}
}

func TestFaultTransition(t *testing.T) {
	m := NewMonitor(30*time.Second, t0)
	for s := 0; s <= 30; s += 10 {
		m.Process(ok(s))
	}

	for _, s := range []int{40, 50, 60} {
		if events := m.Process(fail(s, FailureTimeout)); len(events) != 0 {
			t.Fatalf("t=%ds: fault not yet debounced, got %d events", s, len(events))
		}
	}

	events := m.Process(fail(70, FailureTimeout))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Type != EventSensorFault {
		t.Errorf("expected SENSOR_FAULT, got %s", e.Type)
	}
	if e.Health != HealthFault {
		t.Errorf("expected health FAULT, got %s", e.Health)
	}
	if !e.Timestamp.Equal(at(70)) {
		t.Errorf("expected timestamp %v, got %v", at(70), e.Timestamp)
	}
	if e.Counts.Timeouts != 4 || e.Counts.Failures != 4 || e.Counts.Reads != 8 {
		t.Errorf("unexpected counts: %+v", e.Counts)
	}

	// Recovery
	m.Process(ok(80))
	m.Process(ok(90))
	m.Process(ok(100))
	events = m.Process(ok(110))
	if len(events) != 1 || events[0].Type != EventSensorOK {
		t.Fatalf("expected SENSOR_OK, got %+v", events)
	}
}

func TestGlitchIgnored(t *testing.T) {
	m := NewMonitor(30*time.Second, t0)
	for s := 0; s <= 30; s += 10 {
		m.Process(ok(s))
	}

	m.Process(fail(40, FailureAck))
	m.Process(ok(50))
	m.Process(fail(60, FailureAck))
	events := m.Process(fail(80, FailureAck))

	if len(events) != 0 {
		t.Errorf("single failures separated by a success must not trip the monitor, got %d events", len(events))
	}
	if m.CurrentHealth() != HealthOK {
		t.Errorf("expected OK, got %s", m.CurrentHealth())
	}
}

func TestZeroDebounce(t *testing.T) {
	m := NewMonitor(0, t0)

	m.Process(ok(0))
	if !m.IsBaselined() {
		t.Fatal("zero debounce baselines on the first read")
	}

	events := m.Process(fail(1, FailureIO))
	if len(events) != 1 || events[0].Type != EventSensorFault {
		t.Fatalf("expected immediate SENSOR_FAULT, got %+v", events)
	}
}

func TestCounts(t *testing.T) {
	m := NewMonitor(time.Minute, t0)

	m.Process(Input{Time: at(0), AckMismatches: 2})
	m.Process(fail(1, FailureTimeout))
	m.Process(fail(2, FailureAck))
	m.Process(fail(3, FailureIO))
	m.Process(Input{Time: at(4), Failure: FailureTimeout, AckMismatches: 1})

	want := ReadCounts{
		Reads:         5,
		Failures:      4,
		Timeouts:      2,
		AckFailures:   1,
		IOErrors:      1,
		AckMismatches: 3,
	}
	if got := m.CountsSnapshot(); got != want {
		t.Errorf("counts: got %+v, want %+v", got, want)
	}
}

func TestCheckHeartbeat(t *testing.T) {
	m := NewMonitor(time.Second, t0)
	m.Process(ok(0))

	if hb := m.CheckHeartbeat(at(0), 0); hb != nil {
		t.Error("heartbeat should be disabled with interval 0")
	}
	if hb := m.CheckHeartbeat(at(599), 10*time.Minute); hb != nil {
		t.Error("heartbeat should not fire before the interval")
	}

	hb := m.CheckHeartbeat(at(600), 10*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at 10m")
	}
	if hb.Uptime != 10*time.Minute {
		t.Errorf("uptime: got %v, want 10m", hb.Uptime)
	}
	if hb.Counts.Reads != 1 {
		t.Errorf("counts.Reads: got %d, want 1", hb.Counts.Reads)
	}

	if hb := m.CheckHeartbeat(at(601), 10*time.Minute); hb != nil {
		t.Error("heartbeat should reset after firing")
	}
}

func TestFailureString(t *testing.T) {
	tests := map[Failure]string{
		FailureNone:    "none",
		FailureTimeout: "timeout",
		FailureAck:     "ack",
		FailureIO:      "io",
	}
	for f, want := range tests {
		if f.String() != want {
			t.Errorf("Failure(%d).String(): got %q, want %q", f, f.String(), want)
		}
	}
}
