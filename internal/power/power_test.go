package power

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestVoltage(t *testing.T) {
	tests := []struct {
		raw  int
		mult float64
		want float64
	}{
		{0, DefaultBatteryMultiplier, 0},
		{4096, 1, 1.1},
		{4096, DefaultBatteryMultiplier, 4.73},
		{2048, DefaultSolarMultiplier, 4.29},
		{3000, DefaultBatteryMultiplier, 3000 * 1.1 * 4.3 / 4096},
	}

	for _, tt := range tests {
		got := Voltage(tt.raw, tt.mult)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Voltage(%d, %v): got %v, want %v", tt.raw, tt.mult, got, tt.want)
		}
	}
}

func TestChannelRead(t *testing.T) {
	adc := &FakeADC{Values: map[int]int{0: 4096, 3: 2048}}
	bat := Channel{Name: "battery", Index: 0, Multiplier: DefaultBatteryMultiplier}
	sol := Channel{Name: "solar", Index: 3, Multiplier: DefaultSolarMultiplier}

	v, err := bat.Read(adc)
	if err != nil {
		t.Fatalf("battery: %v", err)
	}
	if math.Abs(v-4.73) > 1e-9 {
		t.Errorf("battery: got %v, want 4.73", v)
	}

	v, err = sol.Read(adc)
	if err != nil {
		t.Fatalf("solar: %v", err)
	}
	if math.Abs(v-4.29) > 1e-9 {
		t.Errorf("solar: got %v, want 4.29", v)
	}
}

func TestChannelReadError(t *testing.T) {
	adc := &FakeADC{Err: errors.New("adc offline")}
	_, err := Channel{Name: "battery"}.Read(adc)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "read battery: adc offline" {
		t.Errorf("unexpected error: %v", err)
	}

	_, err = Channel{Name: "solar", Index: 9}.Read(&FakeADC{})
	if err == nil {
		t.Error("expected error for unconfigured channel")
	}
}

func TestIIOADC(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in_voltage0_raw"), []byte("1234\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "in_voltage1_raw"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	adc := IIOADC{Dir: dir}

	v, err := adc.Read(0)
	if err != nil {
		t.Fatalf("channel 0: %v", err)
	}
	if v != 1234 {
		t.Errorf("channel 0: got %d, want 1234", v)
	}

	if _, err := adc.Read(1); err == nil {
		t.Error("channel 1: expected parse error")
	}
	if _, err := adc.Read(2); err == nil {
		t.Error("channel 2: expected missing file error")
	}
}
