// Package power reads the battery and solar panel voltages through the ADC
// and their voltage dividers.
package power

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ADC reference and resolution of the node's converter (12-bit, 1.1V range).
const (
	ADCMaxVoltage = 1.1
	ADCMaxValue   = 1 << 12
)

// Default divider multipliers.
const (
	DefaultBatteryMultiplier = 4.3
	DefaultSolarMultiplier   = 7.8
)

// ADC reads raw samples from numbered channels.
type ADC interface {
	Read(channel int) (int, error)
}

// Voltage converts a raw ADC sample to the voltage in front of a divider
// with the given multiplier.
func Voltage(raw int, multiplier float64) float64 {
	return float64(raw) * ADCMaxVoltage * multiplier / ADCMaxValue
}

// Channel is one ADC input behind a voltage divider.
type Channel struct {
	Name       string
	Index      int
	Multiplier float64
}

// Read samples the channel and returns the scaled voltage.
func (c Channel) Read(adc ADC) (float64, error) {
	raw, err := adc.Read(c.Index)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", c.Name, err)
	}
	return Voltage(raw, c.Multiplier), nil
}

// IIOADC reads a Linux Industrial I/O device through sysfs, e.g.
// /sys/bus/iio/devices/iio:device0.
type IIOADC struct {
	Dir string
}

// Read returns in_voltage<channel>_raw.
func (a IIOADC) Read(channel int) (int, error) {
	path := filepath.Join(a.Dir, fmt.Sprintf("in_voltage%d_raw", channel))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("iio channel %d: %w", channel, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("iio channel %d: parse %q: %w", channel, data, err)
	}
	return v, nil
}

// FakeADC returns fixed raw values per channel.
type FakeADC struct {
	Values map[int]int
	Err    error
}

// Read returns the configured value for channel.
func (f *FakeADC) Read(channel int) (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	v, ok := f.Values[channel]
	if !ok {
		return 0, fmt.Errorf("channel %d not configured", channel)
	}
	return v, nil
}
