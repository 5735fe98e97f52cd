package sht1x

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/sht1x-node/internal/gpio"
)

// response scripts what the sensor drives on the data line for one command:
// both acknowledges, readyAfter busy polls, then the 16 data bits.
func response(ack1, ack2 gpio.Level, readyAfter int, raw uint16) []gpio.Level {
	s := []gpio.Level{ack1, ack2}
	for i := 0; i < readyAfter; i++ {
		s = append(s, gpio.High)
	}
	s = append(s, gpio.Low)
	return append(s, bits(raw)...)
}

func okResponse(readyAfter int, raw uint16) []gpio.Level {
	return response(gpio.Low, gpio.High, readyAfter, raw)
}

func newTestDriver(b *bus, opts Options) (*Driver, *test.Hook) {
	logger, hook := test.NewNullLogger()
	opts.Sleeper = b.sleep
	opts.Logger = logger
	return New(b.clock, b.data, opts), hook
}

func TestNewDefaults(t *testing.T) {
	d := New(gpio.NewFakeLine("clk", nil), gpio.NewFakeLine("data", nil), Options{})

	assert.Equal(t, DefaultProfile, d.Profile())
	assert.Equal(t, DefaultPulseDelay, d.pulseDelay)
	assert.Equal(t, DefaultPollInterval, d.pollInterval)
	assert.Equal(t, DefaultPollAttempts, d.pollAttempts)
	assert.Equal(t, AckLenient, d.policy)
	assert.NotNil(t, d.sleep)
	assert.NotNil(t, d.log)
}

func TestReadTemperature(t *testing.T) {
	b := newBus(okResponse(30, 6400)...)
	d, hook := newTestDriver(b, Options{})

	temp, err := d.ReadTemperature()

	require.NoError(t, err)
	assert.InDelta(t, 24.4, temp, 1e-9)
	assert.Empty(t, hook.AllEntries())
	// acks + 31 polls + 16 bits
	assert.Equal(t, 2+31+16, b.data.Reads())
}

func TestReadTemperatureCustomProfile(t *testing.T) {
	b := newBus(okResponse(0, 6400)...)
	p := DefaultProfile
	p.D1 = -40.1
	d, _ := newTestDriver(b, Options{Profile: p})

	temp, err := d.ReadTemperature()

	require.NoError(t, err)
	assert.InDelta(t, 23.9, temp, 1e-9)
}

func TestNewFillsPartialProfile(t *testing.T) {
	b := newBus(okResponse(0, 6400)...)
	d, _ := newTestDriver(b, Options{Profile: Profile{D1: -40}})

	assert.Equal(t, DefaultProfile.D2, d.Profile().D2)
	temp, err := d.ReadTemperature()
	require.NoError(t, err)
	assert.InDelta(t, 24.0, temp, 1e-9)
}

func TestReadHumidityTakesFreshTemperature(t *testing.T) {
	samples := append(okResponse(5, 1000), okResponse(7, 1000)...)
	b := newBus(samples...)
	d, _ := newTestDriver(b, Options{})

	// raw temperature 1000 -> -29.6°C
	h, err := d.ReadHumidity()

	require.NoError(t, err)
	assert.InDelta(t, DefaultProfile.Humidity(1000, DefaultProfile.Temperature(1000)), h, 1e-9)

	assert.Equal(t, []byte{CmdMeasureTemperature, CmdMeasureHumidity}, sentCommands(b.rec.Ops))
}

// sentCommands decodes the command bytes that follow each transmission start
// sequence in ops.
func sentCommands(ops []gpio.Op) []byte {
	start := commandOps(0, gpio.Low, gpio.High)[:9]
	var cmds []byte
	for i := 0; i+len(start)+24 <= len(ops); i++ {
		match := true
		for j := range start {
			if ops[i+j] != start[j] {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		var cmd byte
		for bit := 0; bit < 8; bit++ {
			cmd = cmd<<1 | byte(ops[i+len(start)+3*bit].Value)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func TestMeasure(t *testing.T) {
	// 6400 -> 24.4°C; humidity raw 1500 at 24.4°C
	samples := append(okResponse(20, 6400), okResponse(40, 1500)...)
	b := newBus(samples...)
	d, _ := newTestDriver(b, Options{})

	m, err := d.Measure()

	require.NoError(t, err)
	assert.InDelta(t, 24.4, m.Temperature, 1e-9)
	assert.InDelta(t, DefaultProfile.Humidity(1500, m.Temperature), m.Humidity, 1e-9)
	require.True(t, m.HasDewPoint)
	dp, _ := DewPoint(m.Temperature, m.Humidity)
	assert.InDelta(t, dp, m.DewPoint, 1e-9)

	assert.Equal(t, 2*(2+16)+21+41, b.data.Reads())
}

func TestMeasureNoDewPointForZeroHumidity(t *testing.T) {
	// raw humidity 0 at 24.4°C gives a negative linear value
	samples := append(okResponse(0, 6400), okResponse(0, 0)...)
	b := newBus(samples...)
	d, _ := newTestDriver(b, Options{})

	m, err := d.Measure()

	require.NoError(t, err)
	assert.LessOrEqual(t, m.Humidity, 0.0)
	assert.False(t, m.HasDewPoint)
}

func TestReadTimeout(t *testing.T) {
	b := newBus(gpio.Low, gpio.High, gpio.High)
	d, _ := newTestDriver(b, Options{})

	_, err := d.ReadTemperature()

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.True(t, errors.Is(err, ErrSensorTimeout))
	assert.False(t, IsAckMismatch(err))
	assert.Equal(t, 2+DefaultPollAttempts, b.data.Reads())
	assert.Contains(t, err.Error(), "read temperature")
}

func TestMeasureTimeoutOnHumidity(t *testing.T) {
	samples := append(okResponse(0, 6400), gpio.Low, gpio.High, gpio.High)
	b := newBus(samples...)
	d, _ := newTestDriver(b, Options{PollAttempts: 5})

	_, err := d.Measure()

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "read humidity")
}

func TestAckMismatchLenient(t *testing.T) {
	b := newBus(response(gpio.High, gpio.High, 3, 6400)...)
	var seen []*AckError
	d, hook := newTestDriver(b, Options{OnAckMismatch: func(e *AckError) { seen = append(seen, e) }})

	temp, err := d.ReadTemperature()

	require.NoError(t, err, "lenient policy keeps reading")
	assert.InDelta(t, 24.4, temp, 1e-9)

	require.Len(t, seen, 1)
	assert.Equal(t, 1, seen[0].Ack)
	assert.Equal(t, CmdMeasureTemperature, seen[0].Command)
	assert.Equal(t, gpio.High, seen[0].Got)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "0x03", entry.Data["command"])
	assert.Equal(t, 1, entry.Data["ack"])
}

func TestAckMismatchStrict(t *testing.T) {
	b := newBus(response(gpio.Low, gpio.Low, 0, 6400)...)
	d, hook := newTestDriver(b, Options{AckPolicy: AckStrict})

	_, err := d.ReadTemperature()

	require.Error(t, err)
	assert.True(t, IsAckMismatch(err))
	assert.False(t, IsTimeout(err))

	var ackErr *AckError
	require.True(t, errors.As(err, &ackErr))
	assert.Equal(t, 2, ackErr.Ack)
	assert.True(t, ackErr.Temporary())

	assert.Len(t, hook.AllEntries(), 1)
	// aborted before polling; the interface was reset
	assert.Equal(t, 2, b.data.Reads())
	assert.Equal(t, gpio.Output, b.data.Direction())
	assert.Equal(t, gpio.High, b.data.Level())
}

func TestLineErrorIsNotTimeout(t *testing.T) {
	b := newBus(okResponse(0, 6400)...)
	b.data.ReadError = errors.New("bus fault")
	d, _ := newTestDriver(b, Options{})

	_, err := d.Measure()

	require.Error(t, err)
	assert.False(t, IsTimeout(err))
	assert.False(t, IsAckMismatch(err))
	assert.Contains(t, err.Error(), "bus fault")
}

func TestReset(t *testing.T) {
	b := newBus()
	d, _ := newTestDriver(b, Options{})

	require.NoError(t, d.Reset())
	assert.Equal(t, 2*resetPulses, b.rec.Count("clk", gpio.OpWrite))
	assert.Equal(t, 2*resetPulses, b.sleep.count(DefaultPulseDelay))
}

func TestResetError(t *testing.T) {
	b := newBus()
	b.clock.WriteError = errors.New("clock stuck")
	d, _ := newTestDriver(b, Options{})

	err := d.Reset()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
