// Package sht1x reads temperature and relative humidity from a Sensirion
// SHT1x sensor over its two-wire (clock + data) interface, bit-banged on two
// GPIO lines.
//
// Each read is a single electrical transaction: a command byte framed by the
// transmission start sequence, a poll for the end of the conversion, and a
// 16-bit shift-in. A Driver serialises transactions; once a command is on the
// wire the transaction runs until the data is read or the sensor times out.
package sht1x

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/sht1x-node/internal/gpio"
)

// Sensor commands.
const (
	CmdMeasureTemperature byte = 0b00000011
	CmdMeasureHumidity    byte = 0b00000101
)

// Protocol timing defaults.
const (
	DefaultPulseDelay   = time.Microsecond
	DefaultPollInterval = 10 * time.Millisecond
	DefaultPollAttempts = 100

	resetPulses = 10
)

// AckPolicy selects what happens when an acknowledge bit has the wrong level.
type AckPolicy int

const (
	// AckLenient reports the mismatch and carries on with the read.
	AckLenient AckPolicy = iota
	// AckStrict reports the mismatch, resets the interface and fails the read
	// with an *AckError.
	AckStrict
)

func (p AckPolicy) String() string {
	if p == AckStrict {
		return "strict"
	}
	return "lenient"
}

// Options configures a Driver. The zero value gives the datasheet defaults.
type Options struct {
	// Profile coefficients left at zero take their DefaultProfile value.
	Profile      Profile
	AckPolicy    AckPolicy
	PulseDelay   time.Duration
	PollInterval time.Duration
	PollAttempts int
	Sleeper      Sleeper
	Logger       log.FieldLogger

	// OnAckMismatch, if set, is called for every acknowledge mismatch,
	// whatever the policy.
	OnAckMismatch func(*AckError)
}

// Measurement is one temperature + humidity sequence.
type Measurement struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
	DewPoint    float64 // °C, valid when HasDewPoint
	HasDewPoint bool
}

// Driver talks to one sensor. It owns both lines for its lifetime.
type Driver struct {
	mu           sync.Mutex
	clock, data  gpio.Line
	profile      Profile
	policy       AckPolicy
	pulseDelay   time.Duration
	pollInterval time.Duration
	pollAttempts int
	sleep        Sleeper
	log          log.FieldLogger
	onAck        func(*AckError)
}

// New creates a Driver on the given clock and data lines.
func New(clock, data gpio.Line, opts Options) *Driver {
	d := &Driver{
		clock:        clock,
		data:         data,
		profile:      opts.Profile,
		policy:       opts.AckPolicy,
		pulseDelay:   opts.PulseDelay,
		pollInterval: opts.PollInterval,
		pollAttempts: opts.PollAttempts,
		sleep:        opts.Sleeper,
		log:          opts.Logger,
		onAck:        opts.OnAckMismatch,
	}
	d.profile = d.profile.WithDefaults()
	if d.pulseDelay <= 0 {
		d.pulseDelay = DefaultPulseDelay
	}
	if d.pollInterval <= 0 {
		d.pollInterval = DefaultPollInterval
	}
	if d.pollAttempts <= 0 {
		d.pollAttempts = DefaultPollAttempts
	}
	if d.sleep == nil {
		d.sleep = SystemSleeper
	}
	if d.log == nil {
		d.log = log.StandardLogger()
	}
	return d
}

// Profile returns the calibration profile in use.
func (d *Driver) Profile() Profile {
	return d.profile
}

// ReadTemperature takes a temperature measurement in degrees Celsius.
func (d *Driver) ReadTemperature() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readTemperature()
}

// ReadHumidity takes a fresh temperature measurement and then a humidity
// measurement compensated with it, in %RH.
func (d *Driver) ReadHumidity() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.readTemperature()
	if err != nil {
		return 0, errors.Wrap(err, "temperature for humidity compensation")
	}
	return d.readHumidity(t)
}

// Measure reads temperature, then humidity compensated with that
// temperature, and derives the dew point when humidity is positive.
func (d *Driver) Measure() (Measurement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.readTemperature()
	if err != nil {
		return Measurement{}, err
	}
	h, err := d.readHumidity(t)
	if err != nil {
		return Measurement{}, err
	}

	m := Measurement{Temperature: t, Humidity: h}
	if dp, err := DewPoint(t, h); err == nil {
		m.DewPoint = dp
		m.HasDewPoint = true
	}
	return m, nil
}

// Reset returns the sensor's serial interface to idle. It does not clear the
// sensor's status register.
func (d *Driver) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx := d.begin()
	tx.connectionReset()
	return errors.Wrap(tx.err, "connection reset")
}

func (d *Driver) readTemperature() (float64, error) {
	raw, err := d.readRaw(CmdMeasureTemperature)
	if err != nil {
		return 0, errors.Wrap(err, "read temperature")
	}
	return d.profile.Temperature(raw), nil
}

func (d *Driver) readHumidity(temperature float64) (float64, error) {
	raw, err := d.readRaw(CmdMeasureHumidity)
	if err != nil {
		return 0, errors.Wrap(err, "read humidity")
	}
	return d.profile.Humidity(raw, temperature), nil
}

func (d *Driver) begin() *transaction {
	return &transaction{
		clock:      d.clock,
		data:       d.data,
		sleep:      d.sleep,
		pulseDelay: d.pulseDelay,
	}
}

// readRaw runs one command transaction and returns the raw 16-bit value.
func (d *Driver) readRaw(cmd byte) (uint16, error) {
	tx := d.begin()

	nacks := tx.sendCommand(cmd)
	if tx.err != nil {
		return 0, errors.Wrapf(tx.err, "send command 0x%02x", cmd)
	}
	if err := d.handleNacks(tx, nacks); err != nil {
		return 0, err
	}

	if err := tx.waitForResult(d.pollAttempts, d.pollInterval); err != nil {
		if err == ErrSensorTimeout {
			return 0, errors.Wrapf(err, "no result after %d polls", d.pollAttempts)
		}
		return 0, errors.Wrap(err, "wait for result")
	}

	raw := tx.readData16()
	if tx.err != nil {
		return 0, errors.Wrap(tx.err, "read data")
	}
	return raw, nil
}

func (d *Driver) handleNacks(tx *transaction, nacks []*AckError) error {
	for _, nack := range nacks {
		d.log.WithFields(log.Fields{
			"command": fmt.Sprintf("0x%02x", nack.Command),
			"ack":     nack.Ack,
			"data":    nack.Got.String(),
		}).Warn("sht1x: acknowledge mismatch")
		if d.onAck != nil {
			d.onAck(nack)
		}
	}
	if len(nacks) == 0 || d.policy != AckStrict {
		return nil
	}

	tx.connectionReset()
	if tx.err != nil {
		return errors.Wrap(tx.err, "connection reset after nack")
	}
	return nacks[0]
}
