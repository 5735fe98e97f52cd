package sht1x

import (
	"time"

	"github.com/sweeney/sht1x-node/internal/gpio"
)

// transaction drives the two lines for one command/response exchange.
// The first line error is kept in err and every later operation becomes a
// no-op, so a sequence can be written straight through and checked once.
type transaction struct {
	clock, data gpio.Line
	sleep       Sleeper
	pulseDelay  time.Duration
	err         error
}

func (t *transaction) setDir(l gpio.Line, d gpio.Direction) {
	if t.err != nil {
		return
	}
	t.err = l.SetDirection(d)
}

func (t *transaction) write(l gpio.Line, v gpio.Level) {
	if t.err != nil {
		return
	}
	t.err = l.Write(v)
}

func (t *transaction) read(l gpio.Line) gpio.Level {
	if t.err != nil {
		return gpio.Low
	}
	v, err := l.Read()
	if err != nil {
		t.err = err
		return gpio.Low
	}
	return v
}

// pulse sets the clock to v and holds it for the pulse delay.
func (t *transaction) pulse(v gpio.Level) {
	t.write(t.clock, v)
	if t.err == nil {
		t.sleep.Sleep(t.pulseDelay)
	}
}

// sendCommand frames cmd with the transmission start sequence and returns the
// acknowledge bits that did not match. It leaves the data line as an input.
func (t *transaction) sendCommand(cmd byte) []*AckError {
	t.setDir(t.data, gpio.Output)
	t.setDir(t.clock, gpio.Output)

	// transmission start
	t.write(t.data, gpio.High)
	t.pulse(gpio.High)
	t.write(t.data, gpio.Low)
	t.pulse(gpio.Low)
	t.pulse(gpio.High)
	t.write(t.data, gpio.High)
	t.pulse(gpio.Low)

	for i := 7; i >= 0; i-- {
		t.write(t.data, gpio.LevelOf(int(cmd>>uint(i)&1)))
		t.pulse(gpio.High)
		t.pulse(gpio.Low)
	}

	t.pulse(gpio.High)
	t.setDir(t.data, gpio.Input)

	var nacks []*AckError
	if ack := t.read(t.data); t.err == nil && ack != gpio.Low {
		nacks = append(nacks, &AckError{Command: cmd, Ack: 1, Got: ack})
	}

	t.pulse(gpio.Low)

	if ack := t.read(t.data); t.err == nil && ack != gpio.High {
		nacks = append(nacks, &AckError{Command: cmd, Ack: 2, Got: ack})
	}
	return nacks
}

// waitForResult polls the data line until the sensor pulls it low to signal
// the end of a conversion. It returns ErrSensorTimeout if the line is still
// high after attempts polls.
func (t *transaction) waitForResult(attempts int, interval time.Duration) error {
	t.setDir(t.data, gpio.Input)

	ready := gpio.High
	for i := 0; i < attempts && t.err == nil; i++ {
		t.sleep.Sleep(interval)
		ready = t.read(t.data)
		if ready == gpio.Low {
			break
		}
	}
	if t.err != nil {
		return t.err
	}
	if ready == gpio.High {
		return ErrSensorTimeout
	}
	return nil
}

// readData16 shifts in the MSB and LSB of a measurement with an acknowledge
// in between, then ends the transaction without reading the CRC byte.
func (t *transaction) readData16() uint16 {
	t.setDir(t.data, gpio.Input)
	t.setDir(t.clock, gpio.Output)

	value := uint16(t.shiftIn(8)) << 8

	t.setDir(t.data, gpio.Output)
	t.write(t.data, gpio.High)
	t.write(t.data, gpio.Low)
	t.pulse(gpio.High)
	t.pulse(gpio.Low)

	t.setDir(t.data, gpio.Input)
	value |= uint16(t.shiftIn(8))

	t.skipCRC()
	return value
}

// shiftIn samples n bits, MSB first, one per clock pulse.
func (t *transaction) shiftIn(n int) uint8 {
	var v uint8
	for i := 0; i < n; i++ {
		t.pulse(gpio.High)
		v = v<<1 | uint8(t.read(t.data))
		t.pulse(gpio.Low)
	}
	return v
}

// skipCRC leaves the acknowledge high so the sensor does not send its CRC.
func (t *transaction) skipCRC() {
	t.setDir(t.data, gpio.Output)
	t.setDir(t.clock, gpio.Output)
	t.write(t.data, gpio.High)
	t.pulse(gpio.High)
	t.pulse(gpio.Low)
}

// connectionReset toggles the clock nine or more times with data high, which
// returns the sensor's serial interface to its idle state.
func (t *transaction) connectionReset() {
	t.setDir(t.data, gpio.Output)
	t.setDir(t.clock, gpio.Output)
	t.write(t.data, gpio.High)
	for i := 0; i < resetPulses; i++ {
		t.pulse(gpio.High)
		t.pulse(gpio.Low)
	}
}
