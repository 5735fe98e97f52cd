package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphLine is a Line backed by a periph.io pin. It works on boards where
// the character device is unavailable (older kernels, memory-mapped drivers).
type PeriphLine struct {
	pin pgpio.PinIO
	dir Direction
	out pgpio.Level
}

// OpenPeriphLine initialises the periph host drivers and looks up the pin by
// name, e.g. "GPIO2" or "P1_3".
func OpenPeriphLine(name string) (*PeriphLine, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("pin %q not found", name)
	}
	return NewPeriphLine(pin)
}

// NewPeriphLine wraps pin and sets it to an input with pull-up, the idle
// state of the two-wire bus.
func NewPeriphLine(pin pgpio.PinIO) (*PeriphLine, error) {
	if err := pin.In(pgpio.PullUp, pgpio.NoEdge); err != nil {
		return nil, fmt.Errorf("set pin %s IN: %w", pin.Name(), err)
	}
	return &PeriphLine{pin: pin, dir: Input, out: pgpio.High}, nil
}

// SetDirection switches the pin. Output drives the last written level.
func (l *PeriphLine) SetDirection(d Direction) error {
	if d == l.dir {
		return nil
	}
	var err error
	if d == Output {
		err = l.pin.Out(l.out)
	} else {
		err = l.pin.In(pgpio.PullUp, pgpio.NoEdge)
	}
	if err != nil {
		return fmt.Errorf("set pin %s %s: %w", l.pin.Name(), d, err)
	}
	l.dir = d
	return nil
}

// Write drives the pin. The line must be an output.
func (l *PeriphLine) Write(v Level) error {
	if l.dir != Output {
		return fmt.Errorf("write pin %s: %w", l.pin.Name(), ErrWrongDirection)
	}
	l.out = pgpio.Level(v == High)
	if err := l.pin.Out(l.out); err != nil {
		return fmt.Errorf("write pin %s: %w", l.pin.Name(), err)
	}
	return nil
}

// Read samples the pin.
func (l *PeriphLine) Read() (Level, error) {
	if l.pin.Read() == pgpio.High {
		return High, nil
	}
	return Low, nil
}

// Halt releases the pin back to an input.
func (l *PeriphLine) Halt() error {
	if err := l.pin.In(pgpio.PullDown, pgpio.NoEdge); err != nil {
		return fmt.Errorf("release pin %s: %w", l.pin.Name(), err)
	}
	return l.pin.Halt()
}
