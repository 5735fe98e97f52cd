//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// CdevChip owns a GPIO chip and the lines requested from it.
type CdevChip struct {
	chip  *gpiocdev.Chip
	lines []*CdevLine
}

// CdevLine is a Line backed by the Linux GPIO character device.
type CdevLine struct {
	offset int
	line   *gpiocdev.Line
	dir    Direction
	out    int
}

// NewCdevChip opens the named chip, e.g. "gpiochip0".
func NewCdevChip(name string) (*CdevChip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &CdevChip{chip: chip}, nil
}

// RequestLine requests the line at offset as an input with pull-up, which is
// the idle state of an open-drain two-wire bus.
func (c *CdevChip) RequestLine(offset int) (*CdevLine, error) {
	l, err := c.chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request pin %d: %w", offset, err)
	}
	cl := &CdevLine{offset: offset, line: l, dir: Input, out: 1}
	c.lines = append(c.lines, cl)
	return cl, nil
}

// SetDirection reconfigures the line. Switching to output drives the last
// written level.
func (l *CdevLine) SetDirection(d Direction) error {
	if d == l.dir {
		return nil
	}
	var err error
	if d == Output {
		err = l.line.Reconfigure(gpiocdev.AsOutput(l.out))
	} else {
		err = l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp)
	}
	if err != nil {
		return fmt.Errorf("set pin %d %s: %w", l.offset, d, err)
	}
	l.dir = d
	return nil
}

// Write sets the output value. The line must be an output.
func (l *CdevLine) Write(v Level) error {
	if l.dir != Output {
		return fmt.Errorf("write pin %d: %w", l.offset, ErrWrongDirection)
	}
	l.out = int(v)
	if err := l.line.SetValue(int(v)); err != nil {
		return fmt.Errorf("write pin %d: %w", l.offset, err)
	}
	return nil
}

// Read returns the current input value.
func (l *CdevLine) Read() (Level, error) {
	v, err := l.line.Value()
	if err != nil {
		return Low, fmt.Errorf("read pin %d: %w", l.offset, err)
	}
	return LevelOf(v), nil
}

// Close releases all requested lines and the chip.
// Lines are reconfigured to input with pull-down (matching Pi boot defaults)
// before closing so nothing is left driven.
func (c *CdevChip) Close() error {
	var errs []error

	for _, l := range c.lines {
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", l.offset, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", l.offset, err))
		}
	}
	c.lines = nil
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
