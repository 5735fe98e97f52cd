package gpio

import "fmt"

// LED drives a status LED on an output line.
type LED struct {
	line  Line
	state Level
}

// NewLED switches line to output and turns the LED off.
func NewLED(line Line) (*LED, error) {
	if err := line.SetDirection(Output); err != nil {
		return nil, fmt.Errorf("led: %w", err)
	}
	if err := line.Write(Low); err != nil {
		return nil, fmt.Errorf("led: %w", err)
	}
	return &LED{line: line}, nil
}

// Set turns the LED on or off.
func (l *LED) Set(on bool) error {
	v := Low
	if on {
		v = High
	}
	if err := l.line.Write(v); err != nil {
		return fmt.Errorf("led: %w", err)
	}
	l.state = v
	return nil
}

// Toggle inverts the LED.
func (l *LED) Toggle() error {
	return l.Set(l.state == Low)
}

// On reports whether the LED is lit.
func (l *LED) On() bool {
	return l.state == High
}
