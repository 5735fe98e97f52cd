// Package gpio provides bidirectional GPIO lines with hardware abstraction.
// The real implementations use the Linux GPIO character device or periph.io.
// The fake implementation records every line operation for tests.
package gpio

import "errors"

// Direction is the electrical direction of a line.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "OUT"
	}
	return "IN"
}

// Level is the logical level of a line.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// LevelOf converts a bit to a Level. Any non-zero value is High.
func LevelOf(bit int) Level {
	if bit != 0 {
		return High
	}
	return Low
}

// ErrWrongDirection is returned when Write is called on an input. FakeLine
// in Strict mode also returns it for Read on an output.
var ErrWrongDirection = errors.New("gpio: operation not valid for line direction")

// Line is a single GPIO line that can be switched between input and output.
type Line interface {
	// SetDirection switches the line to input or output.
	SetDirection(d Direction) error

	// Write drives the line. Only valid when the direction is Output.
	Write(l Level) error

	// Read samples the line. Only valid when the direction is Input.
	Read() (Level, error)
}

// Default line offsets (BCM numbering)
const (
	DefaultPinClock = 3
	DefaultPinData  = 2
	DefaultPinLED   = 5
)
