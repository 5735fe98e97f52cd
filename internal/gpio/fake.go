package gpio

import (
	"errors"
	"fmt"
)

// OpKind identifies a recorded line operation.
type OpKind int

const (
	OpDirection OpKind = iota
	OpWrite
	OpRead
)

// Op is a single operation performed on a FakeLine.
type Op struct {
	Line  string
	Kind  OpKind
	Value int // Direction for OpDirection, Level for OpWrite and OpRead
}

func (o Op) String() string {
	switch o.Kind {
	case OpDirection:
		return fmt.Sprintf("%s dir %s", o.Line, Direction(o.Value))
	case OpWrite:
		return fmt.Sprintf("%s write %s", o.Line, Level(o.Value))
	default:
		return fmt.Sprintf("%s read %s", o.Line, Level(o.Value))
	}
}

// Recorder collects operations from any number of FakeLines in the order
// they happened.
type Recorder struct {
	Ops []Op
}

// Reset clears recorded operations.
func (r *Recorder) Reset() {
	r.Ops = nil
}

// Count returns the number of recorded operations of the given kind on line.
func (r *Recorder) Count(line string, kind OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Line == line && op.Kind == kind {
			n++
		}
	}
	return n
}

// FakeLine is a test double that returns scripted input levels and records
// every operation.
type FakeLine struct {
	Name string

	// Samples contains scripted input levels.
	// Each call to Read() consumes the next sample.
	Samples []Level

	// Strict makes Write on an input and Read on an output fail with
	// ErrWrongDirection.
	Strict bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// WriteError, if set, will be returned by Write()
	WriteError error

	dir   Direction
	out   Level
	index int
	reads int
	rec   *Recorder
}

// NewFakeLine creates a FakeLine recording into rec. rec may be nil.
func NewFakeLine(name string, rec *Recorder, samples ...Level) *FakeLine {
	return &FakeLine{Name: name, Samples: samples, rec: rec}
}

func (f *FakeLine) record(kind OpKind, v int) {
	if f.rec != nil {
		f.rec.Ops = append(f.rec.Ops, Op{Line: f.Name, Kind: kind, Value: v})
	}
}

// SetDirection records the direction change.
func (f *FakeLine) SetDirection(d Direction) error {
	f.dir = d
	f.record(OpDirection, int(d))
	return nil
}

// Write records the written level.
func (f *FakeLine) Write(v Level) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	if f.Strict && f.dir != Output {
		return fmt.Errorf("write %s: %w", f.Name, ErrWrongDirection)
	}
	f.out = v
	f.record(OpWrite, int(v))
	return nil
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeLine) Read() (Level, error) {
	if f.ReadError != nil {
		return Low, f.ReadError
	}
	if f.Strict && f.dir != Input {
		return Low, fmt.Errorf("read %s: %w", f.Name, ErrWrongDirection)
	}
	if len(f.Samples) == 0 {
		return Low, errors.New("no samples configured")
	}

	v := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	f.reads++
	f.record(OpRead, int(v))
	return v, nil
}

// Direction returns the current direction.
func (f *FakeLine) Direction() Direction {
	return f.dir
}

// Level returns the last written level.
func (f *FakeLine) Level() Level {
	return f.out
}

// Reads returns how many samples have been consumed.
func (f *FakeLine) Reads() int {
	return f.reads
}

// Reset rewinds the samples.
func (f *FakeLine) Reset() {
	f.index = 0
	f.reads = 0
}
