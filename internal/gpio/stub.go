//go:build !linux

package gpio

import "errors"

var errNotSupported = errors.New("gpio: not supported on this platform (requires Linux)")

// CdevChip is not available on non-Linux platforms.
type CdevChip struct{}

// CdevLine is not available on non-Linux platforms.
type CdevLine struct{}

// NewCdevChip returns an error on non-Linux platforms.
func NewCdevChip(name string) (*CdevChip, error) {
	return nil, errNotSupported
}

// RequestLine is not implemented on non-Linux platforms.
func (c *CdevChip) RequestLine(offset int) (*CdevLine, error) {
	return nil, errNotSupported
}

// Close is not implemented on non-Linux platforms.
func (c *CdevChip) Close() error {
	return nil
}

// SetDirection is not implemented on non-Linux platforms.
func (l *CdevLine) SetDirection(d Direction) error {
	return errNotSupported
}

// Write is not implemented on non-Linux platforms.
func (l *CdevLine) Write(v Level) error {
	return errNotSupported
}

// Read is not implemented on non-Linux platforms.
func (l *CdevLine) Read() (Level, error) {
	return Low, errNotSupported
}
