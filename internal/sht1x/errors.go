package sht1x

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sweeney/sht1x-node/internal/gpio"
)

var (
	// ErrSensorTimeout means the sensor did not pull the data line low within
	// the conversion window. The read in progress is lost.
	ErrSensorTimeout = errors.New("sht1x: sensor timeout")

	// ErrAckMismatch is wrapped by every *AckError.
	ErrAckMismatch = errors.New("sht1x: acknowledge mismatch")

	// ErrHumidityDomain is wrapped by every *DomainError.
	ErrHumidityDomain = errors.New("sht1x: humidity out of domain")
)

// AckError describes an acknowledge bit that did not have the expected level
// after a command byte.
type AckError struct {
	Command byte
	Ack     int // 1 or 2
	Got     gpio.Level
}

func (e *AckError) Error() string {
	return fmt.Sprintf("sht1x: nack%d after command 0x%02x (data %s)", e.Ack, e.Command, e.Got)
}

// Unwrap returns ErrAckMismatch.
func (e *AckError) Unwrap() error { return ErrAckMismatch }

// Temporary reports that the read may succeed if retried.
func (e *AckError) Temporary() bool { return true }

// DomainError is returned when a humidity value cannot be used for a dew
// point calculation.
type DomainError struct {
	Humidity float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("sht1x: dew point needs humidity > 0, got %v", e.Humidity)
}

// Unwrap returns ErrHumidityDomain.
func (e *DomainError) Unwrap() error { return ErrHumidityDomain }

// IsTimeout reports whether err is a sensor timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrSensorTimeout)
}

// IsAckMismatch reports whether err is an acknowledge mismatch.
func IsAckMismatch(err error) bool {
	return errors.Is(err, ErrAckMismatch)
}
