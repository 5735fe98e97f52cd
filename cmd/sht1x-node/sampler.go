package main

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/sht1x-node/internal/gpio"
	"github.com/sweeney/sht1x-node/internal/logic"
	"github.com/sweeney/sht1x-node/internal/power"
	"github.com/sweeney/sht1x-node/internal/sht1x"
)

// sensor is the part of *sht1x.Driver the loop uses.
type sensor interface {
	Measure() (sht1x.Measurement, error)
	Reset() error
}

// ackCounter collects acknowledge mismatches reported by the driver between
// two samples. The driver calls observe from the sampling goroutine.
type ackCounter struct {
	n int
}

func (c *ackCounter) observe(*sht1x.AckError) { c.n++ }

func (c *ackCounter) take() int {
	n := c.n
	c.n = 0
	return n
}

// sampler takes one telemetry sample per tick.
type sampler struct {
	sensor  sensor
	acks    *ackCounter
	adc     power.ADC
	battery power.Channel
	solar   power.Channel
	led     *gpio.LED // nil when disabled
}

func (s *sampler) sample(t, start time.Time) (logic.Measurement, logic.Input) {
	if s.led != nil {
		if err := s.led.Toggle(); err != nil {
			log.Warnf("led: %v", err)
		}
	}

	meas := logic.Measurement{
		Timestamp: t,
		Uptime:    t.Sub(start),
	}
	input := logic.Input{Time: t}

	if err := s.readPower(&meas); err != nil {
		log.Warnf("power read error: %v", err)
		meas.PowerError = err.Error()
	}

	m, err := s.sensor.Measure()
	if s.acks != nil {
		input.AckMismatches = s.acks.take()
	}
	if err != nil {
		input.Failure = classify(err)
		meas.SensorError = err.Error()
		log.WithField("kind", input.Failure).Warnf("sensor read error: %v", err)
		if rerr := s.sensor.Reset(); rerr != nil {
			log.Warnf("sensor reset: %v", rerr)
		}
		return meas, input
	}

	sv := &logic.SensorValues{
		TemperatureC: m.Temperature,
		HumidityPct:  m.Humidity,
	}
	if m.HasDewPoint {
		dp := m.DewPoint
		sv.DewPointC = &dp
	}
	meas.Sensor = sv
	return meas, input
}

func (s *sampler) readPower(meas *logic.Measurement) error {
	if s.adc == nil {
		return nil
	}
	bat, err := s.battery.Read(s.adc)
	if err != nil {
		return err
	}
	sol, err := s.solar.Read(s.adc)
	if err != nil {
		return err
	}
	meas.BatteryV = bat
	meas.SolarV = sol
	return nil
}

// classify maps a driver error to a health monitor failure kind.
func classify(err error) logic.Failure {
	switch {
	case err == nil:
		return logic.FailureNone
	case sht1x.IsTimeout(err):
		return logic.FailureTimeout
	case sht1x.IsAckMismatch(err):
		return logic.FailureAck
	default:
		return logic.FailureIO
	}
}
