// Package metrics exposes readings and protocol diagnostics to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/sht1x-node/internal/logic"
)

const namespace = "sht1x"

// Metrics holds the collectors for one node. Every series carries a "node"
// label with the MQTT client ID.
type Metrics struct {
	node string
	reg  *prometheus.Registry

	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	dewPoint    *prometheus.GaugeVec
	battery     *prometheus.GaugeVec
	solar       *prometheus.GaugeVec

	reads         *prometheus.CounterVec
	failures      *prometheus.CounterVec
	ackMismatches *prometheus.CounterVec
}

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		[]string{"node"},
	)
}

func newCounter(name string, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		append([]string{"node"}, labels...),
	)
}

// New creates and registers the collectors on a private registry.
func New(node string) *Metrics {
	m := &Metrics{
		node: node,
		reg:  prometheus.NewRegistry(),

		temperature: newGauge("temperature_celsius", "Air temperature (units: degrees Celsius)"),
		humidity:    newGauge("humidity_percent", "Relative humidity (units: %)"),
		dewPoint:    newGauge("dew_point_celsius", "Dew point (units: degrees Celsius)"),
		battery:     newGauge("battery_volts", "Battery voltage (units: V)"),
		solar:       newGauge("solar_volts", "Solar panel voltage (units: V)"),

		reads:         newCounter("reads_total", "Sensor reads attempted"),
		failures:      newCounter("read_failures_total", "Sensor reads that failed, by kind", "kind"),
		ackMismatches: newCounter("ack_mismatches_total", "Acknowledge bits that did not match the expected level"),
	}

	m.reg.MustRegister(
		m.temperature, m.humidity, m.dewPoint, m.battery, m.solar,
		m.reads, m.failures, m.ackMismatches,
		collectors.NewBuildInfoCollector(),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveRead counts one sensor read outcome.
func (m *Metrics) ObserveRead(in logic.Input) {
	m.reads.WithLabelValues(m.node).Inc()
	if in.AckMismatches > 0 {
		m.ackMismatches.WithLabelValues(m.node).Add(float64(in.AckMismatches))
	}
	if in.Failure != logic.FailureNone {
		m.failures.WithLabelValues(m.node, in.Failure.String()).Inc()
	}
}

// ObserveMeasurement updates the gauges. Sensor gauges are removed when the
// read failed so that scrapes show a gap instead of a stale value.
func (m *Metrics) ObserveMeasurement(meas logic.Measurement) {
	if meas.PowerError == "" {
		m.battery.WithLabelValues(m.node).Set(meas.BatteryV)
		m.solar.WithLabelValues(m.node).Set(meas.SolarV)
	} else {
		m.battery.DeleteLabelValues(m.node)
		m.solar.DeleteLabelValues(m.node)
	}

	s := meas.Sensor
	if s == nil {
		m.temperature.DeleteLabelValues(m.node)
		m.humidity.DeleteLabelValues(m.node)
		m.dewPoint.DeleteLabelValues(m.node)
		return
	}
	m.temperature.WithLabelValues(m.node).Set(s.TemperatureC)
	m.humidity.WithLabelValues(m.node).Set(s.HumidityPct)
	if s.DewPointC != nil {
		m.dewPoint.WithLabelValues(m.node).Set(*s.DewPointC)
	} else {
		m.dewPoint.DeleteLabelValues(m.node)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{
		// Opt into OpenMetrics to support exemplars.
		EnableOpenMetrics: true,
		Registry:          m.reg,
	})
}
