// Command sht1x-node samples an SHT1x temperature/humidity sensor and the
// node's battery and solar voltages, and publishes telemetry to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/sht1x-node/internal/gpio"
	"github.com/sweeney/sht1x-node/internal/logic"
	"github.com/sweeney/sht1x-node/internal/metrics"
	"github.com/sweeney/sht1x-node/internal/mqtt"
	"github.com/sweeney/sht1x-node/internal/power"
	"github.com/sweeney/sht1x-node/internal/sht1x"
	"github.com/sweeney/sht1x-node/internal/status"
	"github.com/sweeney/sht1x-node/internal/web"
)

type config struct {
	interval    time.Duration
	debounce    time.Duration
	heartbeat   time.Duration
	broker      string
	clientID    string
	httpAddr    string
	backend     string
	chip        string
	pinClock    int
	pinData     int
	pinLED      int
	profile     string
	strictAck   bool
	pulse       time.Duration
	adcDir      string
	adcBattery  int
	adcSolar    int
	batteryMult float64
	solarMult   float64
	printOnce   bool
}

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	var cfg config
	flag.DurationVar(&cfg.interval, "interval", 5*time.Second, "Report interval")
	flag.DurationVar(&cfg.debounce, "health-debounce", 30*time.Second, "How long a sensor health change must persist before it is reported")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&cfg.clientID, "client-id", "sht1x-node", "MQTT client ID, also used in topic names")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&cfg.backend, "gpio-backend", "cdev", `GPIO backend: "cdev" or "periph"`)
	flag.StringVar(&cfg.chip, "chip", "gpiochip0", "GPIO character device (cdev backend)")
	flag.IntVar(&cfg.pinClock, "pin-clock", gpio.DefaultPinClock, "BCM pin number for the sensor clock line")
	flag.IntVar(&cfg.pinData, "pin-data", gpio.DefaultPinData, "BCM pin number for the sensor data line")
	flag.IntVar(&cfg.pinLED, "pin-led", gpio.DefaultPinLED, "BCM pin number for the status LED (-1 to disable)")
	flag.StringVar(&cfg.profile, "profile", "", "YAML calibration profile (empty for built-in coefficients)")
	flag.BoolVar(&cfg.strictAck, "strict-ack", false, "Fail reads on acknowledge mismatches")
	flag.DurationVar(&cfg.pulse, "pulse", sht1x.DefaultPulseDelay, "Clock pulse delay")
	flag.StringVar(&cfg.adcDir, "adc-dir", "/sys/bus/iio/devices/iio:device0", "IIO ADC device directory")
	flag.IntVar(&cfg.adcBattery, "adc-battery", 0, "ADC channel for the battery divider")
	flag.IntVar(&cfg.adcSolar, "adc-solar", 1, "ADC channel for the solar divider")
	flag.Float64Var(&cfg.batteryMult, "battery-mult", power.DefaultBatteryMultiplier, "Battery divider multiplier")
	flag.Float64Var(&cfg.solarMult, "solar-mult", power.DefaultSolarMultiplier, "Solar divider multiplier")
	flag.BoolVar(&cfg.printOnce, "print-reading", false, "Take one reading, print it and exit")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	log.SetLevel(level)

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	hw, err := openLines(cfg.backend, cfg.chip, cfg.pinClock, cfg.pinData, cfg.pinLED)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer hw.close()

	profile := sht1x.DefaultProfile
	if cfg.profile != "" {
		if profile, err = sht1x.LoadProfile(cfg.profile); err != nil {
			return err
		}
		log.WithField("path", cfg.profile).Info("loaded calibration profile")
	}

	policy := sht1x.AckLenient
	if cfg.strictAck {
		policy = sht1x.AckStrict
	}
	acks := &ackCounter{}
	driver := newDriver(hw.clock, hw.data, sht1x.Options{
		Profile:       profile,
		AckPolicy:     policy,
		PulseDelay:    cfg.pulse,
		Logger:        log.WithField("sensor", cfg.clientID),
		OnAckMismatch: acks.observe,
	})

	// Print reading mode
	if cfg.printOnce {
		m, err := driver.Measure()
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Println(formatReading(m))
		return nil
	}

	s := &sampler{
		sensor:  driver,
		acks:    acks,
		adc:     power.IIOADC{Dir: cfg.adcDir},
		battery: power.Channel{Name: "battery", Index: cfg.adcBattery, Multiplier: cfg.batteryMult},
		solar:   power.Channel{Name: "solar", Index: cfg.adcSolar, Multiplier: cfg.solarMult},
	}
	if hw.led != nil {
		if s.led, err = gpio.NewLED(hw.led); err != nil {
			return fmt.Errorf("init led: %w", err)
		}
	}

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.broker, cfg.clientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		IntervalMs:  cfg.interval.Milliseconds(),
		DebounceMs:  cfg.debounce.Milliseconds(),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Broker:      cfg.broker,
		ClientID:    cfg.clientID,
		HTTPAddr:    cfg.httpAddr,
		GPIOBackend: cfg.backend,
		PinClock:    cfg.pinClock,
		PinData:     cfg.pinData,
		StrictAck:   cfg.strictAck,
		Profile:     cfg.profile,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	refreshMQTT(tracker, publisher)

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warnf("failed to publish startup event: %v", err)
	} else {
		log.Info("published startup event")
	}

	m := metrics.New(cfg.clientID)

	// Start HTTP status server
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker, m.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.httpAddr)
	}

	log.WithFields(log.Fields{
		"interval":  cfg.interval,
		"broker":    cfg.broker,
		"heartbeat": cfg.heartbeat,
		"backend":   cfg.backend,
		"ack":       policy,
	}).Info("started")

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(s, publisher, publisher, tracker, m, cfg.debounce, cfg.heartbeat, time.Now, ticker.C, sigCh)
}

// newDriver creates the sensor driver and resets the sensor's serial
// interface, which may have been left mid-transaction by a previous process.
// A failed reset is logged; the first read will surface a dead bus.
func newDriver(clock, data gpio.Line, opts sht1x.Options) *sht1x.Driver {
	driver := sht1x.New(clock, data, opts)
	if err := driver.Reset(); err != nil {
		log.Warnf("sensor reset at startup: %v", err)
	}
	return driver
}

func runLoop(s *sampler, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, m *metrics.Metrics, debounce, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	monitor := logic.NewMonitor(debounce, startTime)

	for {
		select {
		case sg := <-sig:
			log.Infof("received %v, shutting down", sg)
			signalName := "UNKNOWN"
			if sg == syscall.SIGINT {
				signalName = "SIGINT"
			} else if sg == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				refreshMQTT(tracker, mqttStatus)
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warnf("failed to publish shutdown event: %v", err)
			} else {
				log.Info("published shutdown event")
			}
			if s.led != nil {
				if err := s.led.Set(false); err != nil {
					log.Warnf("led: %v", err)
				}
			}
			return nil

		case <-tick:
			t := now()
			meas, input := s.sample(t, startTime)

			if err := publisher.PublishTelemetry(meas); err != nil {
				// Don't crash on publish failure
				log.Warnf("telemetry publish error: %v", err)
			}

			for _, event := range monitor.Process(input) {
				log.WithFields(log.Fields{
					"health":   event.Health,
					"reads":    event.Counts.Reads,
					"failures": event.Counts.Failures,
				}).Infof("event: %s", event.Type)
				if err := publisher.PublishEvent(event); err != nil {
					log.Warnf("event publish error: %v", err)
				}
			}

			if m != nil {
				m.ObserveRead(input)
				m.ObserveMeasurement(meas)
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.SetMeasurement(meas)
				tracker.Update(monitor.CurrentHealth(), monitor.IsBaselined(), monitor.CountsSnapshot())
				refreshMQTT(tracker, mqttStatus)
			}

			if !monitor.IsBaselined() {
				// Still waiting for baseline
				continue
			}

			if hb := monitor.CheckHeartbeat(t, heartbeat); hb != nil {
				log.WithFields(log.Fields{
					"uptime":   hb.Uptime,
					"reads":    hb.Counts.Reads,
					"failures": hb.Counts.Failures,
				}).Info("heartbeat")

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Warnf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// refreshMQTT copies the broker connection state into the tracker.
func refreshMQTT(tracker *status.Tracker, mqttStatus mqtt.ConnectionStatus) {
	if mqttStatus == nil {
		return
	}
	buffered := 0
	if b, ok := mqttStatus.(interface{ Buffered() int }); ok {
		buffered = b.Buffered()
	}
	tracker.SetMQTTConnected(mqttStatus.IsConnected(), buffered)
	if d, ok := mqttStatus.(interface{ Dropped() int }); ok {
		tracker.SetMQTTDropped(d.Dropped())
	}
}

func formatReading(m sht1x.Measurement) string {
	s := fmt.Sprintf("Temperature: %.2f °C, Humidity: %.1f %%", m.Temperature, m.Humidity)
	if m.HasDewPoint {
		s += fmt.Sprintf(", Dew point: %.2f °C", m.DewPoint)
	}
	return s
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
