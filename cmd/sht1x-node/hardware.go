package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/sht1x-node/internal/gpio"
)

// lines are the GPIO lines the node drives.
type lines struct {
	clock, data gpio.Line
	led         gpio.Line // nil when disabled
	close       func()
}

// openLines requests the sensor and LED lines from the selected backend.
// A negative LED pin disables the LED.
func openLines(backend, chip string, pinClock, pinData, pinLED int) (*lines, error) {
	switch backend {
	case "cdev":
		return openCdevLines(chip, pinClock, pinData, pinLED)
	case "periph":
		return openPeriphLines(pinClock, pinData, pinLED)
	default:
		return nil, fmt.Errorf("unknown gpio backend %q", backend)
	}
}

func openCdevLines(chipName string, pinClock, pinData, pinLED int) (*lines, error) {
	chip, err := gpio.NewCdevChip(chipName)
	if err != nil {
		return nil, err
	}
	l := &lines{close: func() {
		if err := chip.Close(); err != nil {
			log.Warnf("gpio close: %v", err)
		}
	}}

	request := func(pin int) (gpio.Line, error) {
		line, err := chip.RequestLine(pin)
		if err != nil {
			return nil, err
		}
		return line, nil
	}

	if l.clock, err = request(pinClock); err != nil {
		l.close()
		return nil, err
	}
	if l.data, err = request(pinData); err != nil {
		l.close()
		return nil, err
	}
	if pinLED >= 0 {
		if l.led, err = request(pinLED); err != nil {
			l.close()
			return nil, err
		}
	}
	return l, nil
}

func openPeriphLines(pinClock, pinData, pinLED int) (*lines, error) {
	var opened []*gpio.PeriphLine
	l := &lines{close: func() {
		for _, p := range opened {
			if err := p.Halt(); err != nil {
				log.Warnf("gpio halt: %v", err)
			}
		}
	}}

	open := func(pin int) (gpio.Line, error) {
		p, err := gpio.OpenPeriphLine(fmt.Sprintf("GPIO%d", pin))
		if err != nil {
			return nil, err
		}
		opened = append(opened, p)
		return p, nil
	}

	var err error
	if l.clock, err = open(pinClock); err != nil {
		l.close()
		return nil, err
	}
	if l.data, err = open(pinData); err != nil {
		l.close()
		return nil, err
	}
	if pinLED >= 0 {
		if l.led, err = open(pinLED); err != nil {
			l.close()
			return nil, err
		}
	}
	return l, nil
}
