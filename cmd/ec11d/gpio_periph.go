package main

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// periphPin samples a pin through periph.io.
type periphPin struct {
	pin gpio.PinIO
}

func (p periphPin) Read() Level {
	return Level(p.pin.Read() == gpio.High)
}

// openPeriphPins initializes the periph host drivers and configures the three
// inputs by name (e.g. "GPIO3").
func openPeriphPins(cfg GPIOConfig) (Pins, error) {
	if _, err := host.Init(); err != nil {
		return Pins{}, fmt.Errorf("periph host init: %w", err)
	}

	pull := gpio.Float
	if cfg.PullUp {
		pull = gpio.PullUp
	}

	open := func(role, name string) (Pin, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%s pin %q not found", role, name)
		}
		if err := p.In(pull, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %s pin %s: %w", role, name, err)
		}
		return periphPin{pin: p}, nil
	}

	a, err := open("phase A", cfg.PinA)
	if err != nil {
		return Pins{}, err
	}
	b, err := open("phase B", cfg.PinB)
	if err != nil {
		return Pins{}, err
	}
	btn, err := open("button", cfg.PinButton)
	if err != nil {
		return Pins{}, err
	}
	return Pins{A: a, B: b, Button: btn}, nil
}
