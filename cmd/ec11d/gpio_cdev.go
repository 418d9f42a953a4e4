package main

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// cdevPin samples a line through the GPIO character device.
// A failed read returns the last good level; only the scan goroutine reads it.
type cdevPin struct {
	line *gpiocdev.Line
	last Level
}

func (p *cdevPin) Read() Level {
	v, err := p.line.Value()
	if err != nil {
		return p.last
	}
	p.last = Level(v != 0)
	return p.last
}

// openCdevPins requests the three lines as inputs. The returned func releases them.
func openCdevPins(cfg GPIOConfig) (Pins, func() error, error) {
	bias := gpiocdev.WithBiasDisabled
	if cfg.PullUp {
		bias = gpiocdev.WithPullUp
	}

	var lines []*gpiocdev.Line
	closeAll := func() error {
		var errs []error
		for _, l := range lines {
			if err := l.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	open := func(role string, offset int) (Pin, error) {
		l, err := gpiocdev.RequestLine(cfg.Chip, offset, gpiocdev.AsInput, bias)
		if err != nil {
			return nil, fmt.Errorf("request %s line %s:%d: %w", role, cfg.Chip, offset, err)
		}
		lines = append(lines, l)

		p := &cdevPin{line: l, last: High}
		p.Read()
		return p, nil
	}

	a, err := open("phase A", cfg.LineA)
	if err != nil {
		_ = closeAll()
		return Pins{}, nil, err
	}
	b, err := open("phase B", cfg.LineB)
	if err != nil {
		_ = closeAll()
		return Pins{}, nil, err
	}
	btn, err := open("button", cfg.LineButton)
	if err != nil {
		_ = closeAll()
		return Pins{}, nil, err
	}
	return Pins{A: a, B: b, Button: btn}, closeAll, nil
}
