package main

import (
	"fmt"
	"log/slog"
)

// openedPins is the result of opening a GPIO backend.
type openedPins struct {
	Pins Pins

	// Sim is set for the sim backend only.
	Sim *simBoard

	Close func() error
}

// openPins opens the configured backend. Failures are fatal to the daemon.
func openPins(cfg GPIOConfig, logger *slog.Logger) (openedPins, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case backendPeriph:
		pins, err := openPeriphPins(cfg)
		if err != nil {
			return openedPins{}, err
		}
		logger.Info("gpio opened", "backend", cfg.Backend, "pin_a", cfg.PinA, "pin_b", cfg.PinB, "pin_button", cfg.PinButton, "pull_up", cfg.PullUp)
		return openedPins{Pins: pins, Close: noop}, nil

	case backendCdev:
		pins, closeFn, err := openCdevPins(cfg)
		if err != nil {
			return openedPins{}, err
		}
		logger.Info("gpio opened", "backend", cfg.Backend, "chip", cfg.Chip, "line_a", cfg.LineA, "line_b", cfg.LineB, "line_button", cfg.LineButton, "pull_up", cfg.PullUp)
		return openedPins{Pins: pins, Close: closeFn}, nil

	case backendSim:
		board := newSimBoard()
		logger.Info("gpio opened", "backend", cfg.Backend)
		return openedPins{Pins: board.Pins(), Sim: board, Close: noop}, nil

	default:
		return openedPins{}, fmt.Errorf("unknown gpio backend %q", cfg.Backend)
	}
}
