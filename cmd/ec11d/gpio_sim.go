package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// simPin is an in-memory input. It idles high, like a pulled-up line.
type simPin struct {
	mu    sync.Mutex
	name  string
	level Level
}

func newSimPin(name string) *simPin {
	return &simPin{name: name, level: High}
}

func (p *simPin) Read() Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *simPin) set(level Level) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

// simBoard is the "sim" GPIO backend: three virtual pins driven over IPC.
//
// Gestures are serialized; set_level may interleave with a running gesture.
type simBoard struct {
	a      *simPin
	b      *simPin
	button *simPin

	gestureMu sync.Mutex
	sleep     func(ctx context.Context, d time.Duration) error
}

func newSimBoard() *simBoard {
	return &simBoard{
		a:      newSimPin("a"),
		b:      newSimPin("b"),
		button: newSimPin("button"),
		sleep:  sleepCtx,
	}
}

func (s *simBoard) Pins() Pins {
	return Pins{A: s.a, B: s.b, Button: s.button}
}

func (s *simBoard) pin(name string) (*simPin, error) {
	switch strings.ToLower(name) {
	case "a":
		return s.a, nil
	case "b":
		return s.b, nil
	case "button", "btn", "key":
		return s.button, nil
	default:
		return nil, fmt.Errorf("unknown pin %q (must be a, b or button)", name)
	}
}

// SetLevel drives one pin.
func (s *simBoard) SetLevel(pin string, level Level) error {
	p, err := s.pin(pin)
	if err != nil {
		return err
	}
	p.set(level)
	return nil
}

func parseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "high", "h", "1":
		return High, nil
	case "low", "l", "0":
		return Low, nil
	default:
		return Low, fmt.Errorf("invalid level %q (must be high or low)", s)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
