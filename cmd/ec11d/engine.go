package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ============================================================================
// Scan Engine - single-owner encoder state machine
// ============================================================================
//
// Design rules enforced here:
//   - The scan goroutine (Run) is the only reader/writer of engineState.
//   - Every tick samples phase A and the button, then arbitrates both statuses
//     of that same tick into at most one Event.
//   - Non-Empty events are published in tick order; nothing is coalesced.
//   - Other goroutines observe state only through Snapshot, which is answered
//     by the scan goroutine between ticks.
//
// ============================================================================

// Publisher receives completed events. It must not drop them.
type Publisher interface {
	Publish(ev Event) error
}

// EngineConfig holds the timing knobs of the scan loop.
type EngineConfig struct {
	// SettleDelay is how long a raw transition must persist before it is accepted.
	SettleDelay time.Duration

	// ScanInterval is the sleep between ticks.
	ScanInterval time.Duration

	// DoublePressWindow is the maximum gap between the first release and the
	// second press of a double click.
	DoublePressWindow time.Duration

	// DeferClick holds a Clicked back until the double press window has passed
	// without a second press, so a double click yields only DoubleClicked.
	// A phase A change inside the window releases the held Clicked early, as
	// does stopping the scan loop.
	DeferClick bool
}

// DefaultEngineConfig returns the stock timing.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SettleDelay:       defaultSettleDelay,
		ScanInterval:      defaultScanInterval,
		DoublePressWindow: defaultDoublePressWindow,
	}
}

// engineState persists across ticks.
type engineState struct {
	a      edgeDetector
	button edgeDetector

	position Position

	// lastRelease is the clock reading of the first release of a possible
	// double click. It is only meaningful while lastReleaseValid is set.
	lastRelease      time.Duration
	lastReleaseValid bool

	held             bool
	rotatedWhileHeld bool
	secondPress      bool

	// pendingClick is a Clicked held back by DeferClick.
	pendingClick bool
}

// EngineSnapshot is a copy of the engine state handed to other goroutines.
type EngineSnapshot struct {
	Position         Position `json:"position"`
	Held             bool     `json:"held"`
	RotatedWhileHeld bool     `json:"rotated_while_held"`
	SecondPress      bool     `json:"second_press"`
	PendingClick     bool     `json:"pending_click"`
	LevelA           string   `json:"level_a"`
	LevelButton      string   `json:"level_button"`
	Ticks            uint64   `json:"ticks"`
	Published        uint64   `json:"published"`
	Glitches         uint64   `json:"glitches"`
}

// Engine converts pin samples into events.
type Engine struct {
	cfg    EngineConfig
	pins   Pins
	clock  Clock
	sink   Publisher
	logger *slog.Logger

	state engineState

	ticks     uint64
	published uint64
	glitches  uint64

	snapshots chan chan EngineSnapshot
}

// NewEngine samples the initial pin levels and returns an engine ready to Run.
func NewEngine(pins Pins, clock Clock, sink Publisher, cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		pins:   pins,
		clock:  clock,
		sink:   sink,
		logger: logger,
		state: engineState{
			a:      newEdgeDetector(pins.A.Read()),
			button: newEdgeDetector(pins.Button.Read()),
		},
		snapshots: make(chan chan EngineSnapshot, 8),
	}
}

// Run scans until ctx is canceled. A publish failure stops the loop and is returned.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("scan loop starting",
		"defer_click", e.cfg.DeferClick,
		"settle", e.cfg.SettleDelay,
		"scan_interval", e.cfg.ScanInterval,
		"double_press_window", e.cfg.DoublePressWindow)

	for {
		select {
		case <-ctx.Done():
			// A deferred click is already complete; it must not die with the loop.
			if e.state.pendingClick {
				e.state.pendingClick = false
				if err := e.publish(Clicked{}); err != nil {
					return err
				}
			}
			e.logger.Info("scan loop stopping (context canceled)", "ticks", e.ticks, "published", e.published)
			return nil
		default:
		}

		if err := e.publish(e.Step()); err != nil {
			return err
		}
		e.serveSnapshots()
		e.clock.Sleep(e.cfg.ScanInterval)
	}
}

// Step runs one tick and returns its event, which may be Empty.
// It does not publish.
func (e *Engine) Step() Event {
	e.ticks++

	if ev, ok := e.flushPendingClick(); ok {
		return ev
	}

	rot := e.scanRotation()
	press := e.scanButton()

	if e.state.held && rot != rotationNone {
		e.state.rotatedWhileHeld = true
	}

	ev := arbitrate(rot, press, e.state.position, e.state.rotatedWhileHeld)
	if _, ok := ev.(Clicked); ok && e.cfg.DeferClick {
		e.state.pendingClick = true
		return Empty{}
	}
	if isEmpty(ev) && (rot != rotationNone || (press != pressNone && press != Pressed)) {
		e.logger.Debug("tick produced no event", "rotation", rot, "press", press, "rotated_while_held", e.state.rotatedWhileHeld)
	}
	return ev
}

// flushPendingClick releases a deferred Clicked once the double press window
// has expired. It also releases it early when phase A is about to change, so
// the click is never published after a rotation that followed it. The pins
// are not sampled on a tick that releases a click; the next tick picks up any
// transition.
func (e *Engine) flushPendingClick() (Event, bool) {
	if !e.state.pendingClick {
		return nil, false
	}
	expired := e.clock.Elapsed()-e.state.lastRelease > e.cfg.DoublePressWindow
	if !expired && e.pins.A.Read() == e.state.a.previous {
		return nil, false
	}
	e.state.pendingClick = false
	return Clicked{}, true
}

func (e *Engine) publish(ev Event) error {
	if isEmpty(ev) {
		return nil
	}
	if err := e.sink.Publish(ev); err != nil {
		return fmt.Errorf("publish %s: %w", eventTypeName(ev), err)
	}
	e.published++
	return nil
}

// scanRotation debounces phase A and decodes a confirmed edge against phase B.
func (e *Engine) scanRotation() RotationStatus {
	level, changed, settled := e.state.a.detect(e.pins.A, e.cfg.SettleDelay, e.clock)
	if !changed {
		if settled {
			e.glitches++
			e.logger.Debug("phase A glitch rejected", "level", level)
		}
		return rotationNone
	}

	status := decodeQuadrature(level, e.pins.B.Read())
	e.state.position = e.state.position.advance(status)
	return status
}

// scanButton debounces the button and classifies press, release and double press.
// A held button keeps reporting Pressed on ticks without an edge.
func (e *Engine) scanButton() PressStatus {
	level, changed, settled := e.state.button.detect(e.pins.Button, e.cfg.SettleDelay, e.clock)
	if !changed {
		if settled {
			e.glitches++
			e.logger.Debug("button glitch rejected", "level", level)
		}
		if e.state.held {
			return Pressed
		}
		return pressNone
	}

	now := e.clock.Elapsed()

	// Active low: falling edge is a press.
	if level == Low {
		e.state.held = true
		e.state.rotatedWhileHeld = false
		if e.state.lastReleaseValid && now-e.state.lastRelease <= e.cfg.DoublePressWindow {
			e.state.secondPress = true
			e.state.pendingClick = false
			return TwicePressed
		}
		return Pressed
	}

	e.state.held = false
	if e.state.secondPress {
		e.state.secondPress = false
		e.state.lastReleaseValid = false
		return TwiceReleased
	}
	e.state.lastRelease = now
	e.state.lastReleaseValid = true
	return Released
}

// Snapshot asks the scan goroutine for a copy of its state.
// It blocks until the next tick boundary or until ctx is done.
func (e *Engine) Snapshot(ctx context.Context) (EngineSnapshot, error) {
	reply := make(chan EngineSnapshot, 1)

	select {
	case <-ctx.Done():
		return EngineSnapshot{}, ctx.Err()
	case e.snapshots <- reply:
	}

	select {
	case <-ctx.Done():
		return EngineSnapshot{}, ctx.Err()
	case snap := <-reply:
		return snap, nil
	}
}

func (e *Engine) serveSnapshots() {
	for {
		select {
		case reply := <-e.snapshots:
			reply <- e.snapshot()
		default:
			return
		}
	}
}

func (e *Engine) snapshot() EngineSnapshot {
	return EngineSnapshot{
		Position:         e.state.position,
		Held:             e.state.held,
		RotatedWhileHeld: e.state.rotatedWhileHeld,
		SecondPress:      e.state.secondPress,
		PendingClick:     e.state.pendingClick,
		LevelA:           e.state.a.previous.String(),
		LevelButton:      e.state.button.previous.String(),
		Ticks:            e.ticks,
		Published:        e.published,
		Glitches:         e.glitches,
	}
}
