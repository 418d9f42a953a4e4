package main

import (
	"context"
	"fmt"
	"time"
)

// simStep drives one pin and holds the new level for a while.
type simStep struct {
	pin   *simPin
	level Level
	hold  time.Duration
}

// Gesture names accepted by the sim backend.
var gestureNames = []string{"cw", "ccw", "click", "double_click", "hold_cw", "hold_ccw"}

// detent returns one full quadrature cycle starting and ending with A and B high.
func (s *simBoard) detent(dir Direction) []simStep {
	if dir == Clockwise {
		// A leads: A falls with B high, A rises with B low.
		return []simStep{
			{s.a, Low, simStepHold},
			{s.b, Low, simStepHold},
			{s.a, High, simStepHold},
			{s.b, High, simStepHold},
		}
	}
	// B leads: A falls with B low, A rises with B high.
	return []simStep{
		{s.b, Low, simStepHold},
		{s.a, Low, simStepHold},
		{s.b, High, simStepHold},
		{s.a, High, simStepHold},
	}
}

func (s *simBoard) click(releaseHold time.Duration) []simStep {
	return []simStep{
		{s.button, Low, simClickHold},
		{s.button, High, releaseHold},
	}
}

// gestureSteps expands a named gesture into a pin script.
func (s *simBoard) gestureSteps(name string, count int, clickGap time.Duration) ([]simStep, error) {
	if count <= 0 {
		count = 1
	}
	if count > simMaxGesture {
		return nil, fmt.Errorf("gesture count %d exceeds %d", count, simMaxGesture)
	}

	var steps []simStep
	switch name {
	case "cw", "ccw":
		dir := Clockwise
		if name == "ccw" {
			dir = CounterClockwise
		}
		for i := 0; i < count; i++ {
			steps = append(steps, s.detent(dir)...)
		}

	case "click":
		// Clicks are spaced past the double press window so each stands alone.
		for i := 0; i < count; i++ {
			steps = append(steps, s.click(clickGap)...)
		}

	case "double_click":
		for i := 0; i < count; i++ {
			steps = append(steps, s.click(simDoubleGap)...)
			steps = append(steps, s.click(clickGap)...)
		}

	case "hold_cw", "hold_ccw":
		dir := Clockwise
		if name == "hold_ccw" {
			dir = CounterClockwise
		}
		steps = append(steps, simStep{s.button, Low, simClickHold})
		for i := 0; i < count; i++ {
			steps = append(steps, s.detent(dir)...)
		}
		steps = append(steps, simStep{s.button, High, clickGap})

	default:
		return nil, fmt.Errorf("unknown gesture %q (must be one of %v)", name, gestureNames)
	}
	return steps, nil
}

// PlayGesture runs a gesture script against the virtual pins. It returns when
// the script is done or ctx is canceled; on cancel all pins go back to idle.
func (s *simBoard) PlayGesture(ctx context.Context, name string, count int, clickGap time.Duration) error {
	steps, err := s.gestureSteps(name, count, clickGap)
	if err != nil {
		return err
	}

	s.gestureMu.Lock()
	defer s.gestureMu.Unlock()

	for _, st := range steps {
		st.pin.set(st.level)
		if err := s.sleep(ctx, st.hold); err != nil {
			s.idle()
			return fmt.Errorf("gesture %s interrupted: %w", name, err)
		}
	}
	return nil
}

func (s *simBoard) idle() {
	s.a.set(High)
	s.b.set(High)
	s.button.set(High)
}
