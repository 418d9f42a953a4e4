package main

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Event Types
// ============================================================================
// Events are the semantic output of the scan loop. Exactly one (possibly Empty)
// is computed per tick; only non-Empty events reach the queue.
// ============================================================================

// Event is a marker interface for all encoder events.
type Event interface {
	eventMarker()
}

// Clicked is a single press and release with no rotation while held.
type Clicked struct{}

func (Clicked) eventMarker() {}

// DoubleClicked is a second release whose press began inside the double press window.
type DoubleClicked struct{}

func (DoubleClicked) eventMarker() {}

// Rotate is a completed detent with the button up.
type Rotate struct {
	Direction Direction     `json:"direction"`
	Position  Position      `json:"position"`
	Delta     PositionDelta `json:"delta"`
}

func (Rotate) eventMarker() {}

// ClickedRotate is a completed detent while the button is held.
type ClickedRotate struct {
	Direction Direction     `json:"direction"`
	Position  Position      `json:"position"`
	Delta     PositionDelta `json:"delta"`
}

func (ClickedRotate) eventMarker() {}

// Empty means nothing user-visible happened this tick. It is never published.
type Empty struct{}

func (Empty) eventMarker() {}

// isEmpty reports whether ev carries nothing to publish.
func isEmpty(ev Event) bool {
	if ev == nil {
		return true
	}
	_, ok := ev.(Empty)
	return ok
}

// eventTypeName returns the wire discriminator for ev.
func eventTypeName(ev Event) string {
	switch ev.(type) {
	case Clicked:
		return "clicked"
	case DoubleClicked:
		return "double_clicked"
	case Rotate:
		return "rotate"
	case ClickedRotate:
		return "clicked_rotate"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("%T", ev)
	}
}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// newEventEnvelope builds the {type, data} envelope for a publishable event.
// The stream and MarshalEvent share it, so both carry the same payload.
func newEventEnvelope(e Event) (EventEnvelope, error) {
	var env EventEnvelope

	switch e := e.(type) {
	case Clicked:
		env.Type = "clicked"
	case DoubleClicked:
		env.Type = "double_clicked"

	case Rotate:
		env.Type = "rotate"
		data, err := json.Marshal(e)
		if err != nil {
			return EventEnvelope{}, fmt.Errorf("marshal Rotate: %w", err)
		}
		env.Data = data

	case ClickedRotate:
		env.Type = "clicked_rotate"
		data, err := json.Marshal(e)
		if err != nil {
			return EventEnvelope{}, fmt.Errorf("marshal ClickedRotate: %w", err)
		}
		env.Data = data

	default:
		return EventEnvelope{}, fmt.Errorf("unsupported event type: %T", e)
	}

	return env, nil
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator
func MarshalEvent(e Event) ([]byte, error) {
	env, err := newEventEnvelope(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "clicked":
		return Clicked{}, nil
	case "double_clicked":
		return DoubleClicked{}, nil

	case "rotate":
		var ev Rotate
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("unmarshal Rotate: %w", err)
		}
		return ev, nil

	case "clicked_rotate":
		var ev ClickedRotate
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("unmarshal ClickedRotate: %w", err)
		}
		return ev, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}
