package main

import "fmt"

// Direction is the sense of an encoder rotation.
type Direction int

const (
	Clockwise Direction = iota
	CounterClockwise
)

func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "cw"
	case CounterClockwise:
		return "ccw"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// MarshalText encodes the direction as "cw" or "ccw".
func (d Direction) MarshalText() ([]byte, error) {
	switch d {
	case Clockwise, CounterClockwise:
		return []byte(d.String()), nil
	default:
		return nil, fmt.Errorf("invalid direction: %d", int(d))
	}
}

// UnmarshalText accepts "cw" or "ccw".
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "cw":
		*d = Clockwise
	case "ccw":
		*d = CounterClockwise
	default:
		return fmt.Errorf("invalid direction: %q", string(b))
	}
	return nil
}

// Position is the cumulative encoder position since start.
// It wraps silently on overflow.
type Position int32

// PositionDelta is the contribution of a single completed detent (+1 or -1).
type PositionDelta int8

// RotationStatus is what a confirmed phase A edge means for this tick.
// The zero value is "no rotation".
type RotationStatus int

const (
	rotationNone RotationStatus = iota
	ClockwiseStart
	ClockwiseEnd
	CounterClockwiseStart
	CounterClockwiseEnd
)

func (s RotationStatus) String() string {
	switch s {
	case rotationNone:
		return "none"
	case ClockwiseStart:
		return "cw_start"
	case ClockwiseEnd:
		return "cw_end"
	case CounterClockwiseStart:
		return "ccw_start"
	case CounterClockwiseEnd:
		return "ccw_end"
	default:
		return fmt.Sprintf("rotation(%d)", int(s))
	}
}

// decodeQuadrature classifies a confirmed A edge using B as the direction line.
//
//	A falls, B high: clockwise start
//	A falls, B low:  counter-clockwise start
//	A rises, B low:  clockwise end
//	A rises, B high: counter-clockwise end
func decodeQuadrature(a, b Level) RotationStatus {
	if a == Low {
		if b == High {
			return ClockwiseStart
		}
		return CounterClockwiseStart
	}
	if b == Low {
		return ClockwiseEnd
	}
	return CounterClockwiseEnd
}

// advance applies an End status to the position. Start statuses never move it.
func (p Position) advance(s RotationStatus) Position {
	switch s {
	case ClockwiseEnd:
		return p + 1
	case CounterClockwiseEnd:
		return p - 1
	default:
		return p
	}
}
