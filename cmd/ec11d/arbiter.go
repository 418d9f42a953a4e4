package main

// arbitrate combines the rotation and press statuses of one tick into an Event.
//
// pos is the position after this tick's rotation was applied. Any combination
// not listed below is Empty; the scan loop never fails on odd simultaneous
// signals.
func arbitrate(rot RotationStatus, press PressStatus, pos Position, rotatedWhileHeld bool) Event {
	switch {
	case rot == rotationNone && press == pressNone:
		return Empty{}

	case rot == rotationNone && press == Released:
		if rotatedWhileHeld {
			return Empty{}
		}
		return Clicked{}

	case rot == rotationNone && press == TwiceReleased:
		return DoubleClicked{}

	case rot == ClockwiseEnd && press == pressNone:
		return Rotate{Direction: Clockwise, Position: pos, Delta: 1}

	case rot == CounterClockwiseEnd && press == pressNone:
		return Rotate{Direction: CounterClockwise, Position: pos, Delta: -1}

	case rot == ClockwiseEnd && press == Pressed:
		return ClickedRotate{Direction: Clockwise, Position: pos, Delta: 1}

	case rot == CounterClockwiseEnd && press == Pressed:
		return ClickedRotate{Direction: CounterClockwise, Position: pos, Delta: -1}

	default:
		return Empty{}
	}
}
