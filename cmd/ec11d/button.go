package main

import "fmt"

// PressStatus is the button's contribution to a tick. The zero value is "none".
type PressStatus int

const (
	pressNone PressStatus = iota
	Pressed
	Released
	TwicePressed
	TwiceReleased
)

func (s PressStatus) String() string {
	switch s {
	case pressNone:
		return "none"
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case TwicePressed:
		return "twice_pressed"
	case TwiceReleased:
		return "twice_released"
	default:
		return fmt.Sprintf("press(%d)", int(s))
	}
}
