package main

import "time"

// edgeDetector accepts a level change only if it persists past a settle delay.
type edgeDetector struct {
	previous Level
}

func newEdgeDetector(initial Level) edgeDetector {
	return edgeDetector{previous: initial}
}

// detect samples pin and reports a confirmed transition.
//
// When the sampled level differs from the last accepted one, it sleeps for
// settle and samples again. Only a level that still differs is accepted and
// becomes the new previous level. A transition that does not survive the
// re-sample is noise and leaves the detector untouched.
//
// settled reports whether the settle sleep was taken, so callers can count
// rejected glitches.
func (d *edgeDetector) detect(pin Pin, settle time.Duration, clock Clock) (level Level, changed bool, settled bool) {
	if pin.Read() == d.previous {
		return d.previous, false, false
	}

	clock.Sleep(settle)

	level = pin.Read()
	if level == d.previous {
		return d.previous, false, true
	}

	d.previous = level
	return level, true, true
}
