package main

import "time"

// Level is a sampled digital pin level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Pin is a digital input sampled on demand.
// Reads are infallible: a backend that can fail must deal with it itself.
type Pin interface {
	Read() Level
}

// Pins groups the three encoder inputs.
type Pins struct {
	A      Pin // phase A, used as the clock line
	B      Pin // phase B, sampled when an A edge is confirmed
	Button Pin // active-low push button
}

// Clock is a monotonic time source with a blocking sleep.
type Clock interface {
	// Elapsed returns the time since the clock was created.
	Elapsed() time.Duration
	Sleep(d time.Duration)
}

type monotonicClock struct {
	start time.Time
}

func newMonotonicClock() *monotonicClock {
	return &monotonicClock{start: time.Now()}
}

// time.Since uses the monotonic reading captured by time.Now.
func (c *monotonicClock) Elapsed() time.Duration { return time.Since(c.start) }

func (c *monotonicClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
