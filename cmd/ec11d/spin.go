package main

import (
	"sync"
	"time"
)

// spinTracker tracks recent detents to report how fast the knob is being spun.
// The count is an annotation on consumer output; it never alters events.
//
// Thread-safe: the consumer and the IPC status handler may both use it.
type spinTracker struct {
	recentSteps []spinStep
	window      time.Duration
	now         func() time.Time
	mu          sync.Mutex
}

// spinStep records a single completed detent
type spinStep struct {
	timestamp time.Time
	direction Direction
}

// newSpinTracker creates a tracker with the given burst window
func newSpinTracker(window time.Duration) *spinTracker {
	return &spinTracker{
		recentSteps: make([]spinStep, 0, 16), // Pre-allocate small capacity
		window:      window,
		now:         time.Now,
	}
}

// addStep records a detent and returns the count of recent steps in the same
// direction within the window, including this one.
func (s *spinTracker) addStep(direction Direction) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	s.recentSteps = append(s.recentSteps, spinStep{
		timestamp: now,
		direction: direction,
	})

	sameDir := 0
	for _, st := range s.recentSteps {
		if st.direction == direction {
			sameDir++
		}
	}
	return sameDir
}

// burst returns the number of steps still inside the window, per direction.
func (s *spinTracker) burst() (cw, ccw int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	for _, st := range s.recentSteps {
		if st.direction == Clockwise {
			cw++
		} else {
			ccw++
		}
	}
	return cw, ccw
}

func (s *spinTracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)

	filtered := s.recentSteps[:0] // reuse underlying array
	for _, st := range s.recentSteps {
		if st.timestamp.After(cutoff) {
			filtered = append(filtered, st)
		}
	}
	s.recentSteps = filtered
}
