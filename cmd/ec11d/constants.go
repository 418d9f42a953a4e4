package main

import "time"

// Scan timing defaults
const (
	defaultSettleDelay       = 1 * time.Millisecond   // Re-sample delay after a raw transition
	defaultScanInterval      = 1 * time.Millisecond   // Sleep between ticks
	defaultDoublePressWindow = 200 * time.Millisecond // First release to second press
)

// Default pin mapping (button GPIO2, A GPIO3, B GPIO4)
const (
	defaultPinA      = "GPIO3"
	defaultPinB      = "GPIO4"
	defaultPinButton = "GPIO2"

	defaultChip       = "gpiochip0"
	defaultLineA      = 3
	defaultLineB      = 4
	defaultLineButton = 2
)

// GPIO backends
const (
	backendPeriph = "periph"
	backendCdev   = "cdev"
	backendSim    = "sim"
)

const (
	defaultIPCSocket   = "/tmp/ec11d.sock"
	defaultHTTPPort    = 3011
	defaultWSPath      = "/ws/events"
	defaultWarnBacklog = 256 // Queue backlog that triggers a warning
	defaultSpinWindow  = 200 // Spin tracker window (ms)

	// Simulated gesture timing
	simStepHold   = 5 * time.Millisecond  // Time each quadrature phase is held
	simClickHold  = 40 * time.Millisecond // Button down time for a click
	simDoubleGap  = 80 * time.Millisecond // Gap between the two clicks of a double click
	simMaxGesture = 1000                  // Upper bound for gesture repeat counts
)
