package main

import "testing"

func TestOpenPins_Sim(t *testing.T) {
	opened, err := openPins(GPIOConfig{Backend: backendSim}, testLogger())
	if err != nil {
		t.Fatalf("open sim: %v", err)
	}
	defer opened.Close()

	if opened.Sim == nil {
		t.Fatalf("expected sim board for the sim backend")
	}
	if opened.Pins.A.Read() != High || opened.Pins.B.Read() != High || opened.Pins.Button.Read() != High {
		t.Errorf("expected sim pins to idle high")
	}

	_ = opened.Sim.SetLevel("b", Low)
	if opened.Pins.B.Read() != Low {
		t.Errorf("expected Pins.B to follow the sim board")
	}
}

func TestOpenPins_UnknownBackend(t *testing.T) {
	if _, err := openPins(GPIOConfig{Backend: "spi"}, testLogger()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestPinScanThread_Disabled(t *testing.T) {
	unlock, err := pinScanThread(-1, false)
	if err != nil {
		t.Fatalf("expected no error when placement is disabled, got %v", err)
	}
	unlock()
}

func TestPinScanThread_LockOnly(t *testing.T) {
	unlock, err := pinScanThread(-1, true)
	if err != nil {
		t.Fatalf("expected no error for a plain thread lock, got %v", err)
	}
	unlock()
}
