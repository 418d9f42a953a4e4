//go:build linux

package main

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// pinScanThread locks the calling goroutine to its OS thread and, when cpu >= 0,
// restricts that thread to a single CPU.
//
// Must be called from the scan goroutine itself. The returned func undoes the
// thread lock.
func pinScanThread(cpu int, lockThread bool) (func(), error) {
	if !lockThread && cpu < 0 {
		return func() {}, nil
	}

	runtime.LockOSThread()
	unlock := runtime.UnlockOSThread

	if cpu < 0 {
		return unlock, nil
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)

	// pid 0 = calling thread
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		unlock()
		return func() {}, fmt.Errorf("sched_setaffinity cpu=%d: %w", cpu, err)
	}
	return unlock, nil
}
