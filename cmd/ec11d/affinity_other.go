//go:build !linux

package main

import (
	"errors"
	"runtime"
)

var errAffinityUnsupported = errors.New("cpu affinity is only supported on linux")

// pinScanThread locks the OS thread; CPU pinning is Linux-only.
func pinScanThread(cpu int, lockThread bool) (func(), error) {
	if !lockThread && cpu < 0 {
		return func() {}, nil
	}

	runtime.LockOSThread()
	if cpu >= 0 {
		return runtime.UnlockOSThread, errAffinityUnsupported
	}
	return runtime.UnlockOSThread, nil
}
