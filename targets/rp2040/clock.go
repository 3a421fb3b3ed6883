//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"device/arm"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word

	// ClockHz is the rate of the cycle source the firmware measures with.
	ClockHz = 1000000
)

var (
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// hwClock counts with the 1 MHz system timer. The Cortex-M0+ has no cycle
// counter, so sleep and busy time are measured in microseconds.
type hwClock struct{}

// Cycles returns the low 32 bits of the microsecond counter
func (hwClock) Cycles() uint32 {
	return timerRAWL.Get()
}

// WaitForInterrupt sleeps until an interrupt is pending. It is called with
// interrupts masked; the pending line wakes the core without being taken.
func (hwClock) WaitForInterrupt() {
	arm.Asm("wfi")
}
