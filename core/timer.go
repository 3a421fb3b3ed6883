package core

// Clock is the free-running cycle counter and the low-power wait used by
// the idle loop.
type Clock interface {
	// Cycles returns the counter. It wraps at 2^32.
	Cycles() uint32
	// WaitForInterrupt sleeps until an interrupt is pending. It returns even
	// when interrupts are masked; the handler then runs once they are unmasked.
	WaitForInterrupt()
}

// Elapsed returns the cycles between two counter readings, across one wrap.
func Elapsed(before, after uint32) uint32 {
	return after - before
}

// CyclesFromUS converts microseconds to cycles of a clock running at hz.
// The product must fit in 64 bits: at 72 MHz that is about 70 hours.
func CyclesFromUS(us uint64, hz uint32) uint64 {
	return us * uint64(hz) / 1000000
}

// CyclesToUS converts cycles of a clock running at hz to microseconds.
func CyclesToUS(cycles uint64, hz uint32) uint64 {
	return cycles * 1000000 / uint64(hz)
}
