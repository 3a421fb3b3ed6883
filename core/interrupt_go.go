//go:build !tinygo

package core

// irqState is a placeholder for interrupt state on regular Go
type irqState uintptr

// disableInterrupts is a no-op on regular Go. Hosted builds deliver every
// interrupt synchronously through Runtime.Interrupt, so the dispatcher's
// level bookkeeping is the only masking there is.
func disableInterrupts() irqState {
	return 0
}

// restoreInterrupts is a no-op on regular Go (for testing)
func restoreInterrupts(state irqState) {
	// No-op
}
