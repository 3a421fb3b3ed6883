package firmware

import (
	"ledring/core"
	"ledring/dma"
)

// Timer is a peripheral timer whose update event raises an interrupt line.
type Timer interface {
	// Resume lets the counter run.
	Resume()
	// Restart reloads the counter so the next update is a full period away.
	Restart()
	// Pause stops the counter without clearing a pending update.
	Pause()
	// Running reports whether the counter runs.
	Running() bool
	// Wait acknowledges the update event. It fails if no update is pending.
	Wait() error
}

// Board is everything the firmware needs from the platform. Peripheral
// bring-up (clocks, pins, baud and carrier setup) happens before New.
type Board struct {
	Clock     core.Clock
	RX        dma.Channel // serial receive, 72-byte transfers
	TX        dma.Channel // serial transmit, 13-byte transfers
	LED       dma.Channel // PWM compare feed, 577-byte transfers
	Latch     Timer       // one-shot latch delay, raises IRQLatch
	Telemetry Timer       // periodic, raises IRQTelemetry
	// OnFault reacts to a fatal fault, typically by resetting the device.
	OnFault core.FaultHandler
}
