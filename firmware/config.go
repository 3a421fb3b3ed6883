package firmware

import "ledring/core"

// Compile-time configuration. The LED count and the duty codes are fixed by
// the ws2812b encoder.
const (
	BaudRate     = 115200 // serial link, both directions
	LEDCarrierHz = 400000 // PWM period of one duty cell
	LatchDelayUS = 50     // minimum low time after a refresh
	TelemetryHz  = 1      // telemetry report rate
)

// Interrupt lines. Each is bound to exactly one task.
const (
	IRQLEDDone    core.TaskID = iota // LED PWM DMA complete
	IRQTxDone                        // telemetry serial DMA complete
	IRQRxDone                        // pixel serial DMA complete
	IRQFrameStart                    // software-requested frame encode
	IRQLatch                         // latch-delay timer expired
	IRQTelemetry                     // telemetry timer tick
)

// Task priorities. Every task shares one level, so none preempts another
// and each resource ceiling equals it.
const (
	PriorityLEDDone    core.Priority = 1
	PriorityTxDone     core.Priority = 1
	PriorityRxDone     core.Priority = 1
	PriorityFrameStart core.Priority = 1
	PriorityLatch      core.Priority = 1
	PriorityTelemetry  core.Priority = 1
)

// LatchCycles is the latch timer period, in cycles of a clock at hz, for an
// LED output whose DMA completes with queued cells not yet on the line. The
// timer starts at completion, so it waits for those cells too.
func LatchCycles(hz, queued uint32) uint64 {
	tailUS := (uint64(queued)*1000000 + LEDCarrierHz - 1) / LEDCarrierHz
	return core.CyclesFromUS(LatchDelayUS+tailUS, hz)
}
