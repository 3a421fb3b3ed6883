// Package protocol implements the wire formats of the LED ring link: the
// inbound pixel stream and the outbound telemetry frames.
package protocol

// Pixel stream constants
const (
	PixelFrameSize = 72 // 24 LEDs x (R, G, B), no framing bytes
)

// Telemetry frame constants
const (
	Head = 0xAA // sync head
	Tail = 0x55 // sync tail

	FrameSize   = 13 // head + payload + tail
	PayloadSize = 11 // bytes between head and tail

	offsetSnapshot        = 1
	offsetSleepCycles     = 5
	offsetContextSwitches = 9
	offsetFrames          = 11
	offsetTail            = 12
)
