// Package ws2812b converts RGB pixel frames into the duty-cycle cells that
// drive a WS2812B ring through a PWM compare register.
package ws2812b

const (
	// LEDs is the ring length.
	LEDs = 24
	// FrameSize is one RGB frame: LEDs x (R, G, B).
	FrameSize = LEDs * 3
	// CellsPerLED is one duty cell per bit of G, R and B.
	CellsPerLED = 24
	// Cells is the number of data cells per refresh.
	Cells = LEDs * CellsPerLED
	// BufferSize adds the trailing reset cell.
	BufferSize = Cells + 1
)

// Duty codes for one PWM period of the LED carrier.
const (
	Zero  byte = 3 // short high pulse: bit value 0
	One   byte = 7 // long high pulse: bit value 1
	Reset byte = 0 // line held low: latches the chain
)

// Frame is one inbound pixel frame in R, G, B order per LED.
type Frame [FrameSize]byte

// Buffer is one refresh worth of duty cells.
type Buffer [BufferSize]byte

// Encode expands src into dst. Each LED is sent as G, R, B, each channel
// most significant bit first; the last cell is always Reset.
func Encode(dst *Buffer, src *Frame) {
	cell := 0
	for led := 0; led < LEDs; led++ {
		r, g, b := src[3*led], src[3*led+1], src[3*led+2]
		// NOTE these LEDs use the GRB format
		for _, channel := range [3]byte{g, r, b} {
			for bit := 7; bit >= 0; bit-- {
				if channel&(1<<bit) == 0 {
					dst[cell] = Zero
				} else {
					dst[cell] = One
				}
				cell++
			}
		}
	}
	dst[Cells] = Reset
}

// Decode recovers the RGB frame carried by src. Cells at or above the
// midpoint between Zero and One read as 1. It reports false if the reset
// cell is not low.
func Decode(dst *Frame, src *Buffer) bool {
	const threshold = (Zero + One + 1) / 2
	cell := 0
	for led := 0; led < LEDs; led++ {
		var grb [3]byte
		for ch := range grb {
			var v byte
			for bit := 0; bit < 8; bit++ {
				v <<= 1
				if src[cell] >= threshold {
					v |= 1
				}
				cell++
			}
			grb[ch] = v
		}
		dst[3*led], dst[3*led+1], dst[3*led+2] = grb[1], grb[0], grb[2]
	}
	return src[Cells] == Reset
}
