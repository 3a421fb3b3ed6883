package firmware

import (
	"ledring/core"
	"ledring/dma"
	"ledring/ws2812b"
)

// Phase is the frame pipeline position, derived from the busy flag, the
// LED buffer owner and the latch timer.
type Phase uint8

const (
	Idle         Phase = iota // ready for a frame
	Encoding                  // frame accepted, encode pending
	Transmitting              // LED DMA in flight
	Latching                  // latch delay running
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Encoding:
		return "encoding"
	case Transmitting:
		return "transmitting"
	case Latching:
		return "latching"
	}
	return "unknown"
}

// Phase reports where the pipeline is. It masks every task while it reads.
func (f *Firmware) Phase() Phase {
	phase := Idle
	f.rt.Inspect(func(t core.Threshold) {
		switch {
		case !*f.busy.Borrow(t):
			phase = Idle
		case f.ledBuf.Borrow(t).Owner() == dma.DMA:
			phase = Transmitting
		case (*f.latch.Borrow(t)).Running():
			phase = Latching
		default:
			phase = Encoding
		}
	})
	return phase
}

// rx runs when a full pixel frame has landed in the receive buffer. The
// receiver is re-armed every time; a frame arriving while the pipeline is
// busy is dropped.
func (f *Firmware) rx(t core.Threshold) {
	f.countSwitch(t)

	rx := f.rxBuf.Borrow(t)
	if err := rx.Release(); err != nil {
		f.fault(t, "rx", err)
		return
	}

	busy := f.busy.Borrow(t)
	if !*busy {
		rgb := f.rgb.Borrow(t)
		rx.Access(func(p []byte) {
			copy(rgb[:], p)
		})
		*busy = true
		f.record(t, core.EvtRx, IRQRxDone, 0, 0)
		f.rt.Request(t, IRQFrameStart)
	} else {
		f.record(t, core.EvtDrop, IRQRxDone, 0, 0)
	}

	if err := rx.Submit(); err != nil {
		f.fault(t, "rx", err)
	}
}

// frameStart encodes the working frame and starts the LED transfer.
func (f *Firmware) frameStart(t core.Threshold) {
	f.countSwitch(t)

	rgb := f.rgb.Borrow(t)
	leds := f.ledBuf.Borrow(t)
	leds.Access(func(p []byte) {
		ws2812b.Encode((*ws2812b.Buffer)(p), rgb)
	})
	if err := leds.Submit(); err != nil {
		f.fault(t, "frame_start", err)
		return
	}
	f.record(t, core.EvtFrameStart, IRQFrameStart, ws2812b.BufferSize, 0)
}

// frameTailStart runs when the last duty cell has been clocked out. The
// line now has to stay low for the latch delay.
func (f *Firmware) frameTailStart(t core.Threshold) {
	f.countSwitch(t)

	if err := f.ledBuf.Borrow(t).Release(); err != nil {
		f.fault(t, "frame_tail_start", err)
		return
	}

	latch := *f.latch.Borrow(t)
	latch.Resume()
	latch.Restart()
	f.record(t, core.EvtLEDDone, IRQLEDDone, 0, 0)
}

// frameEnd closes the pipeline cycle once the latch delay has passed.
func (f *Firmware) frameEnd(t core.Threshold) {
	f.countSwitch(t)

	latch := *f.latch.Borrow(t)
	if err := latch.Wait(); err != nil {
		f.fault(t, "frame_end", err)
		return
	}
	latch.Pause()

	*f.busy.Borrow(t) = false
	frames := f.frames.Borrow(t)
	*frames++
	f.record(t, core.EvtFrameEnd, IRQLatch, uint32(*frames), 0)
}
