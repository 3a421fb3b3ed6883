package firmware

import (
	"ledring/core"
	"ledring/protocol"
)

// log snapshots the counters, sends them and starts the next period from
// zero. It does not count itself as a context switch.
func (f *Firmware) log(t core.Threshold) {
	if err := (*f.telemetryTimer.Borrow(t)).Wait(); err != nil {
		f.fault(t, "log", err)
		return
	}

	snapshot := (*f.clock.Borrow(t)).Cycles()
	contextSwitches := f.contextSwitches.Borrow(t)
	frames := f.frames.Borrow(t)
	sleepCycles := f.sleepCycles.Borrow(t)

	state := protocol.State{
		ContextSwitches: *contextSwitches,
		Frames:          *frames,
		SleepCycles:     *sleepCycles,
		Snapshot:        snapshot,
	}

	tx := f.txBuf.Borrow(t)
	tx.Access(func(p []byte) {
		state.Serialize((*[protocol.FrameSize]byte)(p))
	})
	if err := tx.Submit(); err != nil {
		f.fault(t, "log", err)
		return
	}
	f.rt.Trace().Record(core.EvtTelemetry, uint8(IRQTelemetry), snapshot, uint32(state.ContextSwitches), state.SleepCycles)

	*contextSwitches = 0
	*frames = 0
	*sleepCycles = 0
}

// txTransferDone returns the telemetry buffer to the CPU.
func (f *Firmware) txTransferDone(t core.Threshold) {
	f.countSwitch(t)

	if err := f.txBuf.Borrow(t).Release(); err != nil {
		f.fault(t, "tx_transfer_done", err)
		return
	}
	f.record(t, core.EvtTxDone, IRQTxDone, 0, 0)
}

// Counters returns the current, unreported counter values.
func (f *Firmware) Counters() protocol.State {
	var s protocol.State
	f.rt.Inspect(func(t core.Threshold) {
		s = protocol.State{
			ContextSwitches: *f.contextSwitches.Borrow(t),
			Frames:          *f.frames.Borrow(t),
			SleepCycles:     *f.sleepCycles.Borrow(t),
			Snapshot:        (*f.clock.Borrow(t)).Cycles(),
		}
	})
	return s
}

// Frame returns a copy of the working RGB array, the frame last accepted.
func (f *Firmware) Frame() [protocol.PixelFrameSize]byte {
	var out [protocol.PixelFrameSize]byte
	f.rt.Inspect(func(t core.Threshold) {
		out = *f.rgb.Borrow(t)
	})
	return out
}
