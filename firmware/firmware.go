// Package firmware is the LED ring controller: it receives RGB frames over
// the serial link, renders them through the WS2812B duty-cycle encoder and
// reports runtime health back over the same link.
package firmware

import (
	"context"

	"ledring/core"
	"ledring/dma"
	"ledring/protocol"
	"ledring/ws2812b"
)

// TaskError wraps a fatal fault with the task that hit it.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string { return e.Task + ": " + e.Err.Error() }
func (e *TaskError) Unwrap() error { return e.Err }

// Firmware owns the resources and the task table.
type Firmware struct {
	rt *core.Runtime

	busy            *core.Resource[bool]
	contextSwitches *core.Resource[uint16]
	frames          *core.Resource[uint8]
	sleepCycles     *core.Resource[uint32]
	rgb             *core.Resource[ws2812b.Frame]
	rxBuf           *core.Resource[dma.Buffer]
	txBuf           *core.Resource[dma.Buffer]
	ledBuf          *core.Resource[dma.Buffer]
	clock           *core.Resource[core.Clock]
	latch           *core.Resource[Timer]
	telemetryTimer  *core.Resource[Timer]

	// transfer memory, never touched except through the buffers above
	rxMem  [protocol.PixelFrameSize]byte
	txMem  [protocol.FrameSize]byte
	ledMem ws2812b.Buffer
}

// New declares the resources and binds the tasks to their interrupt lines.
func New(b Board) (*Firmware, error) {
	f := &Firmware{}
	f.busy = core.NewResource("busy", false)
	f.contextSwitches = core.NewResource("context_switches", uint16(0))
	f.frames = core.NewResource("frames", uint8(0))
	f.sleepCycles = core.NewResource("sleep_cycles", uint32(0))
	f.rgb = core.NewResource("rgb_array", ws2812b.Frame{})
	f.rxBuf = core.NewResource("rx_buffer", dma.NewBuffer(f.rxMem[:], b.RX))
	f.txBuf = core.NewResource("tx_buffer", dma.NewBuffer(f.txMem[:], b.TX))
	f.ledBuf = core.NewResource("ws2812b_buffer", dma.NewBuffer(f.ledMem[:], b.LED))
	f.clock = core.NewResource("clock", b.Clock)
	f.latch = core.NewResource("latch_timer", b.Latch)
	f.telemetryTimer = core.NewResource("telemetry_timer", b.Telemetry)

	tasks := []core.Task{
		{
			ID: IRQLEDDone, Name: "frame_tail_start", Priority: PriorityLEDDone,
			Uses: []core.Shared{f.clock, f.contextSwitches, f.latch, f.ledBuf},
			Run:  f.frameTailStart,
		},
		{
			ID: IRQTxDone, Name: "tx_transfer_done", Priority: PriorityTxDone,
			Uses: []core.Shared{f.clock, f.contextSwitches, f.txBuf},
			Run:  f.txTransferDone,
		},
		{
			ID: IRQRxDone, Name: "rx", Priority: PriorityRxDone,
			Uses: []core.Shared{f.busy, f.clock, f.contextSwitches, f.rgb, f.rxBuf},
			Run:  f.rx,
		},
		{
			ID: IRQFrameStart, Name: "frame_start", Priority: PriorityFrameStart,
			Uses: []core.Shared{f.clock, f.contextSwitches, f.rgb, f.ledBuf},
			Run:  f.frameStart,
		},
		{
			ID: IRQLatch, Name: "frame_end", Priority: PriorityLatch,
			Uses: []core.Shared{f.busy, f.clock, f.contextSwitches, f.frames, f.latch},
			Run:  f.frameEnd,
		},
		{
			ID: IRQTelemetry, Name: "log", Priority: PriorityTelemetry,
			Uses: []core.Shared{f.contextSwitches, f.clock, f.frames, f.sleepCycles, f.telemetryTimer, f.txBuf},
			Run:  f.log,
		},
	}
	idle := core.Idle{
		Uses: []core.Shared{f.clock, f.sleepCycles},
		Run:  f.idle,
	}

	rt, err := core.New(tasks, idle)
	if err != nil {
		return nil, err
	}
	rt.SetFaultHandler(b.OnFault)
	f.rt = rt
	return f, nil
}

// Runtime exposes the dispatcher to platform interrupt handlers.
func (f *Firmware) Runtime() *core.Runtime { return f.rt }

// Start arms the serial receiver and the telemetry timer. Call it once,
// after the peripherals are configured and before interrupts are enabled.
func (f *Firmware) Start() error {
	var err error
	f.rt.Init(func(t core.Threshold) {
		if err = f.rxBuf.Borrow(t).Submit(); err != nil {
			err = &TaskError{Task: "init", Err: err}
			return
		}
		(*f.telemetryTimer.Borrow(t)).Resume()
	})
	return err
}

// Run executes the idle loop until ctx is done or a fault halts the device.
func (f *Firmware) Run(ctx context.Context) error {
	return f.rt.RunIdle(ctx)
}

func (f *Firmware) fault(t core.Threshold, task string, err error) {
	f.rt.Fault(t, &TaskError{Task: task, Err: err})
}

func (f *Firmware) countSwitch(t core.Threshold) {
	*f.contextSwitches.Borrow(t)++
}

// record puts a pipeline event in the trace ring, stamped with the counter.
func (f *Firmware) record(t core.Threshold, event uint8, line core.TaskID, value1, value2 uint32) {
	now := (*f.clock.Borrow(t)).Cycles()
	f.rt.Trace().Record(event, uint8(line), now, value1, value2)
}

// idle measures how long the core sleeps between interrupts. The wait sits
// inside an atomic section so the elapsed count is added before any handler
// runs; the handlers are serviced when the section ends.
func (f *Firmware) idle(t core.Threshold) {
	core.Atomic(t, func(t core.Threshold) {
		clock := *f.clock.Borrow(t)
		sleepCycles := f.sleepCycles.Borrow(t)

		before := clock.Cycles()
		clock.WaitForInterrupt()
		after := clock.Cycles()

		*sleepCycles += core.Elapsed(before, after)
	})
}
