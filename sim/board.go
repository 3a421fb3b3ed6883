// Package sim is a host-side board for the LED ring firmware. It simulates
// the serial link, the three DMA channels, the latch and telemetry timers and
// the cycle counter on a virtual clock, so the firmware runs unmodified under
// go test and as a virtual device.
package sim

import (
	"bytes"
	"context"
	"errors"
	"time"

	"ledring/core"
	"ledring/firmware"
	"ledring/protocol"
	"ledring/ws2812b"
)

// Config sets the simulated hardware rates and the CPU cost model.
type Config struct {
	ClockHz     uint32 // cycle counter rate
	Baud        uint32 // serial line rate, 10 bits per byte
	CarrierHz   uint32 // one LED duty cell per period
	TelemetryHz uint32

	// TelemetryPeriod, when set, replaces the 1/TelemetryHz report period.
	// It may exceed the 32-bit counter range.
	TelemetryPeriod time.Duration

	// QueuedCells is how many duty cells are still waiting for the line when
	// the LED DMA reports completion. The latch is stretched to cover them.
	QueuedCells uint32

	// OpCycles is charged for every peripheral operation a task performs.
	OpCycles uint32
	// EncodeCycles is charged for encoding one frame.
	EncodeCycles uint32
}

// DefaultConfig matches the firmware's compile-time configuration on a
// 72 MHz part.
func DefaultConfig() Config {
	return Config{
		ClockHz:      72000000,
		Baud:         firmware.BaudRate,
		CarrierHz:    firmware.LEDCarrierHz,
		TelemetryHz:  firmware.TelemetryHz,
		OpCycles:     40,
		EncodeCycles: 9000,
	}
}

// Refresh is one LED burst as it appeared on the data line.
type Refresh struct {
	Start uint64 // first cell on the line
	End   uint64 // last cell off the line
	Cells ws2812b.Buffer
	Frame ws2812b.Frame
	Valid bool // reset cell was low
}

// Board is a simulated controller running the firmware.
type Board struct {
	cfg Config
	fw  *firmware.Firmware
	rt  *core.Runtime

	now    uint64
	events eventQueue

	rx        rxChannel
	tx        txChannel
	led       ledChannel
	latch     timer
	telemetry timer

	input     []byte
	serialOut bytes.Buffer
	refreshes []Refresh
	faults    []error

	deadline uint64
	reached  bool
	stop     context.CancelFunc
}

// New builds a board, the firmware on it, and starts the firmware.
func New(cfg Config) (*Board, error) {
	b := &Board{cfg: cfg}
	b.rx = rxChannel{b: b}
	b.tx = txChannel{b: b}
	b.led = ledChannel{b: b}
	b.latch = timer{b: b, irq: firmware.IRQLatch, period: firmware.LatchCycles(cfg.ClockHz, cfg.QueuedCells)}
	b.telemetry = timer{b: b, irq: firmware.IRQTelemetry, period: uint64(cfg.ClockHz / cfg.TelemetryHz)}
	if cfg.TelemetryPeriod > 0 {
		b.telemetry.period = b.cycles(cfg.TelemetryPeriod)
	}

	fw, err := firmware.New(firmware.Board{
		Clock:     b,
		RX:        &b.rx,
		TX:        &b.tx,
		LED:       &b.led,
		Latch:     &b.latch,
		Telemetry: &b.telemetry,
		OnFault:   func(err error) { b.faults = append(b.faults, err) },
	})
	if err != nil {
		return nil, err
	}
	b.fw = fw
	b.rt = fw.Runtime()
	if err := fw.Start(); err != nil {
		return nil, err
	}
	return b, nil
}

// Firmware returns the firmware under simulation.
func (b *Board) Firmware() *firmware.Firmware { return b.fw }

// Now returns the virtual time in cycles.
func (b *Board) Now() uint64 { return b.now }

// Cycles implements core.Clock.
func (b *Board) Cycles() uint32 { return uint32(b.now) }

// WaitForInterrupt implements core.Clock: it advances virtual time to the
// next hardware event and delivers it. Reaching the run deadline instead
// stops the run.
func (b *Board) WaitForInterrupt() {
	e := b.events.peek()
	if e == nil || e.WakeTime > b.deadline {
		if b.now < b.deadline {
			b.now = b.deadline
		}
		b.reached = true
		if b.stop != nil {
			b.stop()
		}
		return
	}
	b.events.pop()
	if e.WakeTime > b.now {
		b.now = e.WakeTime
	}
	b.events.fire(e)
}

// Run lets the firmware execute for d of virtual time.
func (b *Board) Run(ctx context.Context, d time.Duration) error {
	b.deadline = b.now + b.cycles(d)
	b.reached = false

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	b.stop = cancel

	err := b.fw.Run(ctx)
	if b.reached && errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Feed puts bytes on the serial line now.
func (b *Board) Feed(data []byte) {
	b.input = append(b.input, data...)
	b.rx.tryComplete()
}

// FeedAt puts bytes on the serial line once virtual time reaches d from now.
func (b *Board) FeedAt(d time.Duration, data []byte) {
	payload := append([]byte(nil), data...)
	b.events.schedule(&event{
		WakeTime: b.now + b.cycles(d),
		Handler: func(*event) uint8 {
			b.Feed(payload)
			return evDone
		},
	})
}

// Telemetry drains the serial output and decodes the telemetry frames in it.
func (b *Board) Telemetry() []protocol.State {
	var out []protocol.State
	dec := protocol.NewDecoder()
	dec.Feed(b.DrainSerial(), func(s protocol.State) { out = append(out, s) })
	return out
}

// DrainSerial returns and clears the raw bytes the board transmitted.
func (b *Board) DrainSerial() []byte {
	out := append([]byte(nil), b.serialOut.Bytes()...)
	b.serialOut.Reset()
	return out
}

// Refreshes returns and clears the LED bursts seen so far.
func (b *Board) Refreshes() []Refresh {
	out := b.refreshes
	b.refreshes = nil
	return out
}

// Faults returns the faults reported to the board.
func (b *Board) Faults() []error { return b.faults }

func (b *Board) cycles(d time.Duration) uint64 {
	return core.CyclesFromUS(uint64(d.Microseconds()), b.cfg.ClockHz)
}

func (b *Board) byteCycles() uint64 {
	return 10 * uint64(b.cfg.ClockHz) / uint64(b.cfg.Baud)
}

func (b *Board) cellCycles() uint64 {
	return uint64(b.cfg.ClockHz) / uint64(b.cfg.CarrierHz)
}

func (b *Board) charge(cycles uint32) {
	b.now += uint64(cycles)
}

func (b *Board) raise(irq core.TaskID) {
	b.rt.Interrupt(irq)
}
