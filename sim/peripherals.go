package sim

import (
	"errors"

	"ledring/core"
	"ledring/dma"
	"ledring/firmware"
	"ledring/ws2812b"
)

var (
	errChannelBusy = errors.New("sim: channel already running")
	errNoUpdate    = errors.New("sim: timer update flag not set")
)

// rxChannel moves whole transfers from the serial input into memory.
type rxChannel struct {
	b       *Board
	mem     []byte
	armed   bool
	started bool
	flags   dma.Flags
	done    event
}

func (c *rxChannel) Start(mem []byte) error {
	if c.armed {
		return errChannelBusy
	}
	c.b.charge(c.b.cfg.OpCycles)
	c.mem, c.armed, c.started = mem, true, false
	c.tryComplete()
	return nil
}

// tryComplete finishes the transfer once enough bytes have arrived.
func (c *rxChannel) tryComplete() {
	if !c.armed || c.started || len(c.b.input) < len(c.mem) {
		return
	}
	n := copy(c.mem, c.b.input)
	c.b.input = c.b.input[n:]
	c.started = true
	c.done = event{
		WakeTime: c.b.now + 1,
		Handler: func(*event) uint8 {
			c.armed = false
			c.b.raise(firmware.IRQRxDone)
			return evDone
		},
	}
	c.b.events.schedule(&c.done)
}

func (c *rxChannel) Complete() error {
	f := c.flags
	c.flags = 0
	return dma.Check(f)
}

// txChannel clocks memory out onto the serial line.
type txChannel struct {
	b       *Board
	pending []byte
	running bool
	flags   dma.Flags
	done    event
}

func (c *txChannel) Start(mem []byte) error {
	if c.running {
		return errChannelBusy
	}
	c.b.charge(c.b.cfg.OpCycles)
	c.pending = append(c.pending[:0], mem...)
	c.running = true
	c.done = event{
		WakeTime: c.b.now + uint64(len(mem))*c.b.byteCycles(),
		Handler: func(*event) uint8 {
			c.b.serialOut.Write(c.pending)
			c.running = false
			c.b.raise(firmware.IRQTxDone)
			return evDone
		},
	}
	c.b.events.schedule(&c.done)
	return nil
}

func (c *txChannel) Complete() error {
	f := c.flags
	c.flags = 0
	return dma.Check(f)
}

// ledChannel feeds duty cells to the PWM compare register, one per carrier
// period, and records what the data line carried.
type ledChannel struct {
	b       *Board
	cells   ws2812b.Buffer
	running bool
	flags   dma.Flags
	done    event
}

func (c *ledChannel) Start(mem []byte) error {
	if c.running {
		return errChannelBusy
	}
	c.b.charge(c.b.cfg.EncodeCycles + c.b.cfg.OpCycles)
	copy(c.cells[:], mem)
	c.running = true

	r := Refresh{Start: c.b.now, Cells: c.cells}
	r.End = r.Start + uint64(len(mem))*c.b.cellCycles()
	r.Valid = ws2812b.Decode(&r.Frame, &r.Cells)
	queued := uint64(c.b.cfg.QueuedCells)
	if queued > uint64(len(mem)) {
		queued = uint64(len(mem))
	}
	c.done = event{
		WakeTime: r.End - queued*c.b.cellCycles(),
		Handler: func(*event) uint8 {
			c.b.refreshes = append(c.b.refreshes, r)
			c.running = false
			c.b.raise(firmware.IRQLEDDone)
			return evDone
		},
	}
	c.b.events.schedule(&c.done)
	return nil
}

func (c *ledChannel) Complete() error {
	f := c.flags
	c.flags = 0
	return dma.Check(f)
}

// timer is an auto-reload timer whose update event raises irq.
type timer struct {
	b       *Board
	irq     core.TaskID
	period  uint64
	running bool
	update  bool
	tick    event
}

func (t *timer) arm() {
	t.tick = event{
		WakeTime: t.b.now + t.period,
		Handler: func(e *event) uint8 {
			t.update = true
			t.b.raise(t.irq)
			if !t.running {
				return evDone
			}
			e.WakeTime += t.period
			return evReschedule
		},
	}
	t.b.events.schedule(&t.tick)
}

func (t *timer) Resume() {
	if t.running {
		return
	}
	t.b.charge(t.b.cfg.OpCycles)
	t.running = true
	t.arm()
}

func (t *timer) Restart() {
	t.b.charge(t.b.cfg.OpCycles)
	t.b.events.cancel(&t.tick)
	if t.running {
		t.arm()
	}
}

func (t *timer) Pause() {
	t.b.charge(t.b.cfg.OpCycles)
	t.running = false
	t.b.events.cancel(&t.tick)
}

func (t *timer) Running() bool { return t.running }

func (t *timer) Wait() error {
	if !t.update {
		return errNoUpdate
	}
	t.update = false
	return nil
}

// InjectError makes the next completion on the channel behind line report
// flags. Lines without a DMA channel are ignored.
func (b *Board) InjectError(line core.TaskID, flags dma.Flags) {
	switch line {
	case firmware.IRQRxDone:
		b.rx.flags |= flags
	case firmware.IRQTxDone:
		b.tx.flags |= flags
	case firmware.IRQLEDDone:
		b.led.flags |= flags
	}
}

// Spurious raises line at once without the peripheral flag that should
// accompany it.
func (b *Board) Spurious(line core.TaskID) {
	b.raise(line)
}
