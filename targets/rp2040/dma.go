//go:build rp2040

package main

import (
	"errors"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"device/rp"

	"ledring/core"
	"ledring/dma"
)

// Single DMA channel. See rp.DMA_Type.
type dmaChannelHW struct {
	READ_ADDR   volatile.Register32
	WRITE_ADDR  volatile.Register32
	TRANS_COUNT volatile.Register32
	CTRL_TRIG   volatile.Register32
	_           [12]volatile.Register32 // aliases
}

var dmaChannels = (*[12]dmaChannelHW)(unsafe.Pointer(rp.DMA))

// CTRL_TRIG fields
const (
	ctrlEN         = 1 << 0
	ctrlSizeByte   = 0 << 2
	ctrlIncrRead   = 1 << 4
	ctrlIncrWrite  = 1 << 5
	ctrlChainPos   = 11
	ctrlTreqPos    = 15
	ctrlBusy       = 1 << 24
	ctrlWriteError = 1 << 29
	ctrlReadError  = 1 << 30
	ctrlAHBError   = 1 << 31
)

// 2.5.3.1. System DREQ Table
const (
	dreqPIO0TX0 = 0x00
	dreqUART0TX = 0x14
	dreqUART0RX = 0x15
)

// UART receive status bits
const (
	uartFE = 1 << 0
	uartPE = 1 << 1
	uartBE = 1 << 2
	uartOE = 1 << 3
)

var errChannelBusy = errors.New("dma: channel busy")

// hwChannel moves bytes between memory and one fixed peripheral register,
// paced by dreq. Completion raises line on the runtime.
type hwChannel struct {
	idx   uint8
	dreq  uint32
	fixed *volatile.Register32
	read  bool // peripheral to memory
	line  core.TaskID
	rt    *core.Runtime

	// status returns and clears peripheral error flags at completion
	status func() dma.Flags
}

var dmaLines [12]*hwChannel

func (c *hwChannel) hw() *dmaChannelHW { return &dmaChannels[c.idx] }

func (c *hwChannel) Start(mem []byte) error {
	hw := c.hw()
	if hw.CTRL_TRIG.Get()&ctrlBusy != 0 {
		return errChannelBusy
	}
	addr := uint32(uintptr(unsafe.Pointer(&mem[0])))
	ctrl := uint32(ctrlEN|ctrlSizeByte) |
		uint32(c.idx)<<ctrlChainPos |
		c.dreq<<ctrlTreqPos
	if c.read {
		hw.READ_ADDR.Set(uint32(uintptr(unsafe.Pointer(c.fixed))))
		hw.WRITE_ADDR.Set(addr)
		ctrl |= ctrlIncrWrite
	} else {
		hw.READ_ADDR.Set(addr)
		hw.WRITE_ADDR.Set(uint32(uintptr(unsafe.Pointer(c.fixed))))
		ctrl |= ctrlIncrRead
	}
	hw.TRANS_COUNT.Set(uint32(len(mem)))
	rp.DMA.INTE0.SetBits(1 << c.idx)
	hw.CTRL_TRIG.Set(ctrl)
	return nil
}

func (c *hwChannel) Complete() error {
	hw := c.hw()
	ctrl := hw.CTRL_TRIG.Get()
	var flags dma.Flags
	if ctrl&(ctrlReadError|ctrlWriteError|ctrlAHBError) != 0 {
		flags |= dma.Bus
		// error bits are write-1-to-clear
		hw.CTRL_TRIG.Set(ctrl &^ ctrlEN)
	}
	if c.status != nil {
		flags |= c.status()
	}
	return dma.Check(flags)
}

func uartStatus() dma.Flags {
	rsr := rp.UART0.UARTRSR.Get()
	rp.UART0.UARTRSR.Set(0)
	var flags dma.Flags
	if rsr&uartOE != 0 {
		flags |= dma.Overrun
	}
	if rsr&(uartFE|uartBE) != 0 {
		flags |= dma.Framing
	}
	if rsr&uartPE != 0 {
		flags |= dma.Noise
	}
	return flags
}

func dmaInterrupt(interrupt.Interrupt) {
	status := rp.DMA.INTS0.Get()
	rp.DMA.INTS0.Set(status)
	for i, c := range dmaLines {
		if c != nil && status&(1<<i) != 0 {
			c.rt.Interrupt(c.line)
		}
	}
}

// attach routes the channel's completion interrupt to rt.
func (c *hwChannel) attach(rt *core.Runtime) {
	c.rt = rt
	dmaLines[c.idx] = c
}

func initDMA() {
	intr := interrupt.New(rp.IRQ_DMA_IRQ_0, dmaInterrupt)
	intr.Enable()
}
