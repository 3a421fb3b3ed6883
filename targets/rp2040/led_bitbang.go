//go:build rp2040 && ledbitbang

package main

import (
	"image/color"
	"machine"
	"runtime/interrupt"

	"tinygo.org/x/drivers/ws2812"

	"ledring/core"
	"ledring/dma"
	"ledring/firmware"
	"ledring/ws2812b"
)

const (
	ledPin = machine.GPIO16

	// WriteColors returns once the last bit is on the line
	ledQueuedCells = 0
)

// bitbangChannel is the LED sink for boards whose PIO blocks are taken. It
// recovers the frame from the duty cells and clocks it out with the ws2812
// driver, then signals completion the way the DMA path does.
type bitbangChannel struct {
	dev    ws2812.Device
	colors [ws2812b.LEDs]color.RGBA
	frame  ws2812b.Frame
	rt     *core.Runtime
	bad    bool
}

func newLEDChannel() *bitbangChannel {
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &bitbangChannel{dev: ws2812.New(ledPin)}
}

func (c *bitbangChannel) attach(rt *core.Runtime) { c.rt = rt }

func (c *bitbangChannel) Start(mem []byte) error {
	c.bad = !ws2812b.Decode(&c.frame, (*ws2812b.Buffer)(mem))
	for i := range c.colors {
		c.colors[i] = color.RGBA{R: c.frame[3*i], G: c.frame[3*i+1], B: c.frame[3*i+2], A: 255}
	}

	// bit timing is done in software, nothing may interrupt it
	state := interrupt.Disable()
	err := c.dev.WriteColors(c.colors[:])
	interrupt.Restore(state)
	if err != nil {
		return err
	}

	// pends behind the running task, as a DMA completion would
	c.rt.Interrupt(firmware.IRQLEDDone)
	return nil
}

func (c *bitbangChannel) Complete() error {
	if c.bad {
		return &dma.TransferError{Flags: dma.Bus}
	}
	return nil
}
