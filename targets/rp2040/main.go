//go:build rp2040

// Command rp2040 is the LED ring firmware for RP2040 boards. UART0 carries
// pixel frames in and telemetry out, both by DMA; the LED line is driven by
// a PIO state machine fed by a third DMA channel.
package main

import (
	"context"
	"machine"
	"time"

	"device/rp"

	"ledring/core"
	"ledring/firmware"
)

const (
	rxDMA = 0
	txDMA = 1

	// ALARM0 drives time.Sleep in the TinyGo runtime
	latchAlarm     = 2
	telemetryAlarm = 3
)

// active is the running dispatcher, kept for the post-mortem trace dump.
var active *core.Runtime

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(msg string) { println(msg) })
	core.SetDebugEnabled(true)

	machine.UART0.Configure(machine.UARTConfig{
		BaudRate: firmware.BaudRate,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	// DMA owns the data register, so the driver's receive interrupt goes
	rp.UART0.UARTIMSC.Set(0)
	rp.UART0.UARTDMACR.Set(rp.UART0_UARTDMACR_RXDMAE | rp.UART0_UARTDMACR_TXDMAE)

	rx := &hwChannel{
		idx:    rxDMA,
		dreq:   dreqUART0RX,
		fixed:  &rp.UART0.UARTDR,
		read:   true,
		line:   firmware.IRQRxDone,
		status: uartStatus,
	}
	tx := &hwChannel{
		idx:   txDMA,
		dreq:  dreqUART0TX,
		fixed: &rp.UART0.UARTDR,
		line:  firmware.IRQTxDone,
	}
	led := newLEDChannel()

	latchTicks := firmware.LatchCycles(ClockHz, ledQueuedCells)
	latch := newAlarm(latchAlarm, uint32(latchTicks), firmware.IRQLatch)
	telemetry := newAlarm(telemetryAlarm, ClockHz/firmware.TelemetryHz, firmware.IRQTelemetry)

	fw, err := firmware.New(firmware.Board{
		Clock:     hwClock{},
		RX:        rx,
		TX:        tx,
		LED:       led,
		Latch:     latch,
		Telemetry: telemetry,
		OnFault:   reset,
	})
	if err != nil {
		println("firmware:", err.Error())
		reset(err)
	}

	rt := fw.Runtime()
	active = rt
	rx.attach(rt)
	tx.attach(rt)
	led.attach(rt)
	initAlarms(rt)

	if err := fw.Start(); err != nil {
		reset(err)
	}
	initDMA()

	// only returns on a fault, and the fault handler does not return
	err = fw.Run(context.Background())
	reset(err)
}

// reset restarts the device through the watchdog after a fatal fault.
func reset(err error) {
	if err != nil {
		println("fault:", err.Error())
	}
	if active != nil {
		active.Trace().Dump()
	}
	err = machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	if err != nil {
		return
	}
	err = machine.Watchdog.Start()
	if err != nil {
		return
	}
	// Wait for reset (should happen in ~1ms)
	for {
		time.Sleep(1 * time.Millisecond)
	}
}
