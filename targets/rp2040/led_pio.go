//go:build rp2040 && !ledbitbang

package main

import (
	"machine"

	"device/rp"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"ledring/firmware"
)

// The LED line is driven by a PIO state machine that turns each duty cell
// byte into one carrier period: duty slices high, the rest low, ten slices
// per period. DMA feeds the cells to the TX FIFO, paced by its DREQ.
//
// buildDutyProgram creates the duty-cell program using AssemblerV0
func buildDutyProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Out(rp2pio.OutDestY, 8).Encode(), // 0: out y, 8 (duty, autopull)
		asm.Set(rp2pio.SetDestX, 9).Encode(), // 1: set x, 9 (ten slices)
		// slice:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 2: jmp y--, high
		asm.Set(rp2pio.SetDestPins, 0).Encode(),  // 3: set pins, 0
		asm.Jmp(2, rp2pio.JmpXNZeroDec).Encode(), // 4: jmp x--, slice
		asm.Jmp(0, rp2pio.JmpAlways).Encode(),    // 5: jmp 0
		// high:
		asm.Set(rp2pio.SetDestPins, 1).Encode(),  // 6: set pins, 1
		asm.Jmp(2, rp2pio.JmpXNZeroDec).Encode(), // 7: jmp x--, slice
		// .wrap
	}
}

const (
	ledPin     = machine.GPIO16
	ledDMA     = 2
	dutyOrigin = 0 // jump targets are absolute

	// three PIO cycles per slice, ten slices per carrier period
	pioCyclesPerCell = 30

	// DMA completes once the last cell is in the TX FIFO, so up to a full
	// FIFO plus the OSR are still to be shifted out.
	txFIFODepth    = 4
	ledQueuedCells = txFIFODepth + 1
)

func newLEDChannel() *hwChannel {
	pio := rp2pio.PIO0
	sm := pio.StateMachine(0)
	sm.TryClaim()

	program := buildDutyProgram()
	offset, err := pio.AddProgram(program, dutyOrigin)
	if err != nil {
		panic("led: " + err.Error())
	}

	ledPin.Configure(machine.PinConfig{Mode: pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(ledPin, 1)
	// shift right, autopull every byte
	cfg.SetOutShift(true, true, 8)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	// divider = sys clock / (carrier * cycles per cell), 8.8 fixed point
	div := uint64(machine.CPUFrequency()) * 256 / (firmware.LEDCarrierHz * pioCyclesPerCell)
	cfg.SetClkDivIntFrac(uint16(div>>8), uint8(div))

	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(ledPin, 1, true)
	sm.SetPinsConsecutive(ledPin, 1, false)
	sm.SetEnabled(true)

	return &hwChannel{
		idx:   ledDMA,
		dreq:  dreqPIO0TX0 + uint32(pio.BlockIndex())*8 + uint32(sm.StateMachineIndex()),
		fixed: &rp.PIO0.TXF0,
		line:  firmware.IRQLEDDone,
	}
}
