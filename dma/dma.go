// Package dma tracks ownership of fixed transfer buffers shared between the
// CPU and a DMA channel.
//
// A Buffer is either CPU-owned, when tasks may read and write it through
// Access, or DMA-owned between Submit and Release, when only the peripheral
// touches it. Release is called from the channel's completion interrupt and
// surfaces any transfer error the hardware flagged.
package dma

import (
	"errors"
	"strings"
)

// Owner is the side currently allowed to touch a buffer.
type Owner uint8

const (
	CPU Owner = iota
	DMA
)

func (o Owner) String() string {
	if o == DMA {
		return "dma"
	}
	return "cpu"
}

var (
	// ErrBusy is returned by Submit while a transfer is in flight.
	ErrBusy = errors.New("dma: transfer in flight")
	// ErrNotInFlight is returned by Release when nothing was submitted.
	ErrNotInFlight = errors.New("dma: no transfer in flight")
)

// OwnershipError is the panic value for CPU access to a DMA-owned buffer.
type OwnershipError struct {
	Op string
}

func (e *OwnershipError) Error() string {
	return "dma: " + e.Op + " on buffer owned by dma"
}

// Flags are the completion/error conditions a channel reports.
type Flags uint8

const (
	Overrun Flags = 1 << iota // receiver overrun
	Framing                   // framing or break error on the serial line
	Noise                     // line noise or parity error
	Bus                       // DMA bus/transfer error
)

var flagNames = [...]string{"overrun", "framing", "noise", "bus"}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// TransferError reports a transfer the hardware flagged as failed.
type TransferError struct {
	Flags Flags
}

func (e *TransferError) Error() string {
	return "dma: transfer error: " + e.Flags.String()
}

// Has reports whether all of f are set.
func (e *TransferError) Has(f Flags) bool {
	return e.Flags&f == f
}

// Check turns raw flags into an error, nil when none are set.
func Check(f Flags) error {
	if f == 0 {
		return nil
	}
	return &TransferError{Flags: f}
}
