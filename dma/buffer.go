package dma

// Channel is the peripheral side of a buffer: a DMA stream wired to a serial
// receiver, a serial transmitter or a PWM compare register.
type Channel interface {
	// Start begins a transfer over mem. A receive channel fills mem; a
	// transmit channel drains it. The completion interrupt fires when done.
	Start(mem []byte) error
	// Complete acknowledges the completion interrupt, clearing the hardware
	// flags. It returns a *TransferError if the transfer failed.
	Complete() error
}

// Buffer is a fixed block of memory plus the tag saying who owns it.
// The memory is supplied by the caller and never reallocated.
type Buffer struct {
	mem   []byte
	ch    Channel
	owner Owner
}

// NewBuffer binds mem to ch. The buffer starts CPU-owned.
func NewBuffer(mem []byte, ch Channel) Buffer {
	return Buffer{mem: mem, ch: ch}
}

// Len returns the buffer capacity.
func (b *Buffer) Len() int { return len(b.mem) }

// Owner returns the current owner.
func (b *Buffer) Owner() Owner { return b.owner }

// Access runs fn with the CPU view of the buffer. The slice must not be
// retained past fn. Accessing a DMA-owned buffer is a programming error and
// panics with *OwnershipError.
func (b *Buffer) Access(fn func(p []byte)) {
	if b.owner != CPU {
		panic(&OwnershipError{Op: "access"})
	}
	fn(b.mem)
}

// Submit hands the buffer to its channel. It fails with ErrBusy, and starts
// nothing, if a transfer is already in flight. If the channel refuses to
// start, ownership stays with the CPU.
func (b *Buffer) Submit() error {
	if b.owner != CPU {
		return ErrBusy
	}
	b.owner = DMA
	if err := b.ch.Start(b.mem); err != nil {
		b.owner = CPU
		return err
	}
	return nil
}

// Release takes the buffer back after the completion interrupt. Ownership
// returns to the CPU even when the transfer failed; the error reports the
// hardware flags.
func (b *Buffer) Release() error {
	if b.owner != DMA {
		return ErrNotInFlight
	}
	err := b.ch.Complete()
	b.owner = CPU
	return err
}
