package dma

import (
	"errors"
	"testing"
)

type fakeChannel struct {
	started  int
	mem      []byte
	startErr error
	flags    Flags
}

func (c *fakeChannel) Start(mem []byte) error {
	if c.startErr != nil {
		return c.startErr
	}
	c.started++
	c.mem = mem
	return nil
}

func (c *fakeChannel) Complete() error {
	f := c.flags
	c.flags = 0
	return Check(f)
}

func TestBufferLifecycle(t *testing.T) {
	var mem [13]byte
	ch := &fakeChannel{}
	buf := NewBuffer(mem[:], ch)

	if buf.Owner() != CPU {
		t.Fatalf("Expected new buffer to be CPU-owned, got %v", buf.Owner())
	}
	if buf.Len() != 13 {
		t.Errorf("Expected length 13, got %d", buf.Len())
	}

	buf.Access(func(p []byte) { p[0] = 0xAA })

	if err := buf.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if buf.Owner() != DMA {
		t.Errorf("Expected DMA owner after submit, got %v", buf.Owner())
	}
	if ch.started != 1 || ch.mem[0] != 0xAA {
		t.Errorf("Channel did not receive buffer: started=%d mem=%v", ch.started, ch.mem)
	}

	if err := buf.Submit(); !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy on double submit, got %v", err)
	}
	if ch.started != 1 {
		t.Errorf("Busy submit must not start a transfer, started=%d", ch.started)
	}

	if err := buf.Release(); err != nil {
		t.Errorf("Release: %v", err)
	}
	if buf.Owner() != CPU {
		t.Errorf("Expected CPU owner after release, got %v", buf.Owner())
	}
	if err := buf.Release(); !errors.Is(err, ErrNotInFlight) {
		t.Errorf("Expected ErrNotInFlight, got %v", err)
	}
}

func TestAccessWhileInFlightPanics(t *testing.T) {
	var mem [4]byte
	buf := NewBuffer(mem[:], &fakeChannel{})
	if err := buf.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	defer func() {
		r := recover()
		if _, ok := r.(*OwnershipError); !ok {
			t.Errorf("Expected *OwnershipError panic, got %v", r)
		}
	}()
	buf.Access(func(p []byte) { p[0] = 1 })
}

func TestReleaseSurfacesTransferError(t *testing.T) {
	var mem [72]byte
	ch := &fakeChannel{}
	buf := NewBuffer(mem[:], ch)
	if err := buf.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ch.flags = Overrun | Framing
	err := buf.Release()

	var te *TransferError
	if !errors.As(err, &te) {
		t.Fatalf("Expected *TransferError, got %v", err)
	}
	if !te.Has(Overrun) || !te.Has(Framing) || te.Has(Bus) {
		t.Errorf("Unexpected flags %v", te.Flags)
	}
	if te.Error() != "dma: transfer error: overrun|framing" {
		t.Errorf("Unexpected message %q", te.Error())
	}
	if buf.Owner() != CPU {
		t.Errorf("Expected ownership back after failed transfer, got %v", buf.Owner())
	}
}

func TestSubmitStartFailureKeepsOwnership(t *testing.T) {
	var mem [8]byte
	refused := errors.New("channel disabled")
	buf := NewBuffer(mem[:], &fakeChannel{startErr: refused})

	if err := buf.Submit(); !errors.Is(err, refused) {
		t.Errorf("Expected start error, got %v", err)
	}
	if buf.Owner() != CPU {
		t.Errorf("Expected CPU owner after refused start, got %v", buf.Owner())
	}
}
