package protocol

import (
	"math"
	"testing"
)

func TestSerializeLayout(t *testing.T) {
	s := State{
		Snapshot:        0x04030201,
		SleepCycles:     0x08070605,
		ContextSwitches: 0x0A09,
		Frames:          0x0B,
	}

	var buf [FrameSize]byte
	s.Serialize(&buf)

	want := [FrameSize]byte{0xAA, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 0x55}
	if buf != want {
		t.Errorf("Expected %v, got %v", want, buf)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	states := []State{
		{},
		{ContextSwitches: math.MaxUint16, Frames: math.MaxUint8, SleepCycles: math.MaxUint32, Snapshot: math.MaxUint32},
		{ContextSwitches: 5, Frames: 3, SleepCycles: 900, Snapshot: 1000},
		{ContextSwitches: 1, Frames: 0, SleepCycles: 0xDEADBEEF, Snapshot: 0x80000000},
	}

	for _, s := range states {
		var buf [FrameSize]byte
		s.Serialize(&buf)

		var payload [PayloadSize]byte
		copy(payload[:], buf[1:12])
		if got := Deserialize(&payload); got != s {
			t.Errorf("Round trip mismatch: want %+v, got %+v", s, got)
		}
	}
}

func TestUtilization(t *testing.T) {
	if got := Utilization(5000, 6000, 900); math.Abs(got-10) > 1e-9 {
		t.Errorf("Expected 10%%, got %f", got)
	}
	// wrapped counter
	if got := Utilization(0xFFFFFF00, 0x000002E8, 500); math.Abs(got-50) > 1e-9 {
		t.Errorf("Expected 50%% across wrap, got %f", got)
	}
	if got := Utilization(42, 42, 0); got != 0 {
		t.Errorf("Expected 0 for empty period, got %f", got)
	}
}

func TestLoadNeedsTwoReports(t *testing.T) {
	var load Load

	if _, ok := load.Update(State{Snapshot: 1000, SleepCycles: 12345}); ok {
		t.Error("First report must not yield utilization")
	}
	cpu, ok := load.Update(State{Snapshot: 2000, SleepCycles: 900, ContextSwitches: 5, Frames: 3})
	if !ok {
		t.Fatal("Second report must yield utilization")
	}
	if math.Abs(cpu-10) > 1e-9 {
		t.Errorf("Expected 10%%, got %f", cpu)
	}
}
