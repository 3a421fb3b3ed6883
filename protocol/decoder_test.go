package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func frame(s State) []byte {
	var buf [FrameSize]byte
	s.Serialize(&buf)
	return buf[:]
}

func collect(d *Decoder, chunks ...[]byte) []State {
	var out []State
	for _, c := range chunks {
		d.Feed(c, func(s State) { out = append(out, s) })
	}
	return out
}

func TestDecoderSkipsGarbagePrefix(t *testing.T) {
	want := State{ContextSwitches: 5, Frames: 3, SleepCycles: 900, Snapshot: 1000}
	stream := append([]byte{0x00, 0x13, 0x55, 0xFF}, frame(want)...)

	d := NewDecoder()
	got := collect(d, stream)

	if len(got) != 1 || got[0] != want {
		t.Fatalf("Expected [%+v], got %+v", want, got)
	}
	if st := d.Stats(); st.Discarded != 4 || st.Frames != 1 || st.Resyncs != 0 {
		t.Errorf("Unexpected stats %+v", st)
	}
}

func TestDecoderResyncsOnBadTail(t *testing.T) {
	want := State{ContextSwitches: 9, Frames: 1, SleepCycles: 7, Snapshot: 77}

	// A false head followed by 11 bytes and a wrong tail, then a real frame
	// starting inside the false candidate's span.
	good := frame(want)
	stream := append([]byte{Head, 1, 2, 3}, good...)

	d := NewDecoder()
	got := collect(d, stream)

	if len(got) != 1 || got[0] != want {
		t.Fatalf("Expected [%+v], got %+v", want, got)
	}
	st := d.Stats()
	if st.Resyncs != 1 {
		t.Errorf("Expected 1 resync, got %d", st.Resyncs)
	}
	if st.Discarded != 4 {
		t.Errorf("Expected 4 discarded bytes, got %d", st.Discarded)
	}
}

func TestDecoderSplitAcrossFeeds(t *testing.T) {
	a := State{ContextSwitches: 1, Frames: 2, SleepCycles: 3, Snapshot: 4}
	b := State{ContextSwitches: 5, Frames: 6, SleepCycles: 7, Snapshot: 8}
	stream := append(frame(a), frame(b)...)

	d := NewDecoder()
	var chunks [][]byte
	for i := 0; i < len(stream); i += 5 {
		end := i + 5
		if end > len(stream) {
			end = len(stream)
		}
		chunks = append(chunks, stream[i:end])
	}
	got := collect(d, chunks...)

	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Expected [%+v %+v], got %+v", a, b, got)
	}
}

func TestDecoderLargeInput(t *testing.T) {
	var stream []byte
	for i := 0; i < 100; i++ {
		stream = append(stream, 0x00)
		stream = append(stream, frame(State{Frames: uint8(i)})...)
	}

	got := collect(NewDecoder(), stream)
	if len(got) != 100 {
		t.Fatalf("Expected 100 frames, got %d", len(got))
	}
	for i, s := range got {
		if s.Frames != uint8(i) {
			t.Errorf("Frame %d out of order: %+v", i, s)
		}
	}
}

func TestScanner(t *testing.T) {
	a := State{Snapshot: 1000}
	b := State{Snapshot: 2000, SleepCycles: 900, ContextSwitches: 5, Frames: 3}
	stream := append([]byte{0xDE, 0xAD}, frame(a)...)
	stream = append(stream, frame(b)...)

	sc := NewScanner(bytes.NewReader(stream))
	var got []State
	for sc.Scan() {
		got = append(got, sc.State())
	}
	if err := sc.Err(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Expected [%+v %+v], got %+v", a, b, got)
	}
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestScannerReportsReadError(t *testing.T) {
	broken := errors.New("port closed")
	sc := NewScanner(io.MultiReader(bytes.NewReader(frame(State{Frames: 1})), failingReader{broken}))

	if !sc.Scan() {
		t.Fatal("Expected one frame before the error")
	}
	if sc.Scan() {
		t.Error("Expected Scan to stop on error")
	}
	if !errors.Is(sc.Err(), broken) {
		t.Errorf("Expected %v, got %v", broken, sc.Err())
	}
}
