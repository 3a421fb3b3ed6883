package protocol

import (
	"errors"
	"io"
)

// DecoderBuffer is the decoder's window over the byte stream.
const DecoderBuffer = 256

// Stats counts what the decoder did with the stream.
type Stats struct {
	Frames    uint64 // frames decoded
	Resyncs   uint64 // candidate heads rejected by a bad tail
	Discarded uint64 // bytes dropped while hunting for a head
}

// Decoder locates telemetry frames in a byte stream. Garbage before a head
// byte is discarded; a candidate whose tail byte is wrong is abandoned one
// byte at a time, so any byte inside it may turn out to be the real head.
type Decoder struct {
	win   window
	stats Stats

	// OnDiscard, if set, is called with every byte dropped while hunting.
	OnDiscard func(b byte, badTail bool)
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Stats returns the running counters.
func (d *Decoder) Stats() Stats { return d.stats }

// Feed pushes p through the decoder and calls fn for every complete frame.
func (d *Decoder) Feed(p []byte, fn func(State)) {
	for len(p) > 0 {
		n := d.win.Write(p)
		p = p[n:]
		d.drain(fn)
	}
}

func (d *Decoder) drain(fn func(State)) {
	for {
		data := d.win.Data()
		skip := 0
		for skip < len(data) && data[skip] != Head {
			d.discard(data[skip], false)
			skip++
		}
		if skip > 0 {
			d.win.Pop(skip)
			continue
		}
		if len(data) < FrameSize {
			return
		}
		if data[offsetTail] != Tail {
			d.stats.Resyncs++
			d.discard(data[0], true)
			d.win.Pop(1)
			continue
		}
		var payload [PayloadSize]byte
		copy(payload[:], data[1:1+PayloadSize])
		d.win.Pop(FrameSize)
		d.stats.Frames++
		fn(Deserialize(&payload))
	}
}

func (d *Decoder) discard(b byte, badTail bool) {
	d.stats.Discarded++
	if d.OnDiscard != nil {
		d.OnDiscard(b, badTail)
	}
}

// Scanner reads telemetry frames from an io.Reader, in the manner of
// bufio.Scanner.
type Scanner struct {
	r     io.Reader
	dec   *Decoder
	queue []State
	cur   State
	err   error
	buf   [64]byte
}

// NewScanner returns a scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r, dec: NewDecoder()}
}

// Decoder exposes the underlying decoder for stats and hooks.
func (s *Scanner) Decoder() *Decoder { return s.dec }

// Scan advances to the next frame. It returns false at end of input or on
// a read error.
func (s *Scanner) Scan() bool {
	for len(s.queue) == 0 {
		if s.err != nil {
			return false
		}
		n, err := s.r.Read(s.buf[:])
		s.dec.Feed(s.buf[:n], func(st State) { s.queue = append(s.queue, st) })
		if err != nil {
			s.err = err
		}
	}
	s.cur, s.queue = s.queue[0], s.queue[1:]
	return true
}

// State returns the most recent frame found by Scan.
func (s *Scanner) State() State { return s.cur }

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	if errors.Is(s.err, io.EOF) {
		return nil
	}
	return s.err
}
