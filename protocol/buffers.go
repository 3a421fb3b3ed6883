package protocol

// window is the decoder's view of the incoming stream: a ring over a fixed
// array, holding at most DecoderBuffer-1 bytes.
type window struct {
	ring  [DecoderBuffer]byte
	flat  [DecoderBuffer]byte // wrapped contents, laid out in order
	read  int
	write int
}

// Write appends as much of p as fits and returns how much that was.
func (w *window) Write(p []byte) int {
	n := 0
	for _, b := range p {
		next := (w.write + 1) % DecoderBuffer
		if next == w.read {
			break
		}
		w.ring[w.write] = b
		w.write = next
		n++
	}
	return n
}

// Available returns the number of buffered bytes.
func (w *window) Available() int {
	if w.write >= w.read {
		return w.write - w.read
	}
	return DecoderBuffer - w.read + w.write
}

// Data returns the buffered bytes in stream order. When the ring has wrapped
// they are copied into the flat array, so the slice is only valid until the
// next Write or Data.
func (w *window) Data() []byte {
	if w.read <= w.write {
		return w.ring[w.read:w.write]
	}
	n := copy(w.flat[:], w.ring[w.read:])
	n += copy(w.flat[n:], w.ring[:w.write])
	return w.flat[:n]
}

// Pop drops n bytes from the front.
func (w *window) Pop(n int) {
	if avail := w.Available(); n > avail {
		n = avail
	}
	w.read = (w.read + n) % DecoderBuffer
}
