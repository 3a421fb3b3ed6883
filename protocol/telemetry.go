package protocol

import "encoding/binary"

// State is one telemetry snapshot. Counters cover the period since the
// previous report; Snapshot is the free-running cycle counter.
type State struct {
	ContextSwitches uint16
	Frames          uint8
	SleepCycles     uint32
	Snapshot        uint32
}

// Serialize writes s as a complete frame, head and tail included.
// Multi-byte fields are little-endian.
func (s State) Serialize(buf *[FrameSize]byte) {
	buf[0] = Head
	binary.LittleEndian.PutUint32(buf[offsetSnapshot:], s.Snapshot)
	binary.LittleEndian.PutUint32(buf[offsetSleepCycles:], s.SleepCycles)
	binary.LittleEndian.PutUint16(buf[offsetContextSwitches:], s.ContextSwitches)
	buf[offsetFrames] = s.Frames
	buf[offsetTail] = Tail
}

// Deserialize reads the payload between head and tail.
func Deserialize(payload *[PayloadSize]byte) State {
	return State{
		Snapshot:        binary.LittleEndian.Uint32(payload[0:4]),
		SleepCycles:     binary.LittleEndian.Uint32(payload[4:8]),
		ContextSwitches: binary.LittleEndian.Uint16(payload[8:10]),
		Frames:          payload[10],
	}
}

// Utilization returns the busy percentage over a report period: the share
// of elapsed cycles not spent sleeping. The counter may wrap once between
// readings. It returns 0 when no cycles elapsed.
func Utilization(previous, current, sleepCycles uint32) float64 {
	elapsed := current - previous
	if elapsed == 0 {
		return 0
	}
	return 100 * (float64(elapsed) - float64(sleepCycles)) / float64(elapsed)
}

// Load tracks consecutive snapshots to derive utilization, which needs the
// previous report's counter and so is undefined for the first frame.
type Load struct {
	previous uint32
	seen     bool
}

// Update records s and returns the utilization since the last report.
func (l *Load) Update(s State) (float64, bool) {
	defer func() {
		l.previous, l.seen = s.Snapshot, true
	}()
	if !l.seen {
		return 0, false
	}
	return Utilization(l.previous, s.Snapshot, s.SleepCycles), true
}
