package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a pipeline event for post-mortem analysis
type TraceEvent struct {
	EventType uint8  // Event type code
	Task      uint8  // Interrupt line that recorded it
	Clock     uint32 // Cycle counter at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtRx         = 1 // RX frame accepted
	EvtDrop       = 2 // RX frame dropped while busy
	EvtFrameStart = 3 // WS2812B buffer encoded and submitted
	EvtLEDDone    = 4 // LED DMA complete, latch started
	EvtFrameEnd   = 5 // latch expired
	EvtTelemetry  = 6 // telemetry frame submitted
	EvtTxDone     = 7 // telemetry DMA complete
	EvtFault      = 8 // fatal fault latched
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// Trace is a fixed ring of recent events. Recording never allocates.
type Trace struct {
	ring [TraceRingSize]TraceEvent
	head uint8
}

// Record captures an event in the ring buffer
func (tr *Trace) Record(eventType, task uint8, clock, value1, value2 uint32) {
	state := disableInterrupts()
	idx := tr.head
	tr.ring[idx] = TraceEvent{
		EventType: eventType,
		Task:      task,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	tr.head = (idx + 1) % TraceRingSize
	restoreInterrupts(state)
}

// Events returns the recorded events, oldest first.
func (tr *Trace) Events() []TraceEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	out := make([]TraceEvent, 0, TraceRingSize)
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := tr.ring[(tr.head+i)%TraceRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Dump writes the ring through the debug writer (call after a fault)
func (tr *Trace) Dump() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[TRACE] === Event Ring Dump ===")
	for _, evt := range tr.Events() {
		debugPrintln("[TRACE] " + EventName(evt.EventType) +
			" task=" + utoa(uint32(evt.Task)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// Clear empties the ring
func (tr *Trace) Clear() {
	state := disableInterrupts()
	tr.ring = [TraceRingSize]TraceEvent{}
	tr.head = 0
	restoreInterrupts(state)
}

// EventName returns the dump label of an event code.
func EventName(eventType uint8) string {
	switch eventType {
	case EvtRx:
		return "RX"
	case EvtDrop:
		return "DROP"
	case EvtFrameStart:
		return "FRAME_START"
	case EvtLEDDone:
		return "LED_DONE"
	case EvtFrameEnd:
		return "FRAME_END"
	case EvtTelemetry:
		return "TELEMETRY"
	case EvtTxDone:
		return "TX_DONE"
	case EvtFault:
		return "FAULT!"
	default:
		return "UNKNOWN"
	}
}
