package core

// Trace event codes.
const (
	TraceZeroCross = 1 // Zero-cross edge handled
	TraceFire      = 2 // Gate asserted after the firing delay
	TraceGateOff   = 3 // Gate pulse ended
	TraceStop      = 4 // Timer stopped for a 0% half-cycle
	TraceSample    = 5 // Conversion result latched
)

const traceRingSize = 32

// TraceEvent captures one timestamped controller event for post-mortem
// analysis.
type TraceEvent struct {
	Kind  uint8
	Clock uint32 // Microsecond clock at capture
	Value uint32 // Event-dependent: percent, delay, or sample
}

var (
	// Capture ring buffer (non-blocking, for post-mortem)
	traceRing    [traceRingSize]TraceEvent
	traceHead    uint8
	traceEnabled = true
)

// SetTraceEnabled turns event capture on or off. Capture is on by default;
// turn it off while benchmarking handler latency.
func SetTraceEnabled(enabled bool) {
	traceEnabled = enabled
}

// RecordTrace captures one event in the ring. Non-blocking, no allocation;
// safe from interrupt context.
func RecordTrace(kind uint8, value uint32) {
	if !traceEnabled {
		return
	}
	idx := traceHead
	traceRing[idx] = TraceEvent{Kind: kind, Clock: Now(), Value: value}
	traceHead = (idx + 1) % traceRingSize
}

// TraceEvents copies the ring oldest-first, skipping empty slots. The
// ring is snapshotted with interrupts masked so a handler writing an
// entry cannot tear the copy. Call it outside time-critical code.
func TraceEvents() []TraceEvent {
	out := make([]TraceEvent, 0, traceRingSize)

	is := disableInterrupts()
	ring := traceRing
	start := traceHead
	restoreInterrupts(is)

	for i := uint8(0); i < traceRingSize; i++ {
		evt := ring[(start+i)%traceRingSize]
		if evt.Kind == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// ClearTrace empties the ring.
func ClearTrace() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceHead = 0
}

// DumpTrace renders the ring through the given writer, one line per event.
// Meant for a shutdown path or a debug console, never for handlers.
func DumpTrace(println func(string)) {
	if println == nil {
		return
	}
	for _, evt := range TraceEvents() {
		println("[trace] " + TraceKindName(evt.Kind) +
			" t=" + utoa(evt.Clock) +
			" v=" + utoa(evt.Value))
	}
}

// TraceKindName names an event code for display.
func TraceKindName(kind uint8) string {
	switch kind {
	case TraceZeroCross:
		return "ZERO_CROSS"
	case TraceFire:
		return "FIRE"
	case TraceGateOff:
		return "GATE_OFF"
	case TraceStop:
		return "STOP"
	case TraceSample:
		return "SAMPLE"
	default:
		return "UNKNOWN"
	}
}
