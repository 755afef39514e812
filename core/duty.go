package core

// AnalogSample is a raw 10-bit setpoint reading.
type AnalogSample uint16

// PowerPercent is the requested output power as percent of full conduction.
type PowerPercent uint8

// Setpoint window. The divider feeding the ADC never quite reaches the
// rails, so readings are rescaled from a usable window and readings at
// the edges saturate.
const (
	SampleMax      = 1023 // Full-scale 10-bit reading
	sampleFloor    = 205  // Lowest reading the divider produces
	sampleSpan     = SampleMax - sampleFloor
	lowerThreshold = 220 // At or below: force 0%
	upperThreshold = 941 // At or above: force 100%
)

// PercentFromSample maps a raw setpoint reading to output power.
// Monotonic over the whole sample range; out-of-window readings saturate.
func PercentFromSample(s AnalogSample) PowerPercent {
	switch {
	case s >= upperThreshold:
		return 100
	case s <= lowerThreshold:
		return 0
	default:
		return PowerPercent((uint32(s) - sampleFloor) * 100 / sampleSpan)
	}
}
