package core

// GateDriver drives the triac gate output. Set is called from interrupt
// context and must not block or allocate.
type GateDriver interface {
	// Set drives the gate high (true) or low (false).
	Set(on bool)
}

// Global singleton used by core code.
var gateDriver GateDriver

// SetGateDriver is called by target-specific code to register its driver.
func SetGateDriver(d GateDriver) {
	gateDriver = d
}

// MustGate returns the configured driver or panics if missing.
func MustGate() GateDriver {
	if gateDriver == nil {
		panic("gate driver not configured")
	}
	return gateDriver
}
