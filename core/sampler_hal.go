package core

// SamplerDriver starts setpoint conversions. One conversion runs per
// half-cycle; the finished reading comes back through Controller.OnSample.
type SamplerDriver interface {
	// Start begins a single conversion. Called from interrupt context;
	// must not block.
	Start()
}

// Global singleton used by core code.
var samplerDriver SamplerDriver

// SetSamplerDriver is called by target-specific code to register its driver.
func SetSamplerDriver(d SamplerDriver) {
	samplerDriver = d
}

// MustSampler returns the configured driver or panics if missing.
func MustSampler() SamplerDriver {
	if samplerDriver == nil {
		panic("sampler driver not configured")
	}
	return samplerDriver
}
