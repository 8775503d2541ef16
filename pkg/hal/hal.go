// Package hal defines the peripheral handles the regulator is built from.
// Implementations live in the firmware (real registers) and in pkg/sim.
package hal

// PWMPeriod is the fixed PWM period; duty values are compared against it.
const PWMPeriod = 255

// Sampler is a continuously re-arming analog input.
type Sampler interface {
	// Start arms conversions. Every completion yields exactly one sample.
	Start() error
	// Close stops conversions and closes the samples channel.
	Close() error
	// Samples delivers raw counts. Samples are dropped, not queued, when the
	// consumer falls behind.
	Samples() <-chan uint16
}

// Actuator drives the fan PWM compare register.
type Actuator interface {
	// SetDuty writes level against PWMPeriod.
	SetDuty(level uint8) error
}

// Port is a byte-oriented serial channel.
type Port interface {
	WriteByte(b byte) error
	// Received delivers inbound bytes one at a time.
	Received() <-chan byte
}

// Indicator is a one-bit activity signal.
type Indicator interface {
	Toggle()
}
