// Package control implements the fan's one-sided proportional law and the
// setpoint cell shared between the control cycle and the serial receiver.
package control

const (
	// Kp is the proportional gain in duty counts per °C of error.
	Kp = 75.0
	// MaxDuty is the largest actuation level the compare register accepts.
	MaxDuty Level = 255
	// DefaultSetpoint is the target temperature after reset (°C).
	DefaultSetpoint = 25.0
)

// Level is a PWM compare value in [0, MaxDuty].
type Level uint8

// Fraction returns the duty fraction level/MaxDuty.
func (l Level) Fraction() float64 {
	return float64(l) / float64(MaxDuty)
}

// Output returns the unclamped proportional term for the given reading.
func Output(temperature, setpoint float64) float64 {
	return (temperature - setpoint) * Kp
}

// Control maps a temperature reading and a setpoint to an actuation level.
// The fan can only cool: any reading at or below the setpoint turns it off.
// Positive output saturates at MaxDuty and is truncated, not rounded.
func Control(temperature, setpoint float64) Level {
	p := Output(temperature, setpoint)
	switch {
	case p >= float64(MaxDuty):
		return MaxDuty
	case p > 0:
		return Level(p)
	default:
		// covers p == 0, p < 0 and NaN
		return 0
	}
}
