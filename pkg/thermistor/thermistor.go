package thermistor

import "math"

const (
	// FullScale is the 12-bit ADC full-scale count used by the divider equation.
	FullScale = 4095.0
	// RRef is the divider reference resistor and the thermistor's nominal R25 (ohms).
	RRef = 10000.0

	// MinSample and MaxSample bound the raw counts accepted by the transfer
	// function. 0 gives R = 0 (log -> -Inf), FullScale divides by zero.
	MinSample uint16 = 1
	MaxSample uint16 = uint16(FullScale) - 1

	// KelvinOffset converts Kelvin to Celsius. The calibration was done with
	// 273.0, not 273.15.
	KelvinOffset = 273.0
)

// Steinhart-Hart coefficients for the Vishay NTCLE100E3 (10k, B25/85 = 3977).
const (
	A = 0.003354016
	B = 0.000256985
	C = 0.000002620131
	D = 0.00000006383091
)

// Clamp limits raw to [MinSample, MaxSample].
func Clamp(raw uint16) uint16 {
	if raw < MinSample {
		return MinSample
	}
	if raw > MaxSample {
		return MaxSample
	}
	return raw
}

// Resistance returns the thermistor resistance for a raw ADC count.
// Formula: R = raw * Rref / (FullScale - raw)
func Resistance(raw uint16) float64 {
	r := float64(Clamp(raw))
	return (r * RRef) / (FullScale - r)
}

// Kelvin applies the Steinhart-Hart polynomial to a resistance in ohms.
func Kelvin(resistance float64) float64 {
	logR := math.Log(resistance / RRef)
	return 1.0 / (A + B*logR + C*logR*logR + D*logR*logR*logR)
}

// Estimate converts a raw ADC count into degrees Celsius.
// Out-of-range samples are clamped, so the result is always finite.
func Estimate(raw uint16) float64 {
	return Kelvin(Resistance(raw)) - KelvinOffset
}

// Raw is the inverse of the divider equation: the count the ADC would read
// for a given thermistor resistance. Used by the simulator.
func Raw(resistance float64) uint16 {
	switch {
	case math.IsNaN(resistance) || resistance <= 0:
		return MinSample
	case math.IsInf(resistance, 1):
		return MaxSample
	}
	ratio := resistance / (resistance + RRef)
	return Clamp(uint16(FullScale * ratio))
}
