package thermistor

import "github.com/chewxy/math32"

// Estimate32 is Estimate in single precision, matching the float math of
// the microcontroller build. Results agree with Estimate to about 0.01 °C.
func Estimate32(raw uint16) float32 {
	r := float32(Clamp(raw))
	resistance := (r * RRef) / (FullScale - r)
	logR := math32.Log(resistance / RRef)
	kelvin := 1.0 / (A + B*logR + C*logR*logR + D*logR*logR*logR)
	return kelvin - KelvinOffset
}
