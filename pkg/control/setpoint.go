package control

import (
	"math"
	"sync/atomic"
)

// Setpoint is a target temperature shared between one writer (the serial
// receiver) and the control cycle. Loads and stores are atomic, so a reader
// always sees a whole value.
type Setpoint struct {
	bits atomic.Uint64
}

// NewSetpoint returns a Setpoint initialized to celsius.
func NewSetpoint(celsius float64) *Setpoint {
	s := &Setpoint{}
	s.Store(celsius)
	return s
}

// Load returns the current target in °C.
func (s *Setpoint) Load() float64 {
	return math.Float64frombits(s.bits.Load())
}

// Store replaces the target.
func (s *Setpoint) Store(celsius float64) {
	s.bits.Store(math.Float64bits(celsius))
}

// StoreByte takes a received byte verbatim as degrees Celsius.
func (s *Setpoint) StoreByte(b byte) {
	s.Store(float64(b))
}
