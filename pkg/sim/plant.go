// Package sim simulates the regulator's hardware: a heated enclosure cooled by
// a PWM fan, read through a 10k NTC divider on a 12-bit ADC.
package sim

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/gofan/pkg/config"
	"github.com/itohio/gofan/pkg/hal"
	"github.com/itohio/gofan/pkg/thermistor"
)

// beta is the NTCLE100E3 B25/85 value, used to turn a plant temperature back
// into a thermistor resistance.
const beta = 3977.0

// Plant is a first-order thermal model. With the fan off it settles at Hot,
// at full duty it settles at Ambient, in between linearly.
type Plant struct {
	cfg config.MockConfig

	mu          sync.RWMutex
	temperature float64
	duty        uint8
	elapsed     time.Duration
}

// NewPlant creates a plant at cfg.Initial degrees.
func NewPlant(cfg config.MockConfig) *Plant {
	return &Plant{
		cfg:         cfg,
		temperature: cfg.Initial,
	}
}

// SetDuty implements hal.Actuator.
func (p *Plant) SetDuty(level uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duty = level
	return nil
}

// Duty returns the last duty written.
func (p *Plant) Duty() uint8 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.duty
}

// Temperature returns the current plant temperature in °C.
func (p *Plant) Temperature() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.temperature
}

// Equilibrium returns the temperature the plant settles at for a duty.
func (p *Plant) Equilibrium(duty uint8) float64 {
	fraction := float64(duty) / hal.PWMPeriod
	return p.cfg.Hot - (p.cfg.Hot-p.cfg.Ambient)*fraction
}

// Step advances the model by dt and returns the new temperature.
func (p *Plant) Step(dt time.Duration) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := p.Equilibrium(p.duty)

	// Exact discretization of dT/dt = (target - T) / tau
	tau := p.cfg.TimeConstant.Seconds()
	alpha := 1.0
	if tau > 0 {
		alpha = 1 - math.Exp(-dt.Seconds()/tau)
	}
	p.temperature += alpha * (target - p.temperature)
	p.elapsed += dt

	return p.temperature
}

// Sample returns the raw ADC count for the current temperature plus noise.
func (p *Plant) Sample() uint16 {
	p.mu.RLock()
	temperature := p.temperature
	elapsed := p.elapsed
	p.mu.RUnlock()

	noise := (math.Sin(float64(elapsed.Nanoseconds())*0.001) +
		math.Cos(float64(elapsed.Nanoseconds())*0.0013)) *
		p.cfg.NoiseLevel * 0.5

	return thermistor.Raw(resistanceAt(temperature + noise))
}

// resistanceAt is the B-parameter model of the thermistor around 25 °C.
func resistanceAt(celsius float64) float64 {
	kelvin := celsius + thermistor.KelvinOffset
	if kelvin <= 0 {
		return math.Inf(1)
	}
	return thermistor.RRef * math.Exp(beta*(1/kelvin-1/(25+thermistor.KelvinOffset)))
}
