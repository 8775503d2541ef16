// Package regulator runs the temperature control loop. Each completed
// conversion becomes a fan duty plus a telemetry byte, and each received byte
// becomes the new setpoint.
package regulator

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/itohio/gofan/pkg/control"
	"github.com/itohio/gofan/pkg/hal"
	"github.com/itohio/gofan/pkg/thermistor"
)

// DefaultInitialDuty is the compare value written before the first sample.
const DefaultInitialDuty = 30

// Hardware bundles the configured peripherals. Indicator may be nil.
type Hardware struct {
	Sampler   hal.Sampler
	Actuator  hal.Actuator
	Port      hal.Port
	Indicator hal.Indicator
}

// Options tune a Regulator. The zero value is usable.
type Options struct {
	// InitialDuty is written to the actuator when Run starts.
	InitialDuty uint8
	// Logger receives hardware write failures. Defaults to log.Default().
	Logger *log.Logger
	// Estimator converts a raw sample to °C. Defaults to thermistor.Estimate.
	Estimator func(raw uint16) float64
}

// Cycle is the outcome of one conversion-complete event.
type Cycle struct {
	Raw         uint16        // sample as delivered by the ADC
	Temperature float64       // °C
	Setpoint    float64       // °C, loaded once at cycle start
	Level       control.Level // duty written to the actuator
	Telemetry   byte          // byte written to the port
}

// Regulator owns the control loop for one fan and one thermistor.
type Regulator struct {
	hw       Hardware
	setpoint *control.Setpoint
	opts     Options
	logger   *log.Logger
	estimate func(raw uint16) float64

	mu     sync.RWMutex
	last   Cycle
	cycles uint64
}

// New creates a Regulator. setpoint is shared with whoever else may write it;
// nil creates a private one at control.DefaultSetpoint.
func New(hw Hardware, setpoint *control.Setpoint, opts Options) *Regulator {
	if setpoint == nil {
		setpoint = control.NewSetpoint(control.DefaultSetpoint)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	estimate := opts.Estimator
	if estimate == nil {
		estimate = thermistor.Estimate
	}

	return &Regulator{
		hw:       hw,
		setpoint: setpoint,
		opts:     opts,
		logger:   logger,
		estimate: estimate,
	}
}

// Setpoint returns the shared setpoint cell.
func (r *Regulator) Setpoint() *control.Setpoint {
	return r.setpoint
}

// Run primes the actuator, starts the sampler and dispatches events until ctx
// is cancelled or the sampler stops delivering samples.
func (r *Regulator) Run(ctx context.Context) error {
	r.drive(control.Level(r.opts.InitialDuty))

	if err := r.hw.Sampler.Start(); err != nil {
		return fmt.Errorf("failed to start sampler: %w", err)
	}
	defer func() {
		if err := r.hw.Sampler.Close(); err != nil {
			r.logger.Printf("Error closing sampler: %v", err)
		}
	}()

	samples := r.hw.Sampler.Samples()
	var rx <-chan byte
	if r.hw.Port != nil {
		rx = r.hw.Port.Received()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-samples:
			if !ok {
				return nil
			}
			r.OnSample(raw)
		case b, ok := <-rx:
			if !ok {
				// port closed: keep regulating on the last setpoint
				rx = nil
				continue
			}
			r.OnByte(b)
		}
	}
}

// OnSample handles one conversion-complete event. The setpoint is read once,
// so an update arriving mid-cycle takes effect on the next cycle.
func (r *Regulator) OnSample(raw uint16) Cycle {
	setpoint := r.setpoint.Load()

	temperature := r.estimate(raw)
	level := control.Control(temperature, setpoint)
	r.drive(level)

	c := Cycle{
		Raw:         raw,
		Temperature: temperature,
		Setpoint:    setpoint,
		Level:       level,
		Telemetry:   TelemetryByte(temperature),
	}
	r.emit(c.Telemetry)

	r.mu.Lock()
	r.last = c
	r.cycles++
	r.mu.Unlock()

	return c
}

// OnByte handles one byte-received event: the byte becomes the setpoint in °C.
// Safe to call from any goroutine.
func (r *Regulator) OnByte(b byte) {
	r.setpoint.StoreByte(b)
}

// Last returns the most recent cycle and the number of cycles run so far.
func (r *Regulator) Last() (Cycle, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.cycles
}

// TelemetryByte truncates a temperature toward zero and keeps the low byte,
// as an 8-bit transmit register would.
func TelemetryByte(celsius float64) byte {
	return byte(int(celsius))
}

func (r *Regulator) drive(level control.Level) {
	if r.hw.Actuator == nil {
		return
	}
	if err := r.hw.Actuator.SetDuty(uint8(level)); err != nil {
		r.logger.Printf("Failed to set fan duty %d: %v", level, err)
	}
}

func (r *Regulator) emit(b byte) {
	if r.hw.Port != nil {
		if err := r.hw.Port.WriteByte(b); err != nil {
			r.logger.Printf("Failed to send telemetry: %v", err)
		}
	}
	if r.hw.Indicator != nil {
		r.hw.Indicator.Toggle()
	}
}
