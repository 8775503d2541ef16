package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/gofan/pkg/hal"
)

var _ hal.Sampler = (*ADC)(nil)

// ADC converts the plant temperature on a fixed cadence. Each tick advances
// the plant by one interval and yields one sample.
type ADC struct {
	plant    *Plant
	interval time.Duration

	samples chan uint16
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	closed  bool
}

// NewADC creates a sampler over plant. Zero interval selects 100ms.
// Like a conversion result register, it holds one unread sample.
func NewADC(plant *Plant, interval time.Duration) *ADC {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ADC{
		plant:    plant,
		interval: interval,
		samples:  make(chan uint16, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start implements hal.Sampler.
func (a *ADC) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("already running")
	}
	if a.closed {
		return fmt.Errorf("sampler closed")
	}

	a.running = true
	go a.convert()

	return nil
}

// Close implements hal.Sampler.
func (a *ADC) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	a.cancel()
	a.running = false
	a.closed = true
	close(a.samples)

	return nil
}

// Samples implements hal.Sampler.
func (a *ADC) Samples() <-chan uint16 {
	return a.samples
}

// IsRunning returns whether conversions are armed.
func (a *ADC) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

func (a *ADC) convert() {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.plant.Step(a.interval)
			raw := a.plant.Sample()

			// Hold the read lock so Close cannot close the channel mid-send.
			a.mu.RLock()
			if !a.closed {
				select {
				case a.samples <- raw:
				default:
					// overrun: the previous conversion was not consumed yet
				}
			}
			a.mu.RUnlock()
		}
	}
}
