package meter

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/gofan/pkg/sample"
)

var _ TemperatureMeter = (*Meter)(nil)

// Stats summarizes the samples currently in the window.
type Stats struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	Last  float64
	Slope float64 // °C per minute between the first and last sample
}

// TemperatureMeter keeps a time window of samples and summarizes it.
type TemperatureMeter interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample                         // Current window, oldest first
	Stats() Stats                                     // Summary of the current window
	OnUpdate(func(latest sample.Sample, stats Stats)) // Register callback for updates
}

// Meter implements TemperatureMeter.
// Removal is based on timestamp (time window), not number of samples.
type Meter struct {
	window time.Duration

	samples []sample.Sample // FIFO buffer ordered first to last
	mu      sync.RWMutex

	callbacks []func(latest sample.Sample, stats Stats)
	cbMu      sync.RWMutex
}

// New creates a Meter keeping the last window of samples.
func New(window time.Duration) *Meter {
	if window <= 0 {
		window = time.Minute
	}
	return &Meter{
		window:  window,
		samples: make([]sample.Sample, 0),
	}
}

// ProcessSamples consumes samples until the input channel closes.
func (m *Meter) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
}

// processSample appends a sample and drops those that fell out of the window.
func (m *Meter) processSample(s sample.Sample) {
	m.mu.Lock()

	m.samples = append(m.samples, s)

	cutoffTime := s.Timestamp.Add(-m.window)
	cutoffIndex := 0
	for i, prev := range m.samples {
		if !prev.Timestamp.Before(cutoffTime) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex > 0 {
		m.samples = m.samples[cutoffIndex:]
	}

	m.mu.Unlock()

	m.notifyCallbacks(s)
}

// Samples returns a copy of the current samples buffer.
func (m *Meter) Samples() []sample.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Sample, len(m.samples))
	copy(result, m.samples)
	return result
}

// Stats returns a summary of the current window.
func (m *Meter) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return summarize(m.samples)
}

// OnUpdate registers a callback invoked after every sample with that sample
// and the window summary. It runs on the ProcessSamples goroutine and should
// return quickly.
func (m *Meter) OnUpdate(callback func(latest sample.Sample, stats Stats)) {
	if callback == nil {
		return
	}
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// notifyCallbacks invokes all registered callbacks. The window is only
// summarized when someone is listening.
func (m *Meter) notifyCallbacks(latest sample.Sample) {
	m.cbMu.RLock()
	callbacks := make([]func(latest sample.Sample, stats Stats), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	if len(callbacks) == 0 {
		return
	}

	stats := m.Stats()
	for _, cb := range callbacks {
		cb(latest, stats)
	}
}

func summarize(samples []sample.Sample) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	st := Stats{
		Count: len(samples),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	var sum float64
	for _, s := range samples {
		sum += s.Celsius
		st.Min = math.Min(st.Min, s.Celsius)
		st.Max = math.Max(st.Max, s.Celsius)
	}
	first, last := samples[0], samples[len(samples)-1]
	st.Mean = sum / float64(len(samples))
	st.Last = last.Celsius

	if dt := last.Timestamp.Sub(first.Timestamp).Minutes(); dt > 0 {
		st.Slope = (last.Celsius - first.Celsius) / dt
	}

	return st
}
