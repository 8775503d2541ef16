package sample

import (
	"log"
	"time"

	"github.com/itohio/gofan/pkg/link"
)

// Sample is a telemetry reading on the host side, in °C.
type Sample struct {
	Timestamp time.Time
	Celsius   float64
}

// Converter is a function type that converts a Reading channel to a Sample channel.
type Converter func(in <-chan link.Reading) <-chan Sample

// NewConverter creates a converter that passes each Reading through as a Sample.
func NewConverter(bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan link.Reading) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for r := range in {
				select {
				case out <- convertReading(r):
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertReading converts a Reading to a Sample.
func convertReading(r link.Reading) Sample {
	return Sample{
		Timestamp: r.Timestamp,
		Celsius:   float64(r.Celsius),
	}
}
