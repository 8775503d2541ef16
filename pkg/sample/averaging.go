package sample

import (
	"log"
	"time"

	"github.com/itohio/gofan/pkg/link"
)

// NewAveragingConverter creates a converter that emits, for every Reading, the
// mean of the last windowSize readings. This smooths the one-degree steps of
// the integer telemetry.
func NewAveragingConverter(windowSize int, bufSize int) Converter {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan link.Reading) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var buffer []link.Reading
			for r := range in {
				buffer = append(buffer, r)
				if len(buffer) > windowSize {
					buffer = buffer[1:] // Remove oldest
				}

				select {
				case out <- averageReadings(buffer):
				case <-time.After(time.Second):
					log.Printf("Averaging converter output channel full")
				}
			}
		}()

		return out
	}
}

// averageReadings averages a slice of Readings.
// Uses the most recent reading's timestamp.
func averageReadings(readings []link.Reading) Sample {
	if len(readings) == 0 {
		return Sample{}
	}

	var sum int
	for _, r := range readings {
		sum += r.Celsius
	}

	return Sample{
		Timestamp: readings[len(readings)-1].Timestamp,
		Celsius:   float64(sum) / float64(len(readings)),
	}
}
