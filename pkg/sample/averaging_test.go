package sample

import (
	"testing"
	"time"

	"github.com/itohio/gofan/pkg/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageReadings(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		readings []link.Reading
		want     float64
	}{
		{"empty", nil, 0},
		{"single", []link.Reading{{Celsius: 25}}, 25},
		{"steps", []link.Reading{{Celsius: 25}, {Celsius: 26}, {Celsius: 26}, {Celsius: 25}}, 25.5},
		{"uneven", []link.Reading{{Celsius: 25}, {Celsius: 26}, {Celsius: 26}}, 77.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := averageReadings(tt.readings)
			assert.InDelta(t, tt.want, got.Celsius, 1e-9)
		})
	}

	got := averageReadings([]link.Reading{{Timestamp: now, Celsius: 1}, {Timestamp: now.Add(time.Second), Celsius: 3}})
	assert.Equal(t, now.Add(time.Second), got.Timestamp, "uses the most recent timestamp")
}

func TestNewAveragingConverter_Window(t *testing.T) {
	converter := NewAveragingConverter(3, 10)
	in := make(chan link.Reading, 10)
	out := converter(in)

	for _, c := range []int{24, 25, 26, 27, 28} {
		in <- link.Reading{Celsius: c}
	}
	close(in)

	var got []float64
	for s := range out {
		got = append(got, s.Celsius)
	}

	require.Len(t, got, 5)
	assert.InDeltaSlice(t, []float64{24, 24.5, 25, 26, 27}, got, 1e-9)
}

func TestNewAveragingConverter_InvalidWindow(t *testing.T) {
	converter := NewAveragingConverter(0, 0)
	in := make(chan link.Reading, 2)
	out := converter(in)

	in <- link.Reading{Celsius: 20}
	in <- link.Reading{Celsius: 30}
	close(in)

	var got []float64
	for s := range out {
		got = append(got, s.Celsius)
	}
	assert.Equal(t, []float64{20, 30}, got)
}
