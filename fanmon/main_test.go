package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/itohio/gofan/pkg/config"
	"github.com/itohio/gofan/pkg/link"
	"github.com/itohio/gofan/pkg/meter"
	"github.com/itohio/gofan/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLink is a connected link whose readings are fed by the test.
type fakeLink struct {
	readings chan link.Reading

	mu      sync.Mutex
	targets []uint8
	closed  bool
	once    sync.Once
}

func newFakeLink() *fakeLink {
	return &fakeLink{readings: make(chan link.Reading, 10)}
}

func (f *fakeLink) Connect() error { return nil }

func (f *fakeLink) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.once.Do(func() { close(f.readings) })
	return nil
}

func (f *fakeLink) Readings() <-chan link.Reading { return f.readings }

func (f *fakeLink) SetTarget(celsius uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, celsius)
	return nil
}

func (f *fakeLink) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func runAsync(ctx context.Context, device link.Link, target int) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, config.Default(), device, target)
	}()
	return done
}

func TestRun_ContextCancel(t *testing.T) {
	device := newFakeLink()
	ctx, cancel := context.WithCancel(context.Background())

	done := runAsync(ctx, device, 30)
	device.readings <- link.Reading{Timestamp: time.Now(), Celsius: 25}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after context cancel")
	}

	assert.False(t, device.IsConnected())
	assert.Equal(t, []uint8{30}, device.targets)
}

func TestRun_LinkClosed(t *testing.T) {
	device := newFakeLink()

	done := runAsync(context.Background(), device, -1)
	device.readings <- link.Reading{Timestamp: time.Now(), Celsius: 25}
	device.once.Do(func() { close(device.readings) })

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "link closed")
	case <-time.After(2 * time.Second):
		t.Fatal("run kept going after the link stopped delivering readings")
	}

	assert.False(t, device.IsConnected())
	assert.Empty(t, device.targets)
}

func TestStatsLogger(t *testing.T) {
	var logged []int
	l := newStatsLogger(5*time.Second, func(st meter.Stats) {
		logged = append(logged, st.Count)
	})

	start := time.Now()
	for i := 0; i < 12; i++ {
		l.update(sample.Sample{Timestamp: start.Add(time.Duration(i) * time.Second)}, meter.Stats{Count: i + 1})
	}

	// Logged at 0s, 5s and 10s
	assert.Equal(t, []int{1, 6, 11}, logged)
}

func TestTeeChannel(t *testing.T) {
	in := make(chan link.Reading, 3)
	now := time.Now()
	for i := 0; i < 3; i++ {
		in <- link.Reading{Timestamp: now, Celsius: 20 + i}
	}
	close(in)

	a, b := teeChannel(in)

	var gotA, gotB []int
	for r := range a {
		gotA = append(gotA, r.Celsius)
	}
	for r := range b {
		gotB = append(gotB, r.Celsius)
	}

	assert.Equal(t, []int{20, 21, 22}, gotA)
	assert.Equal(t, []int{20, 21, 22}, gotB)
}

func TestLogStats(t *testing.T) {
	assert.NotPanics(t, func() {
		logStats(meter.Stats{})
		logStats(meter.Stats{Count: 2, Min: 24, Max: 26, Mean: 25, Last: 26, Slope: 1.5})
	})
}
