package sim

import (
	"context"
	"testing"
	"time"

	"github.com/itohio/gofan/pkg/config"
	"github.com/itohio/gofan/pkg/regulator"
	"github.com/itohio/gofan/pkg/thermistor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMockConfig() config.MockConfig {
	return config.MockConfig{
		Ambient:      20.0,
		Hot:          40.0,
		Initial:      30.0,
		TimeConstant: time.Second,
		NoiseLevel:   0,
	}
}

func TestPlant_Equilibrium(t *testing.T) {
	p := NewPlant(testMockConfig())

	assert.Equal(t, 40.0, p.Equilibrium(0))
	assert.Equal(t, 20.0, p.Equilibrium(255))
	assert.InDelta(t, 30.0, p.Equilibrium(127), 0.1)
}

func TestPlant_Step(t *testing.T) {
	p := NewPlant(testMockConfig())
	require.NoError(t, p.SetDuty(255))
	assert.Equal(t, uint8(255), p.Duty())

	// One time constant covers 63% of the distance to equilibrium.
	got := p.Step(time.Second)
	assert.InDelta(t, 30.0-10.0*0.632, got, 0.01)

	for i := 0; i < 20; i++ {
		p.Step(time.Second)
	}
	assert.InDelta(t, 20.0, p.Temperature(), 0.001)
}

func TestPlant_ZeroTimeConstant(t *testing.T) {
	cfg := testMockConfig()
	cfg.TimeConstant = 0
	p := NewPlant(cfg)

	assert.Equal(t, 40.0, p.Step(time.Millisecond))
}

func TestPlant_Sample(t *testing.T) {
	tests := []struct {
		name    string
		celsius float64
	}{
		{"cold", 5},
		{"room", 25},
		{"warm", 45},
		{"hot", 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testMockConfig()
			cfg.Initial = tt.celsius
			p := NewPlant(cfg)

			// B-model and Steinhart-Hart agree to well under a degree here.
			got := thermistor.Estimate(p.Sample())
			assert.InDelta(t, tt.celsius, got, 0.75)
		})
	}
}

func TestResistanceAt(t *testing.T) {
	assert.InDelta(t, thermistor.RRef, resistanceAt(25), 1e-6)
	assert.Greater(t, resistanceAt(0), thermistor.RRef)
	assert.Less(t, resistanceAt(50), thermistor.RRef)
	assert.True(t, resistanceAt(-300) > 1e300)
}

func TestADC_StartClose(t *testing.T) {
	adc := NewADC(NewPlant(testMockConfig()), 10*time.Millisecond)
	assert.False(t, adc.IsRunning())

	require.NoError(t, adc.Start())
	assert.True(t, adc.IsRunning())

	err := adc.Start()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	select {
	case raw := <-adc.Samples():
		assert.InDelta(t, 30.0, thermistor.Estimate(raw), 1.0)
	case <-time.After(time.Second):
		t.Fatal("no sample within timeout")
	}

	require.NoError(t, adc.Close())
	assert.False(t, adc.IsRunning())
	require.NoError(t, adc.Close())

	err = adc.Start()
	assert.Error(t, err)
}

func TestNewADC_Defaults(t *testing.T) {
	adc := NewADC(NewPlant(testMockConfig()), 0)
	assert.Equal(t, 100*time.Millisecond, adc.interval)
	assert.Equal(t, 1, cap(adc.samples))
}

func TestADC_OverrunDropsSamples(t *testing.T) {
	adc := NewADC(NewPlant(testMockConfig()), 2*time.Millisecond)
	require.NoError(t, adc.Start())
	defer adc.Close()

	// Many conversions complete while nobody reads
	time.Sleep(40 * time.Millisecond)

	assert.LessOrEqual(t, len(adc.Samples()), 1)
	select {
	case <-adc.Samples():
	case <-time.After(time.Second):
		t.Fatal("no sample within timeout")
	}
	assert.Equal(t, 0, len(adc.Samples()))
}

// TestADC_GracefulShutdown tests that the ADC closes its samples channel
// when Close() is called.
func TestADC_GracefulShutdown(t *testing.T) {
	adc := NewADC(NewPlant(testMockConfig()), 5*time.Millisecond)
	require.NoError(t, adc.Start())

	samples := adc.Samples()

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range samples {
			received++
			if received == 3 {
				adc.Close()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Samples channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3)
	_, ok := <-samples
	assert.False(t, ok, "Channel should be closed")
}

func TestUART(t *testing.T) {
	u := NewUART(2)

	require.NoError(t, u.WriteByte(25))
	require.NoError(t, u.WriteByte(26))
	require.NoError(t, u.WriteByte(27)) // dropped, nobody is reading
	assert.Equal(t, byte(25), <-u.Transmitted())
	assert.Equal(t, byte(26), <-u.Transmitted())

	assert.True(t, u.Send(30))
	assert.True(t, u.Send(31))
	assert.False(t, u.Send(32))
	assert.Equal(t, byte(30), <-u.Received())

	require.NoError(t, u.Close())
	require.NoError(t, u.Close())
	assert.False(t, u.Send(1))
	assert.NoError(t, u.WriteByte(1))
}

func TestLED(t *testing.T) {
	var l LED
	assert.False(t, l.On())

	l.Toggle()
	assert.True(t, l.On())
	l.Toggle()
	assert.False(t, l.On())
	assert.Equal(t, uint64(2), l.Toggles())
}

func TestBoard_ClosedLoop(t *testing.T) {
	cfg := config.Default()
	cfg.Sampler.Interval = time.Millisecond
	cfg.Mock = testMockConfig()
	cfg.Mock.TimeConstant = 20 * time.Millisecond

	board := NewBoard(cfg)
	reg := regulator.New(board.Hardware(), nil, regulator.Options{InitialDuty: 30})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- reg.Run(ctx) }()

	// Drain telemetry like a host would.
	go func() {
		for range board.UART.Transmitted() {
		}
	}()

	// With Kp = 75 and a 20 degree plant span, the loop settles a little
	// above the setpoint: T = 40 - 20*d, d = (T - 25)*75/255.
	want := (40 + 20*25*75.0/255) / (1 + 20*75.0/255)
	require.Eventually(t, func() bool {
		c, n := reg.Last()
		return n > 50 && c.Temperature > want-1 && c.Temperature < want+1
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, board.UART.Send(35))
	require.Eventually(t, func() bool {
		c, _ := reg.Last()
		return c.Setpoint == 35.0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("regulator did not stop")
	}
	assert.NoError(t, board.Close())
	assert.Greater(t, board.LED.Toggles(), uint64(50))
}
