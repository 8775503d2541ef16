package link

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	at := time.Unix(1700000000, 0)
	tests := []struct {
		name string
		b    byte
		want int
	}{
		{"room temperature", 25, 25},
		{"zero", 0, 0},
		{"above 127 stays unsigned", 200, 200},
		{"max", 255, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decode(tt.b, at)
			assert.Equal(t, tt.want, got.Celsius)
			assert.Equal(t, at, got.Timestamp)
		})
	}
}

func TestPump(t *testing.T) {
	out := make(chan Reading, 10)
	pump(context.Background(), bytes.NewReader([]byte{24, 25, 26}), out)

	require.Len(t, out, 3)
	assert.Equal(t, 24, (<-out).Celsius)
	assert.Equal(t, 25, (<-out).Celsius)
	assert.Equal(t, 26, (<-out).Celsius)
}

func TestPump_DropsWhenFull(t *testing.T) {
	out := make(chan Reading, 1)
	pump(context.Background(), bytes.NewReader([]byte{1, 2, 3}), out)

	require.Len(t, out, 1)
	assert.Equal(t, 1, (<-out).Celsius)
}

func TestNew(t *testing.T) {
	s := New("/dev/ttyACM0", 115200, 10)
	assert.NotNil(t, s)
	assert.Equal(t, "/dev/ttyACM0", s.port)
	assert.Equal(t, 115200, s.baudRate)
	assert.Equal(t, 10, s.bufSize)
	assert.Equal(t, 10, cap(s.readings))
	assert.False(t, s.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	s := New("/dev/ttyACM0", 0, 0)
	assert.Equal(t, DefaultBaudRate, s.baudRate)
	assert.Equal(t, DefaultBufferSize, s.bufSize)
}

func TestSerial_NotConnected(t *testing.T) {
	s := New("/dev/ttyACM0", 0, 0)

	err := s.SetTarget(30)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	assert.NoError(t, s.Close())
}

func TestSerial_ConnectMissingPort(t *testing.T) {
	s := New("/dev/gofan-does-not-exist", 0, 0)

	err := s.Connect()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open serial port")
	assert.False(t, s.IsConnected())
}
