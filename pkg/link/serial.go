package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the controller's UART rate.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the controller over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial link with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		readings: make(chan Reading, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading telemetry.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("link closed")
	}

	// 8N1, as configured on the controller's UART
	mode := &serial.Mode{
		BaudRate: s.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(s.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	s.conn = port
	s.connected = true

	go s.readTelemetry(port)

	return nil
}

// Close closes the connection. The readings channel is closed once the
// reader goroutine has stopped.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.cancel()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		s.conn = nil
	}

	s.connected = false

	return nil
}

// Readings returns the channel for reading telemetry.
func (s *Serial) Readings() <-chan Reading {
	return s.readings
}

// SetTarget sends a new setpoint in whole degrees Celsius.
func (s *Serial) SetTarget(celsius uint8) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := s.conn.Write([]byte{celsius}); err != nil {
		return fmt.Errorf("failed to send setpoint: %w", err)
	}

	return nil
}

// IsConnected returns whether the link is currently connected.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// readTelemetry reads bytes from the port and forwards them as Readings.
func (s *Serial) readTelemetry(conn io.Reader) {
	defer close(s.readings)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readTelemetry: %v", r)
		}
	}()

	pump(s.ctx, bufio.NewReader(conn), s.readings)
}

// pump forwards bytes from r to out until ctx is done or r fails.
func pump(ctx context.Context, r io.ByteReader, out chan<- Reading) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				log.Printf("Error reading from serial port: %v", err)
			}
			return
		}

		select {
		case out <- decode(b, time.Now()):
		case <-ctx.Done():
			return
		default:
			log.Printf("Readings channel full, dropping reading")
		}
	}
}
