package link

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itohio/gofan/pkg/config"
	"github.com/itohio/gofan/pkg/control"
	"github.com/itohio/gofan/pkg/regulator"
	"github.com/itohio/gofan/pkg/sim"
)

// Mock runs the control loop on simulated hardware in-process and exposes it
// through the same byte protocol as the real controller.
type Mock struct {
	cfg *config.Config

	board     *sim.Board
	reg       *regulator.Regulator
	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	runDone   chan struct{}
	connected bool
}

// NewMock creates a new mocked controller. A nil cfg uses config.Default().
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	board := sim.NewBoard(cfg)

	return &Mock{
		cfg:   cfg,
		board: board,
		reg: regulator.New(board.Hardware(), control.NewSetpoint(cfg.Control.Setpoint), regulator.Options{
			InitialDuty: cfg.Control.InitialDuty,
		}),
		readings: make(chan Reading, DefaultBufferSize),
		ctx:      ctx,
		cancel:   cancel,
		runDone:  make(chan struct{}),
	}
}

// Connect powers up the simulated controller.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("link closed")
	}

	m.connected = true

	go func() {
		defer close(m.runDone)
		if err := m.reg.Run(m.ctx); err != nil {
			log.Printf("Simulated controller stopped: %v", err)
		}
	}()
	go m.forwardTelemetry()

	return nil
}

// Close stops the simulated controller.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	<-m.runDone
	m.connected = false

	// Closing the UART ends forwardTelemetry, which closes readings.
	return m.board.Close()
}

// Readings returns the channel for reading telemetry.
func (m *Mock) Readings() <-chan Reading {
	return m.readings
}

// SetTarget sends a setpoint byte to the simulated controller.
func (m *Mock) SetTarget(celsius uint8) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}
	if !m.board.UART.Send(celsius) {
		return fmt.Errorf("failed to send setpoint: receive buffer full")
	}

	return nil
}

// IsConnected returns whether the mock is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Board returns the simulated hardware.
func (m *Mock) Board() *sim.Board {
	return m.board
}

// Regulator returns the control loop running on the simulated hardware.
func (m *Mock) Regulator() *regulator.Regulator {
	return m.reg
}

func (m *Mock) forwardTelemetry() {
	defer close(m.readings)

	for b := range m.board.UART.Transmitted() {
		select {
		case m.readings <- decode(b, time.Now()):
		default:
			// Channel full, skip
		}
	}
}
