//go:build tinygo

package main

import (
	"errors"
	"machine"
	"sync"
	"time"

	"github.com/itohio/gofan/pkg/hal"
)

var (
	_ hal.Sampler   = (*adcSampler)(nil)
	_ hal.Actuator  = (*fanDriver)(nil)
	_ hal.Port      = (*uartPort)(nil)
	_ hal.Indicator = (*ledIndicator)(nil)
)

// adcSampler converts on a fixed cadence and re-arms after every conversion.
type adcSampler struct {
	adc      machine.ADC
	interval time.Duration
	samples  chan uint16

	mu      sync.RWMutex
	stop    chan struct{}
	running bool
	closed  bool
}

func newADCSampler(adc machine.ADC, interval time.Duration) *adcSampler {
	return &adcSampler{
		adc:      adc,
		interval: interval,
		samples:  make(chan uint16, 1),
		stop:     make(chan struct{}),
	}
}

func (s *adcSampler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("already running")
	}
	if s.closed {
		return errors.New("sampler closed")
	}

	s.running = true
	go s.convert()
	return nil
}

func (s *adcSampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	close(s.stop)
	s.running = false
	s.closed = true
	close(s.samples)
	return nil
}

func (s *adcSampler) Samples() <-chan uint16 {
	return s.samples
}

func (s *adcSampler) convert() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			// machine.ADC.Get is left-aligned to 16 bits
			raw := s.adc.Get() >> (16 - ADC_RESOLUTION)

			s.mu.RLock()
			if !s.closed {
				select {
				case s.samples <- raw:
				default:
					// overrun: previous conversion not consumed yet
				}
			}
			s.mu.RUnlock()
		}
	}
}

// pwm is the subset of the TinyGo timer/counter PWM peripherals we use.
type pwm interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// fanDriver scales an 8-bit compare value onto the timer's own period.
type fanDriver struct {
	pwm     pwm
	channel uint8
}

func newFanDriver(p pwm, pin machine.Pin) (*fanDriver, error) {
	if err := p.Configure(machine.PWMConfig{Period: FAN_PWM_PERIOD_NS}); err != nil {
		return nil, err
	}
	ch, err := p.Channel(pin)
	if err != nil {
		return nil, err
	}
	return &fanDriver{pwm: p, channel: ch}, nil
}

func (f *fanDriver) SetDuty(level uint8) error {
	f.pwm.Set(f.channel, uint32(level)*f.pwm.Top()/hal.PWMPeriod)
	return nil
}

// uartPort forwards received bytes from the UART ring buffer.
type uartPort struct {
	uart *machine.UART
	rx   chan byte
}

func newUARTPort(u *machine.UART) *uartPort {
	p := &uartPort{
		uart: u,
		rx:   make(chan byte, 4),
	}
	go p.receive()
	return p
}

func (p *uartPort) WriteByte(b byte) error {
	return p.uart.WriteByte(b)
}

func (p *uartPort) Received() <-chan byte {
	return p.rx
}

func (p *uartPort) receive() {
	for {
		for p.uart.Buffered() > 0 {
			b, err := p.uart.ReadByte()
			if err != nil {
				break
			}
			p.rx <- b
		}
		time.Sleep(time.Millisecond)
	}
}

type ledIndicator struct {
	pin machine.Pin
}

func (l ledIndicator) Toggle() {
	l.pin.Set(!l.pin.Get())
}
