package sim

import (
	"github.com/itohio/gofan/pkg/config"
	"github.com/itohio/gofan/pkg/regulator"
)

// Board is a complete simulated controller board.
type Board struct {
	Plant *Plant
	ADC   *ADC
	UART  *UART
	LED   *LED
}

// NewBoard wires a plant, sampler, serial port and indicator from cfg.
func NewBoard(cfg *config.Config) *Board {
	if cfg == nil {
		cfg = config.Default()
	}

	plant := NewPlant(cfg.Mock)
	return &Board{
		Plant: plant,
		ADC:   NewADC(plant, cfg.Sampler.Interval),
		UART:  NewUART(cfg.Mock.UARTBuffer),
		LED:   &LED{},
	}
}

// Hardware returns the board's peripherals as regulator handles.
func (b *Board) Hardware() regulator.Hardware {
	return regulator.Hardware{
		Sampler:   b.ADC,
		Actuator:  b.Plant,
		Port:      b.UART,
		Indicator: b.LED,
	}
}

// Close stops sampling and closes the serial port.
func (b *Board) Close() error {
	if err := b.ADC.Close(); err != nil {
		return err
	}
	return b.UART.Close()
}
