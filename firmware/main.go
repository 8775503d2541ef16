//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"machine"
	"time"

	"github.com/itohio/gofan/pkg/control"
	"github.com/itohio/gofan/pkg/regulator"
	"github.com/itohio/gofan/pkg/thermistor"
)

func main() {
	// Activity LED, starts off
	PIN_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_LED.Low()

	// Thermistor divider on the ADC at full resolution
	PIN_THERMISTOR.Configure(machine.PinConfig{Mode: machine.PinInput})
	adc := machine.ADC{Pin: PIN_THERMISTOR}
	adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	// Fan PWM
	fan, err := newFanDriver(fanPWM, PIN_FAN)
	if err != nil {
		println("fan pwm:", err.Error())
		for {
			time.Sleep(time.Second)
		}
	}

	// Setpoint link
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	reg := regulator.New(regulator.Hardware{
		Sampler:   newADCSampler(adc, SAMPLE_INTERVAL_MS*time.Millisecond),
		Actuator:  fan,
		Port:      newUARTPort(uart),
		Indicator: ledIndicator{pin: PIN_LED},
	}, control.NewSetpoint(control.DefaultSetpoint), regulator.Options{
		InitialDuty: regulator.DefaultInitialDuty,
		Estimator: func(raw uint16) float64 {
			return float64(thermistor.Estimate32(raw))
		},
	})

	// Runs until reset
	if err := reg.Run(context.Background()); err != nil {
		println("regulator:", err.Error())
	}
}
