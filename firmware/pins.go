//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 100 // ADC conversion cadence in milliseconds
	ADC_RESOLUTION     = 12  // ADC resolution in bits (12-bit = 0-4095)
	ADC_REFERENCE_MV   = 3300

	// Fan PWM: 25 kHz is the usual 4-pin fan control frequency
	FAN_PWM_PERIOD_NS = 40000

	// Serial configuration: one byte per cycle each way, 9600 8N1 is plenty
	UART_BAUD_RATE = 9600

	// Thermistor divider
	PIN_THERMISTOR = machine.A0

	// Fan PWM output
	PIN_FAN = machine.D2

	// Activity LED
	PIN_LED = machine.LED
)

var (
	fanPWM = machine.TCC0
	uart   = machine.UART0
)
