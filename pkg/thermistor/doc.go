// Package thermistor converts 12-bit ADC counts from a 10k NTC divider into
// temperature using the Steinhart-Hart equation.
package thermistor
