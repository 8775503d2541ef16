// Package link is the host side of the controller's serial protocol: one
// telemetry byte per control cycle in, one setpoint byte out.
package link

import "time"

// Reading is one telemetry byte received from the controller.
type Reading struct {
	Timestamp time.Time
	Celsius   int // truncated temperature, decoded as an unsigned byte
}

// Link defines the interface for controller connections (real or mocked).
type Link interface {
	Connect() error
	Close() error
	Readings() <-chan Reading
	SetTarget(celsius uint8) error
	IsConnected() bool
}

// Ensure Serial implements Link.
var _ Link = (*Serial)(nil)

// Ensure Mock implements Link.
var _ Link = (*Mock)(nil)

// decode turns a telemetry byte into a Reading. Negative temperatures wrap
// on the controller and cannot be told apart from values above 127.
func decode(b byte, at time.Time) Reading {
	return Reading{
		Timestamp: at,
		Celsius:   int(b),
	}
}
