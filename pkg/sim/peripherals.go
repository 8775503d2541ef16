package sim

import (
	"sync"
	"sync/atomic"

	"github.com/itohio/gofan/pkg/hal"
)

// DefaultBufferSize is the default UART buffer size in each direction.
const DefaultBufferSize = 16

var (
	_ hal.Actuator  = (*Plant)(nil)
	_ hal.Port      = (*UART)(nil)
	_ hal.Indicator = (*LED)(nil)
)

// UART is an in-memory serial port. The controller side uses it as a
// hal.Port, the host side calls Send and reads Transmitted.
type UART struct {
	rx chan byte
	tx chan byte

	mu     sync.Mutex
	closed bool
}

// NewUART creates a port with bufSize bytes of buffering in each direction.
func NewUART(bufSize int) *UART {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &UART{
		rx: make(chan byte, bufSize),
		tx: make(chan byte, bufSize),
	}
}

// WriteByte implements hal.Port. When the host is not draining the port the
// byte is lost, like an overwritten transmit register.
func (u *UART) WriteByte(b byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	select {
	case u.tx <- b:
	default:
	}
	return nil
}

// Received implements hal.Port.
func (u *UART) Received() <-chan byte {
	return u.rx
}

// Send delivers one byte to the controller. Returns false if the port is
// closed or its receive buffer is full.
func (u *UART) Send(b byte) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return false
	}
	select {
	case u.rx <- b:
		return true
	default:
		return false
	}
}

// Transmitted delivers the bytes the controller wrote.
func (u *UART) Transmitted() <-chan byte {
	return u.tx
}

// Close closes both directions.
func (u *UART) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return nil
	}
	u.closed = true
	close(u.rx)
	close(u.tx)
	return nil
}

// LED counts indicator toggles.
type LED struct {
	toggles atomic.Uint64
}

// Toggle implements hal.Indicator.
func (l *LED) Toggle() {
	l.toggles.Add(1)
}

// On reports the current indicator state; it starts off.
func (l *LED) On() bool {
	return l.toggles.Load()%2 == 1
}

// Toggles returns how many times the indicator changed state.
func (l *LED) Toggles() uint64 {
	return l.toggles.Load()
}
