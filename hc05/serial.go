package hc05

import (
	"context"
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is the module's fixed command-mode rate. The module always
// listens at 38400 while its command-mode-select line is held high through a
// reset, regardless of the data-mode rate configured with AT+UART.
const DefaultBaudRate = 38400

// openPort is swapped out in tests.
var openPort = serial.Open

// SerialDialer opens a Bluetooth serial module over a serial port using
// go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0".
	PortName string
	// BaudRate overrides DefaultBaudRate when non-zero. Ignored when Mode
	// is set.
	BaudRate int
	// Mode optionally overrides the whole port mode (parity, data bits,
	// stop bits).
	Mode *serial.Mode
}

var _ Dialer = SerialDialer{}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("hc05: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("hc05: serial port name is required")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := openPort(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}
	return port, nil
}
