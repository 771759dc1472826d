package hc05

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.bug.st/serial"
)

// stubOpenPort replaces the port opener for one test.
func stubOpenPort(t *testing.T, open func(string, *serial.Mode) (serial.Port, error)) {
	t.Helper()
	orig := openPort
	openPort = open
	t.Cleanup(func() { openPort = orig })
}

func TestSerialDialer(t *testing.T) {
	t.Run("Context is required", func(t *testing.T) {
		stubOpenPort(t, func(string, *serial.Mode) (serial.Port, error) {
			t.Fatal("openPort called before validation")
			return nil, nil
		})

		transport, err := SerialDialer{PortName: "/dev/ttyUSB0"}.Dial(nil)
		if err == nil || err.Error() != "hc05: context is nil" {
			t.Errorf("unexpected error: %v", err)
		}
		if transport != nil {
			t.Error("expected nil transport")
		}
	})

	t.Run("Port name is required", func(t *testing.T) {
		stubOpenPort(t, func(string, *serial.Mode) (serial.Port, error) {
			t.Fatal("openPort called before validation")
			return nil, nil
		})

		transport, err := SerialDialer{}.Dial(context.Background())
		if err == nil || err.Error() != "hc05: serial port name is required" {
			t.Errorf("unexpected error: %v", err)
		}
		if transport != nil {
			t.Error("expected nil transport")
		}
	})

	t.Run("Cancelled context is honored before opening", func(t *testing.T) {
		stubOpenPort(t, func(string, *serial.Mode) (serial.Port, error) {
			t.Fatal("openPort called despite cancelled context")
			return nil, nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		transport, err := SerialDialer{PortName: "/dev/ttyUSB0"}.Dial(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
		if transport != nil {
			t.Error("expected nil transport")
		}
	})

	t.Run("Defaults to the command mode rate at 8N1", func(t *testing.T) {
		var gotName string
		var gotMode *serial.Mode
		stubOpenPort(t, func(name string, mode *serial.Mode) (serial.Port, error) {
			gotName, gotMode = name, mode
			return nil, nil
		})

		if _, err := (SerialDialer{PortName: "/dev/serial0"}).Dial(context.Background()); err != nil {
			t.Fatalf("unexpected error from Dial(): %v", err)
		}

		if gotName != "/dev/serial0" {
			t.Errorf("unexpected port name: %q", gotName)
		}
		if gotMode == nil {
			t.Fatal("no mode passed to the opener")
		}
		if gotMode.BaudRate != DefaultBaudRate {
			t.Errorf("expected baud rate %d, got %d", DefaultBaudRate, gotMode.BaudRate)
		}
		if gotMode.Parity != serial.NoParity || gotMode.DataBits != 8 || gotMode.StopBits != serial.OneStopBit {
			t.Errorf("expected 8N1, got %+v", gotMode)
		}
	})

	t.Run("Explicit baud rate replaces the default", func(t *testing.T) {
		var gotMode *serial.Mode
		stubOpenPort(t, func(_ string, mode *serial.Mode) (serial.Port, error) {
			gotMode = mode
			return nil, nil
		})

		dialer := SerialDialer{PortName: "/dev/ttyUSB0", BaudRate: 115200}
		if _, err := dialer.Dial(context.Background()); err != nil {
			t.Fatalf("unexpected error from Dial(): %v", err)
		}

		if gotMode == nil || gotMode.BaudRate != 115200 {
			t.Errorf("expected baud rate 115200, got %+v", gotMode)
		}
		if gotMode.Parity != serial.NoParity || gotMode.DataBits != 8 || gotMode.StopBits != serial.OneStopBit {
			t.Errorf("expected 8N1, got %+v", gotMode)
		}
	})

	t.Run("Full mode overrides the baud rate", func(t *testing.T) {
		var gotMode *serial.Mode
		stubOpenPort(t, func(_ string, mode *serial.Mode) (serial.Port, error) {
			gotMode = mode
			return nil, nil
		})

		mode := &serial.Mode{
			BaudRate: 57600,
			Parity:   serial.EvenParity,
			DataBits: 7,
			StopBits: serial.TwoStopBits,
		}
		dialer := SerialDialer{PortName: "/dev/ttyUSB0", BaudRate: 9600, Mode: mode}
		if _, err := dialer.Dial(context.Background()); err != nil {
			t.Fatalf("unexpected error from Dial(): %v", err)
		}

		if gotMode != mode {
			t.Errorf("expected the given mode to pass through untouched, got %+v", gotMode)
		}
	})

	t.Run("Open failure carries the port name", func(t *testing.T) {
		cause := errors.New("device busy")
		stubOpenPort(t, func(string, *serial.Mode) (serial.Port, error) {
			return nil, cause
		})

		transport, err := SerialDialer{PortName: "/dev/ttyAMA0"}.Dial(context.Background())
		if !errors.Is(err, cause) {
			t.Errorf("expected the opener's error, got: %v", err)
		}
		if !strings.Contains(err.Error(), "/dev/ttyAMA0") {
			t.Errorf("expected the port name in the error, got: %v", err)
		}
		if transport != nil {
			t.Error("expected nil transport")
		}
	})
}
