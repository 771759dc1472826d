package hc05_test

import (
	"errors"
	"testing"

	"i4.energy/across/btprog/hc05"
)

func TestNewGPIOBoard_UnknownPin(t *testing.T) {
	// No host driver is initialized in tests, so no pin name resolves
	_, err := hc05.NewGPIOBoard(hc05.PinMap{
		CommandMode: "GPIO17",
		ModuleReset: "GPIO27",
		BusyLED:     "GPIO22",
		SavingLED:   "GPIO23",
		ModeSelect:  "GPIO24",
		Trigger:     "GPIO25",
		TargetLink:  "GPIO5",
		LocalLink:   "GPIO6",
		TargetReset: "GPIO13",
	})

	if !errors.Is(err, hc05.ErrUnknownPin) {
		t.Errorf("expected ErrUnknownPin, got: %v", err)
	}
}

func TestBusRouteString(t *testing.T) {
	cases := []struct {
		route hc05.BusRoute
		want  string
	}{
		{hc05.BusLocalOpen, "local-open"},
		{hc05.BusTarget, "target"},
		{hc05.BusRoute(42), "unknown"},
	}

	for _, c := range cases {
		if got := c.route.String(); got != c.want {
			t.Errorf("BusRoute(%d).String() = %q, want %q", int(c.route), got, c.want)
		}
	}
}
