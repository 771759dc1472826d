package hc05

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// PinMap names the host GPIO lines wired to the module, the indicators and
// the bus switches. Names are resolved through periph's gpioreg, so chip
// names ("GPIO17") and registered aliases both work.
type PinMap struct {
	CommandMode string
	ModuleReset string
	BusyLED     string
	SavingLED   string
	ModeSelect  string
	Trigger     string
	TargetLink  string
	LocalLink   string
	TargetReset string
}

// GPIOBoard drives the module's discrete signals through host GPIO lines.
//
// Both reset lines are wired active-low. The two sense inputs are pulled up
// and read low when their switch closes. periph's host driver must be
// initialized (host.Init) before constructing a GPIOBoard.
type GPIOBoard struct {
	commandMode gpio.PinIO
	moduleReset gpio.PinIO
	busyLED     gpio.PinIO
	savingLED   gpio.PinIO
	modeSelect  gpio.PinIO
	trigger     gpio.PinIO
	targetLink  gpio.PinIO
	localLink   gpio.PinIO
	targetReset gpio.PinIO
}

var _ Board = (*GPIOBoard)(nil)

// NewGPIOBoard resolves the named pins and puts every line into its idle
// state: control lines released, indicators off, bus open, inputs pulled up.
func NewGPIOBoard(pins PinMap) (*GPIOBoard, error) {
	b := &GPIOBoard{}

	outputs := []struct {
		name string
		pin  *gpio.PinIO
		idle gpio.Level
	}{
		{pins.CommandMode, &b.commandMode, gpio.Low},
		{pins.ModuleReset, &b.moduleReset, gpio.High}, // active-low, released
		{pins.BusyLED, &b.busyLED, gpio.Low},
		{pins.SavingLED, &b.savingLED, gpio.Low},
		{pins.TargetLink, &b.targetLink, gpio.Low},
		{pins.LocalLink, &b.localLink, gpio.Low},
		{pins.TargetReset, &b.targetReset, gpio.High}, // active-low, released
	}
	for _, out := range outputs {
		pin := gpioreg.ByName(out.name)
		if pin == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPin, out.name)
		}
		if err := pin.Out(out.idle); err != nil {
			return nil, fmt.Errorf("configure %s as output: %w", out.name, err)
		}
		*out.pin = pin
	}

	inputs := []struct {
		name string
		pin  *gpio.PinIO
	}{
		{pins.ModeSelect, &b.modeSelect},
		{pins.Trigger, &b.trigger},
	}
	for _, in := range inputs {
		pin := gpioreg.ByName(in.name)
		if pin == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPin, in.name)
		}
		if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %s as input: %w", in.name, err)
		}
		*in.pin = pin
	}

	return b, nil
}

func (b *GPIOBoard) SetCommandMode(on bool) error {
	return b.commandMode.Out(gpio.Level(on))
}

func (b *GPIOBoard) SetModuleReset(asserted bool) error {
	return b.moduleReset.Out(gpio.Level(!asserted))
}

func (b *GPIOBoard) SetBusy(on bool) error {
	return b.busyLED.Out(gpio.Level(on))
}

func (b *GPIOBoard) SetSaving(on bool) error {
	return b.savingLED.Out(gpio.Level(on))
}

func (b *GPIOBoard) ModeSelect() (bool, error) {
	return bool(b.modeSelect.Read()), nil
}

func (b *GPIOBoard) Trigger() (bool, error) {
	return bool(b.trigger.Read()), nil
}

// SetBus breaks the standing route before closing the new one so both
// switches are never closed at once.
func (b *GPIOBoard) SetBus(route BusRoute) error {
	switch route {
	case BusTarget:
		if err := b.localLink.Out(gpio.Low); err != nil {
			return fmt.Errorf("open local link: %w", err)
		}
		if err := b.targetLink.Out(gpio.High); err != nil {
			return fmt.Errorf("close target link: %w", err)
		}
	default:
		if err := b.targetLink.Out(gpio.Low); err != nil {
			return fmt.Errorf("open target link: %w", err)
		}
		if err := b.localLink.Out(gpio.Low); err != nil {
			return fmt.Errorf("open local link: %w", err)
		}
	}
	return nil
}

func (b *GPIOBoard) SetTargetReset(asserted bool) error {
	return b.targetReset.Out(gpio.Level(!asserted))
}
