package hc05

//go:generate go tool mockgen -source=board.go -destination=mock_board.go -package=hc05

// BusRoute selects how the bus switches route the module's serial lines.
type BusRoute int

const (
	// BusLocalOpen leaves the local controller's own lines open; nothing
	// is bridged.
	BusLocalOpen BusRoute = iota
	// BusTarget bridges the module to the downstream target.
	BusTarget
)

func (r BusRoute) String() string {
	switch r {
	case BusLocalOpen:
		return "local-open"
	case BusTarget:
		return "target"
	default:
		return "unknown"
	}
}

// Board is the digital I/O collaborator around the module: the control lines,
// the status indicators, the sense inputs and the serial bus switches. All
// signals are binary.
//
// Implementations only set and sample levels; pulse widths and settle timing
// belong to the caller.
type Board interface {
	// SetCommandMode drives the module's command-mode-select line. While
	// the line is high through a module reset, the module boots into
	// command mode.
	SetCommandMode(on bool) error

	// SetModuleReset drives the module's reset line; asserted means held
	// in reset.
	SetModuleReset(asserted bool) error

	// SetBusy drives the busy indicator.
	SetBusy(on bool) error

	// SetSaving drives the saving indicator.
	SetSaving(on bool) error

	// ModeSelect samples the mode-select input. True is the high level.
	ModeSelect() (bool, error)

	// Trigger samples the trigger input. True is the high level.
	Trigger() (bool, error)

	// SetBus routes the serial bus switches.
	SetBus(route BusRoute) error

	// SetTargetReset drives the downstream target's reset line; asserted
	// means held in reset.
	SetTargetReset(asserted bool) error
}
