package hc05

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/atomic"

	"i4.energy/across/btprog/at"
)

// State identifies the phase a configuration run is in. The zero value is
// not used; an idle Controller reports StateIdle.
type State string

const (
	// StateIdle means no configuration run is in progress.
	StateIdle State = "idle"
	// StateEnteringCommandMode means the module is being reset into AT
	// command mode.
	StateEnteringCommandMode State = "entering_command_mode"
	// StateSavingConfig means the module's current settings are being
	// queried and recorded.
	StateSavingConfig State = "saving_config"
	// StateSelectingMode means the mode-select input is being sampled.
	StateSelectingMode State = "selecting_mode"
	// StateApplyingProgramming means the fixed programming settings are
	// being written.
	StateApplyingProgramming State = "applying_programming"
	// StateApplyingCommunication means the previously saved settings are
	// being restored.
	StateApplyingCommunication State = "applying_communication"
	// StateExitingCommandMode means the module is being reset back into
	// data mode.
	StateExitingCommandMode State = "exiting_command_mode"
)

// Programming configuration. These are the settings a module needs so the
// host toolchain can flash a target board over the Bluetooth link: a fixed
// well-known name, slave role, the default pairing code, and the baud rate
// the target's bootloader talks.
const (
	ProgrammingUart     = "115200,0,0"
	ProgrammingName     = "BT_Programmer"
	ProgrammingRole     = "0"
	ProgrammingPassword = "1234"
)

// Controller drives a module between its two configurations. A run enters
// command mode, saves the settings found on the module, picks the requested
// mode from the mode-select input and applies either the fixed programming
// settings or the saved ones, then returns the module to data mode.
//
// A Controller is safe for concurrent use, but runs never overlap: while
// one is in progress further Run calls fail with ErrRunInProgress.
type Controller struct {
	module *Module
	board  Board
	logger *slog.Logger

	// record holds the settings captured from the module. It survives
	// across runs so a programming run does not lose the communication
	// settings saved before it.
	record *Record

	maxRetries  int
	resetPulse  time.Duration
	resetSettle time.Duration

	running atomic.Bool
	state   atomic.String
}

// NewController creates a Controller that drives the given module through
// the given board. The module's Loop must be started by the caller.
func NewController(module *Module, config Config) (*Controller, error) {
	if config.Board == nil {
		return nil, ErrNoBoard
	}
	if module == nil {
		return nil, ErrNotInitialized
	}
	config.setDefaults()

	c := &Controller{
		module:      module,
		board:       config.Board,
		logger:      config.Logger,
		record:      &Record{},
		maxRetries:  config.MaxRetries,
		resetPulse:  config.ResetPulse,
		resetSettle: config.ResetSettle,
	}
	c.state.Store(string(StateIdle))

	return c, nil
}

// State reports the phase the current run is in, or StateIdle.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Run performs one full configuration cycle. The target configuration is
// read from the board's mode-select input after the module's settings have
// been saved, so toggling the input during the save window still lands on
// the final position.
//
// Run returns ErrRunInProgress when another run is active. Errors from the
// individual phases are joined; a failed entry aborts the run, later phases
// degrade to best effort.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer func() {
		c.setState(StateIdle)
		c.running.Store(false)
	}()

	start := time.Now()
	c.logger.Info("configuration run started")

	if err := c.enterCommandMode(ctx); err != nil {
		// Without command mode nothing else can work, but the module
		// should not be left held in it either.
		exitErr := c.exitCommandMode(ctx)
		return errors.Join(fmt.Errorf("enter command mode: %w", err), exitErr)
	}

	var errs []error

	if err := c.savePreviousConfig(ctx); err != nil {
		errs = append(errs, fmt.Errorf("save previous config: %w", err))
	}

	programming := c.selectProgramming()

	if programming {
		if err := c.applyProgrammingConfig(ctx); err != nil {
			errs = append(errs, fmt.Errorf("apply programming config: %w", err))
		}
	} else {
		if err := c.applyCommunicationConfig(ctx); err != nil {
			errs = append(errs, fmt.Errorf("apply communication config: %w", err))
		}
	}

	if err := c.exitCommandMode(ctx); err != nil {
		errs = append(errs, fmt.Errorf("exit command mode: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Error("configuration run finished with errors", "duration", time.Since(start), "error", err)
	} else {
		c.logger.Info("configuration run finished", "duration", time.Since(start))
	}

	return err
}

func (c *Controller) setState(s State) {
	c.state.Store(string(s))
	c.logger.Debug("state", "state", string(s))
}

// enterCommandMode resets the module with the command-mode-select line held
// high, which makes it boot into AT command mode, and then wipes any
// non-persistent state with a factory reset command.
func (c *Controller) enterCommandMode(ctx context.Context) error {
	c.setState(StateEnteringCommandMode)

	if err := c.board.SetBusy(true); err != nil {
		c.logger.Warn("busy indicator failed", "error", err)
	}

	if err := c.board.SetCommandMode(true); err != nil {
		return fmt.Errorf("raise command-mode line: %w", err)
	}
	if err := c.pulseModuleReset(ctx); err != nil {
		return err
	}
	if err := wait(ctx, c.resetSettle); err != nil {
		return err
	}

	// The module acknowledges AT+ORGL only sometimes, depending on how far
	// its boot got. Fire and forget, the settle delay covers it.
	if err := c.module.send(ctx, at.CmdFactoryReset); err != nil {
		return fmt.Errorf("send %s: %w", at.CmdFactoryReset, err)
	}

	return nil
}

// savePreviousConfig queries the module's current settings and records each
// one that parses. Query failures are retried a bounded number of times;
// a field that never yields a parsable value keeps its previously recorded
// value. The save is best effort: one broken field does not stop the rest.
func (c *Controller) savePreviousConfig(ctx context.Context) error {
	c.setState(StateSavingConfig)

	if err := c.board.SetSaving(true); err != nil {
		c.logger.Warn("saving indicator failed", "error", err)
	}
	defer func() {
		if err := c.board.SetSaving(false); err != nil {
			c.logger.Warn("saving indicator failed", "error", err)
		}
	}()

	var errs []error
	for _, field := range at.QueryOrder {
		if err := c.queryField(ctx, field); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// queryField asks the module for one setting and records the parsed value.
// Only timeouts are retried: a reply that arrived but does not parse will
// not get better by asking again. A reply opening with another setting's
// label is the late answer to an earlier query; it is rejected so it cannot
// be recorded under the wrong field.
func (c *Controller) queryField(ctx context.Context, field at.ConfigField) error {
	cmd := field.Query()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying query", "command", cmd, "attempt", attempt)
		}

		reply, err := c.module.exec(ctx, cmd)
		if err != nil {
			lastErr = err
			if errors.Is(err, ErrTimeout) {
				continue
			}
			return fmt.Errorf("query %s: %w", field, err)
		}

		value, err := at.ParseValue(reply)
		if err != nil {
			// Recorded value stays as it was.
			c.logger.Warn("unparsable reply", "command", cmd, "error", err)
			return fmt.Errorf("query %s: %w", field, err)
		}

		if !strings.HasPrefix(reply, field.ReplyPrefix()) {
			c.logger.Warn("mislabeled reply dropped", "command", cmd, "reply", reply)
			return fmt.Errorf("query %s: reply %q answers a different query", field, reply)
		}

		c.record.Set(field, value)
		c.logger.Info("saved setting", "field", field.String(), "value", value)
		return nil
	}

	return fmt.Errorf("query %s: %w", field, lastErr)
}

// selectProgramming samples the mode-select input once. A low input selects
// the programming configuration. When the input cannot be read the run
// falls back to the communication configuration, which restores whatever
// the module had before.
func (c *Controller) selectProgramming() bool {
	c.setState(StateSelectingMode)

	high, err := c.board.ModeSelect()
	if err != nil {
		c.logger.Warn("mode-select read failed, using communication config", "error", err)
		return false
	}

	return !high
}

// applyProgrammingConfig writes the fixed programming settings and routes
// the serial bus to the target board, ending with a target reset so its
// bootloader comes up listening.
func (c *Controller) applyProgrammingConfig(ctx context.Context) error {
	c.setState(StateApplyingProgramming)
	c.logger.Info("applying programming config")

	settings := []struct {
		field at.ConfigField
		value string
	}{
		{at.FieldUart, ProgrammingUart},
		{at.FieldName, ProgrammingName},
		{at.FieldRole, ProgrammingRole},
		{at.FieldPassword, ProgrammingPassword},
	}

	for _, s := range settings {
		if err := c.module.send(ctx, s.field.Set(s.value)); err != nil {
			return fmt.Errorf("set %s: %w", s.field, err)
		}
	}

	if err := c.board.SetBus(BusTarget); err != nil {
		return fmt.Errorf("route bus to target: %w", err)
	}
	if err := c.pulseTargetReset(ctx); err != nil {
		return err
	}

	return nil
}

// applyCommunicationConfig restores the settings saved from the module and
// routes the serial bus back to the local port. Fields that were never
// captured are skipped rather than written as empty strings.
func (c *Controller) applyCommunicationConfig(ctx context.Context) error {
	c.setState(StateApplyingCommunication)
	c.logger.Info("applying communication config")

	for _, field := range at.QueryOrder {
		if !c.record.Has(field) {
			c.logger.Warn("no saved value, skipping", "field", field.String())
			continue
		}
		if err := c.module.send(ctx, field.Set(c.record.Get(field))); err != nil {
			return fmt.Errorf("set %s: %w", field, err)
		}
	}

	if err := c.board.SetBus(BusLocalOpen); err != nil {
		return fmt.Errorf("route bus local: %w", err)
	}

	return nil
}

// exitCommandMode reinitializes the module and resets it back into data
// mode. The command-mode line is released even when the initialize command
// fails.
func (c *Controller) exitCommandMode(ctx context.Context) error {
	c.setState(StateExitingCommandMode)

	var errs []error

	if err := c.module.send(ctx, at.CmdInitialize); err != nil {
		errs = append(errs, fmt.Errorf("send %s: %w", at.CmdInitialize, err))
	}

	if err := c.board.SetCommandMode(false); err != nil {
		errs = append(errs, fmt.Errorf("release command-mode line: %w", err))
	}
	if err := c.pulseModuleReset(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := wait(ctx, c.resetSettle); err != nil {
		errs = append(errs, err)
	}

	if err := c.board.SetBusy(false); err != nil {
		c.logger.Warn("busy indicator failed", "error", err)
	}

	return errors.Join(errs...)
}

// pulseModuleReset holds the module's reset line for the configured pulse
// width. The line is released even when the wait is cut short.
func (c *Controller) pulseModuleReset(ctx context.Context) error {
	if err := c.board.SetModuleReset(true); err != nil {
		return fmt.Errorf("assert module reset: %w", err)
	}
	waitErr := wait(ctx, c.resetPulse)
	if err := c.board.SetModuleReset(false); err != nil {
		return fmt.Errorf("release module reset: %w", err)
	}
	return waitErr
}

// pulseTargetReset resets the target board attached to the bus.
func (c *Controller) pulseTargetReset(ctx context.Context) error {
	if err := c.board.SetTargetReset(true); err != nil {
		return fmt.Errorf("assert target reset: %w", err)
	}
	waitErr := wait(ctx, c.resetPulse)
	if err := c.board.SetTargetReset(false); err != nil {
		return fmt.Errorf("release target reset: %w", err)
	}
	return waitErr
}

// wait sleeps for the given duration unless the context ends first.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
