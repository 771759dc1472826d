package hc05

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Runner starts one configuration run. *Controller is the production
// implementation.
type Runner interface {
	Run(ctx context.Context) error
}

// Watcher polls the board's trigger input and starts a configuration run
// for each debounced press. The trigger line idles high through a pull-up;
// pressing the button pulls it low.
type Watcher struct {
	board  Board
	run    Runner
	logger *slog.Logger

	poll     time.Duration
	debounce time.Duration
}

// NewWatcher creates a Watcher that invokes run on every trigger press.
func NewWatcher(run Runner, config Config) (*Watcher, error) {
	if config.Board == nil {
		return nil, ErrNoBoard
	}
	if run == nil {
		return nil, ErrNoRunner
	}
	config.setDefaults()

	return &Watcher{
		board:    config.Board,
		run:      run,
		logger:   config.Logger,
		poll:     config.PollInterval,
		debounce: config.DebounceDelay,
	}, nil
}

// Watch polls the trigger input until the context ends. A press counts once
// it reads low twice, a debounce delay apart. The run is invoked on the
// polling goroutine, so the input is not sampled again until the run has
// finished, and it stays disarmed until the line has been seen high again.
// A run that fails is logged, not returned: the watcher keeps serving
// presses for as long as the context lives.
func (w *Watcher) Watch(ctx context.Context) error {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	armed := true

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		high, err := w.board.Trigger()
		if err != nil {
			w.logger.Warn("trigger read failed", "error", err)
			continue
		}

		if high {
			// Button released, the next press counts again.
			armed = true
			continue
		}

		if !armed {
			continue
		}

		// First low sample. Confirm after the debounce delay so contact
		// bounce does not start a run.
		if err := wait(ctx, w.debounce); err != nil {
			return err
		}
		high, err = w.board.Trigger()
		if err != nil {
			w.logger.Warn("trigger read failed", "error", err)
			continue
		}
		if high {
			continue
		}

		armed = false
		w.logger.Info("trigger pressed")

		if err := w.run.Run(ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				w.logger.Warn("trigger ignored, run already in progress")
			} else {
				w.logger.Error("triggered run failed", "error", err)
			}
		}
	}
}
