package hc05

import "errors"

var (
	// ErrNoDialer is returned when a driver is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the module.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNoBoard is returned when a Controller or Watcher is constructed
	// without a Board.
	//
	// The digital I/O collaborator drives the command-mode and reset lines,
	// so nothing can run without one.
	ErrNoBoard = errors.New("no board configured")

	// ErrNoRunner is returned when a Watcher is constructed without a
	// Runner to invoke on a trigger press.
	ErrNoRunner = errors.New("no runner configured")

	// ErrNotInitialized is returned when an operation is attempted on a
	// driver that has not been successfully constructed.
	ErrNotInitialized = errors.New("driver not initialized")

	// ErrAlreadyClosed is returned when Close is called on a driver that has
	// already been closed.
	ErrAlreadyClosed = errors.New("driver already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop call
	// is still running.
	ErrLoopRunning = errors.New("event loop already running")

	// ErrRunInProgress is returned when a mode switch is requested while a
	// previous run has not finished.
	//
	// The module cannot serve two overlapping command sessions; callers
	// should drop the request and wait for a fresh trigger.
	ErrRunInProgress = errors.New("mode switch already in progress")

	// ErrTimeout is returned when the module produces no final result line
	// before the command deadline.
	//
	// Callers may retry a bounded number of times; the module stays silent
	// when it is absent, unpowered, or not in command mode.
	ErrTimeout = errors.New("no reply before deadline")

	// ErrLineTooLong is returned when a reply line exceeds the maximum
	// allowed length.
	//
	// This typically indicates unexpected binary data or a framing error,
	// for example reading a data-mode stream while expecting command mode.
	ErrLineTooLong = errors.New("reply line too long")

	// ErrUnknownPin is returned when a PinMap entry does not resolve to a
	// host GPIO line.
	ErrUnknownPin = errors.New("unknown GPIO pin")
)
