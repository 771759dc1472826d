package hc05

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/atomic"

	"i4.energy/across/btprog/at"
)

// maxLineLen bounds a single reply line. Configuration replies are a few
// dozen bytes; anything longer means the port is carrying data-mode traffic.
const maxLineLen = 256

// Module is a driver for an HC-05 style Bluetooth serial module that talks AT
// commands while its command-mode-select line is held. It provides thread-safe
// command execution through a centralized event loop that handles all
// transport I/O.
type Module struct {
	// transport provides the physical connection to the module
	transport Transport
	// logger receives structured driver events
	logger *slog.Logger
	// atTimeout is the default deadline for a command's final result line
	atTimeout time.Duration
	// settleDelay is the post-write wait for commands with no parsed reply
	settleDelay time.Duration

	// closed indicates the driver has been shut down
	closed atomic.Bool
	// loopRunning indicates the Loop is currently running
	loopRunning atomic.Bool

	// commands queues AT command requests for the Loop to process
	commands chan *commandRequest
}

// commandRequest represents an AT command request to be executed by the Loop.
type commandRequest struct {
	// cmd is the AT command string to send, without framing
	cmd string
	// expectReply selects whether the Loop collects a reply or completes
	// the request right after the write
	expectReply bool
	// respChan receives the command response from the Loop
	respChan chan commandResponse
	// ctx provides timeout and cancellation control for the command
	ctx context.Context
}

// commandResponse contains the result of an AT command execution.
type commandResponse struct {
	// response contains the complete reply text, lines joined with "\n"
	response string
	// err contains any error that occurred during command execution
	err error
}

// New creates a new Module driver with the given configuration. It dials the
// transport and prepares the event loop context. The module itself is not
// touched: it only accepts commands once the Controller raises the
// command-mode-select line and resets it.
func New(ctx context.Context, config Config) (*Module, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	m := &Module{
		transport:   transport,
		logger:      config.Logger,
		atTimeout:   config.ATTimeout,
		settleDelay: config.SettleDelay,
		// No queue for commands
		commands: make(chan *commandRequest),
	}

	return m, nil
}

// Loop is the main event loop that handles all transport I/O operations.
// It must be running before exec or send are called. The Loop coordinates
// all communication with the module:
//
// 1. Processes command requests from exec() and send() calls
// 2. Writes framed AT commands to the transport
// 3. Reads and classifies reply lines from the transport
// 4. Returns command responses to waiting exec() calls
//
// The Loop runs until the provided context is cancelled or the transport
// fails. It is the ONLY goroutine that reads from the transport, preventing
// race conditions between replies.
//
// Usage:
//
//	module, err := New(ctx, config)
//	if err != nil { return err }
//
//	// Start the loop (typically in a goroutine)
//	go module.Loop(ctx)
func (m *Module) Loop(ctx context.Context) error {
	if !m.loopRunning.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer m.loopRunning.Store(false)

	// Derived so the scanner goroutine is released when Loop returns early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scanner := bufio.NewScanner(m.transport)
	scanner.Split(at.Splitter)
	scanner.Buffer(make([]byte, 0, 128), maxLineLen)

	// Channels for tokens and errors from the scanner goroutine
	tokens := make(chan string, 10)
	scanErrs := make(chan error, 1)

	// Start goroutine to read tokens from transport
	go func() {
		defer func() {
			close(tokens)
		}()
		for scanner.Scan() {
			token := scanner.Text()
			if token != "" {
				select {
				case tokens <- token:
				case <-ctx.Done():
					return
				}
			}
		}
		// Scanner stopped - check if there was an error
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				err = ErrLineTooLong
			}
			select {
			case scanErrs <- err:
			case <-ctx.Done():
			}
		}
	}()

	// Current command being processed
	var currentCmd *commandRequest
	var currentLines []string

	for {
		select {
		case <-ctx.Done():
			// Context cancelled - shut down gracefully
			if currentCmd != nil {
				currentCmd.respChan <- commandResponse{err: ctx.Err()}
			}
			return ctx.Err()

		case req := <-m.commands:
			// A command whose caller stopped waiting may still be armed.
			// Reap it, and drop reply lines already buffered: anything
			// read before the coming write answers an earlier command.
			if currentCmd != nil {
				currentCmd.respChan <- commandResponse{err: commandErr(currentCmd.cmd, currentCmd.ctx.Err())}
				currentCmd = nil
				currentLines = nil
			}
		drain:
			for {
				select {
				case stale, ok := <-tokens:
					if !ok {
						break drain
					}
					m.logger.Debug("dropping stale line", "line", stale)
				default:
					break drain
				}
			}

			// Write the framed AT command to the transport
			wire := strings.TrimSpace(req.cmd) + at.CRLF
			if _, err := m.transport.Write([]byte(wire)); err != nil {
				req.respChan <- commandResponse{err: fmt.Errorf("write command %q: %w", req.cmd, err)}
				continue
			}

			if !req.expectReply {
				// Fire-and-forget: the caller owns the settle delay, and
				// any reply the module produces anyway is dropped as
				// orphaned below.
				req.respChan <- commandResponse{}
				continue
			}

			currentCmd = req
			currentLines = nil

		case token, ok := <-tokens:
			if !ok {
				// Token channel closed - scanner stopped. Prefer the
				// scanner's own error over a bare EOF.
				err := io.EOF
				select {
				case scanErr := <-scanErrs:
					err = fmt.Errorf("scanner error: %w", scanErr)
				default:
				}
				if currentCmd != nil {
					currentCmd.respChan <- commandResponse{err: err}
					currentCmd = nil
					currentLines = nil
				}
				return err
			}

			switch at.Classify(token) {
			case at.TypeFinal:
				// Final result line (OK, ERROR:(n), FAIL)
				if currentCmd != nil {
					currentLines = append(currentLines, token)
					response := strings.Join(currentLines, "\n")

					if token == at.OK {
						// Command succeeded
						currentCmd.respChan <- commandResponse{response: response}
					} else {
						// Command failed
						currentCmd.respChan <- commandResponse{response: response, err: errors.New(token)}
					}

					currentCmd = nil
					currentLines = nil
				} else {
					// Orphaned final, typically the acknowledgment of a
					// fire-and-forget command.
					m.logger.Debug("dropping stray final", "line", token)
				}

			case at.TypeData:
				if currentCmd != nil {
					currentLines = append(currentLines, token)
				} else {
					m.logger.Debug("dropping stray data", "line", token)
				}
			}

			// Check if the current command has timed out
			if currentCmd != nil {
				select {
				case <-currentCmd.ctx.Done():
					currentCmd.respChan <- commandResponse{err: commandErr(currentCmd.cmd, currentCmd.ctx.Err())}
					currentCmd = nil
					currentLines = nil
				default:
					// Command still within its deadline
				}
			}

		case err := <-scanErrs:
			// Scanner error - notify current command if any
			if currentCmd != nil {
				currentCmd.respChan <- commandResponse{err: fmt.Errorf("read error: %w", err)}
				currentCmd = nil
				currentLines = nil
			}
			return fmt.Errorf("scanner error: %w", err)
		}
	}
}

// Close shuts down the driver and releases all resources.
// Closing the transport unblocks the Loop's reader, so a running Loop
// winds down on its own. After calling Close(), the driver cannot be
// reused.
func (m *Module) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}

	if m.transport != nil {
		return m.transport.Close()
	}

	return nil
}

// exec sends an AT command to the module and waits for its final result
// line. The reply's lines, including the final one, are returned joined
// with "\n". The wait is bounded: without a deadline on ctx, the configured
// ATTimeout applies, and expiry surfaces as ErrTimeout.
//
// The Loop must be running before calling this method.
func (m *Module) exec(ctx context.Context, cmd string) (string, error) {
	if m.closed.Load() {
		return "", ErrAlreadyClosed
	}
	if m.transport == nil {
		return "", ErrNotInitialized
	}

	// Apply the per-command timeout if the context has none
	if _, ok := ctx.Deadline(); !ok && m.atTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.atTimeout)
		defer cancel()
	}

	req := &commandRequest{
		cmd:         cmd,
		expectReply: true,
		respChan:    make(chan commandResponse, 1), // Buffered to prevent blocking
		ctx:         ctx,
	}

	// Send request to Loop
	select {
	case m.commands <- req:
		// Request accepted
	case <-ctx.Done():
		return "", fmt.Errorf("command %q not sent: %w", cmd, ctx.Err())
	}

	// Wait for response from Loop
	select {
	case resp := <-req.respChan:
		return resp.response, resp.err
	case <-ctx.Done():
		return "", commandErr(cmd, ctx.Err())
	}
}

// send writes an AT command without collecting a reply and then waits the
// configured settle delay, the substitute for an acknowledgment. Whatever
// the module answers is dropped by the Loop as orphaned.
//
// The Loop must be running before calling this method.
func (m *Module) send(ctx context.Context, cmd string) error {
	if m.closed.Load() {
		return ErrAlreadyClosed
	}
	if m.transport == nil {
		return ErrNotInitialized
	}

	// Bound the handoff to the Loop the same way exec does; the settle wait
	// below keeps the caller's own context.
	sendCtx := ctx
	if _, ok := ctx.Deadline(); !ok && m.atTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, m.atTimeout)
		defer cancel()
	}

	req := &commandRequest{
		cmd:      cmd,
		respChan: make(chan commandResponse, 1),
		ctx:      sendCtx,
	}

	select {
	case m.commands <- req:
	case <-sendCtx.Done():
		return fmt.Errorf("command %q not sent: %w", cmd, sendCtx.Err())
	}

	select {
	case resp := <-req.respChan:
		if resp.err != nil {
			return resp.err
		}
	case <-sendCtx.Done():
		return fmt.Errorf("command %q not sent: %w", cmd, sendCtx.Err())
	}

	// Settle: give the module time to act on the command
	timer := time.NewTimer(m.settleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// commandErr distinguishes a module that stayed silent from a cancelled
// caller.
func commandErr(cmd string, cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Errorf("command %q: %w", cmd, ErrTimeout)
	}
	return fmt.Errorf("command %q: %w", cmd, cause)
}
