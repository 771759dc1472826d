package hc05_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"i4.energy/across/btprog/at"
	"i4.energy/across/btprog/hc05"
)

// fakeBoard records every level written to it and plays back configured
// input levels. Error injection is left to MockBoard.
type fakeBoard struct {
	mu       sync.Mutex
	modeHigh bool
	trigHigh bool

	cmdMode     []bool
	moduleReset []bool
	targetReset []bool
	busy        []bool
	saving      []bool
	busRoutes   []hc05.BusRoute
}

func (b *fakeBoard) SetCommandMode(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cmdMode = append(b.cmdMode, on)
	return nil
}

func (b *fakeBoard) SetModuleReset(asserted bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moduleReset = append(b.moduleReset, asserted)
	return nil
}

func (b *fakeBoard) SetBusy(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy = append(b.busy, on)
	return nil
}

func (b *fakeBoard) SetSaving(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saving = append(b.saving, on)
	return nil
}

func (b *fakeBoard) ModeSelect() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modeHigh, nil
}

func (b *fakeBoard) Trigger() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trigHigh, nil
}

func (b *fakeBoard) SetBus(route hc05.BusRoute) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.busRoutes = append(b.busRoutes, route)
	return nil
}

func (b *fakeBoard) SetTargetReset(asserted bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.targetReset = append(b.targetReset, asserted)
	return nil
}

// runFixture wires a Controller to a scripted TestTransport with timings
// shrunk to keep the tests fast.
type runFixture struct {
	transport  *hc05.TestTransport
	controller *hc05.Controller
	close      func()
}

func newRunFixture(t *testing.T, board hc05.Board, build func(*hc05.ConfigBuilder)) *runFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	transport := hc05.NewTestTransport()
	mockDialer := hc05.NewMockDialer(ctrl)
	mockDialer.EXPECT().Dial(gomock.Any()).Return(transport, nil)

	builder := hc05.NewConfigBuilder().
		WithDialer(mockDialer).
		WithBoard(board).
		WithATTimeout(40 * time.Millisecond).
		WithSettleDelay(time.Millisecond).
		WithResetPulse(time.Millisecond).
		WithResetSettle(time.Millisecond).
		WithMaxRetries(1)
	if build != nil {
		build(builder)
	}
	config, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := hc05.New(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}

	controller, err := hc05.NewController(m, config)
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- m.Loop(context.Background())
	}()

	return &runFixture{
		transport:  transport,
		controller: controller,
		close: func() {
			m.Close()
			<-loopDone
		},
	}
}

// scriptQueries answers the four configuration queries with well-formed
// replies carrying the given values.
func scriptQueries(transport *hc05.TestTransport, uart, name, pswd, role string) {
	transport.Script("AT+UART?", "+UART:"+uart+"\r\nOK\r\n")
	transport.Script("AT+NAME?", "+NAME:"+name+"\r\nOK\r\n")
	transport.Script("AT+PSWD?", "+PSWD:"+pswd+"\r\nOK\r\n")
	transport.Script("AT+ROLE?", "+ROLE:"+role+"\r\nOK\r\n")
}

func TestControllerRun(t *testing.T) {
	t.Run("Programming run writes the fixed settings and bridges the target", func(t *testing.T) {
		board := &fakeBoard{modeHigh: false} // low selects programming
		fx := newRunFixture(t, board, nil)
		defer fx.close()

		// Captured values differ from the programming literals on purpose:
		// the fixed settings must win regardless of what was saved
		scriptQueries(fx.transport, "9600,0,0", "HC05", "1234", "0")

		if err := fx.controller.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error from Run(): %v", err)
		}

		want := []string{
			"AT+ORGL",
			"AT+UART?", "AT+NAME?", "AT+PSWD?", "AT+ROLE?",
			"AT+UART=115200,0,0", "AT+NAME=BT_Programmer", "AT+ROLE=0", "AT+PSWD=1234",
			"AT+INIT",
		}
		if got := fx.transport.Writes(); !slices.Equal(got, want) {
			t.Errorf("wire sequence mismatch:\n got %q\nwant %q", got, want)
		}

		if !slices.Equal(board.busRoutes, []hc05.BusRoute{hc05.BusTarget}) {
			t.Errorf("expected bus bridged to target, got: %v", board.busRoutes)
		}
		if !slices.Equal(board.targetReset, []bool{true, false}) {
			t.Errorf("expected one target reset pulse, got: %v", board.targetReset)
		}
		if !slices.Equal(board.cmdMode, []bool{true, false}) {
			t.Errorf("expected command mode raised then released, got: %v", board.cmdMode)
		}
		if !slices.Equal(board.moduleReset, []bool{true, false, true, false}) {
			t.Errorf("expected two module reset pulses, got: %v", board.moduleReset)
		}
		if !slices.Equal(board.busy, []bool{true, false}) {
			t.Errorf("expected busy indicator on then off, got: %v", board.busy)
		}
		if !slices.Equal(board.saving, []bool{true, false}) {
			t.Errorf("expected saving indicator on then off, got: %v", board.saving)
		}

		if state := fx.controller.State(); state != hc05.StateIdle {
			t.Errorf("expected controller back in %q, got: %q", hc05.StateIdle, state)
		}
	})

	t.Run("Communication run restores the captured settings", func(t *testing.T) {
		board := &fakeBoard{modeHigh: true}
		fx := newRunFixture(t, board, nil)
		defer fx.close()

		scriptQueries(fx.transport, "38400,0,0", "MyDevice", "0000", "1")

		if err := fx.controller.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error from Run(): %v", err)
		}

		want := []string{
			"AT+ORGL",
			"AT+UART?", "AT+NAME?", "AT+PSWD?", "AT+ROLE?",
			"AT+UART=38400,0,0", "AT+NAME=MyDevice", "AT+PSWD=0000", "AT+ROLE=1",
			"AT+INIT",
		}
		if got := fx.transport.Writes(); !slices.Equal(got, want) {
			t.Errorf("wire sequence mismatch:\n got %q\nwant %q", got, want)
		}

		if !slices.Equal(board.busRoutes, []hc05.BusRoute{hc05.BusLocalOpen}) {
			t.Errorf("expected bus left open locally, got: %v", board.busRoutes)
		}
		if len(board.targetReset) != 0 {
			t.Errorf("communication run must not reset the target, got: %v", board.targetReset)
		}
	})

	t.Run("Keeps earlier values when a later save cannot read them", func(t *testing.T) {
		board := &fakeBoard{modeHigh: true}
		fx := newRunFixture(t, board, nil)
		defer fx.close()

		// First query stays silent once, the retry answers
		fx.transport.Script("AT+UART?", "", "+UART:9600,0,0\r\nOK\r\n")
		fx.transport.Script("AT+NAME?", "+NAME:HC05\r\nOK\r\n")
		fx.transport.Script("AT+PSWD?", "+PSWD:1234\r\nOK\r\n")
		fx.transport.Script("AT+ROLE?", "+ROLE:0\r\nOK\r\n")

		if err := fx.controller.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error from first Run(): %v", err)
		}

		// Second run: the module answers nothing, every query times out
		// after one retry, and the record keeps the first run's values
		err := fx.controller.Run(context.Background())
		if !errors.Is(err, hc05.ErrTimeout) {
			t.Errorf("expected ErrTimeout from second Run(), got: %v", err)
		}

		want := []string{
			// first run, with one retried query
			"AT+ORGL",
			"AT+UART?", "AT+UART?", "AT+NAME?", "AT+PSWD?", "AT+ROLE?",
			"AT+UART=9600,0,0", "AT+NAME=HC05", "AT+PSWD=1234", "AT+ROLE=0",
			"AT+INIT",
			// second run, all queries exhausted their retry
			"AT+ORGL",
			"AT+UART?", "AT+UART?", "AT+NAME?", "AT+NAME?",
			"AT+PSWD?", "AT+PSWD?", "AT+ROLE?", "AT+ROLE?",
			"AT+UART=9600,0,0", "AT+NAME=HC05", "AT+PSWD=1234", "AT+ROLE=0",
			"AT+INIT",
		}
		if got := fx.transport.Writes(); !slices.Equal(got, want) {
			t.Errorf("wire sequence mismatch:\n got %q\nwant %q", got, want)
		}
	})

	t.Run("Parse failure leaves the field unchanged and is not retried", func(t *testing.T) {
		board := &fakeBoard{modeHigh: true}
		fx := newRunFixture(t, board, nil)
		defer fx.close()

		fx.transport.Script("AT+UART?", "+UART:57600,1,2\r\nOK\r\n")
		fx.transport.Script("AT+NAME?", "OK\r\n") // no colon, unparsable
		fx.transport.Script("AT+PSWD?", "+PSWD:4321\r\nOK\r\n")
		fx.transport.Script("AT+ROLE?", "+ROLE:1\r\nOK\r\n")

		err := fx.controller.Run(context.Background())
		if err == nil {
			t.Fatal("expected error from Run()")
		}
		var parseErr *at.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("expected a ParseError in the run result, got: %v", err)
		}

		want := []string{
			"AT+ORGL",
			"AT+UART?", "AT+NAME?", "AT+PSWD?", "AT+ROLE?",
			// the never-captured name is skipped, the rest are restored
			"AT+UART=57600,1,2", "AT+PSWD=4321", "AT+ROLE=1",
			"AT+INIT",
		}
		if got := fx.transport.Writes(); !slices.Equal(got, want) {
			t.Errorf("wire sequence mismatch:\n got %q\nwant %q", got, want)
		}

		if !slices.Equal(board.busRoutes, []hc05.BusRoute{hc05.BusLocalOpen}) {
			t.Errorf("run must still route the bus, got: %v", board.busRoutes)
		}
	})

	t.Run("Module error reply is reported and not retried", func(t *testing.T) {
		board := &fakeBoard{modeHigh: true}
		fx := newRunFixture(t, board, nil)
		defer fx.close()

		fx.transport.Script("AT+UART?", "+UART:9600,0,0\r\nOK\r\n")
		fx.transport.Script("AT+NAME?", "+NAME:HC05\r\nOK\r\n")
		fx.transport.Script("AT+PSWD?", "ERROR:(0)\r\n")
		fx.transport.Script("AT+ROLE?", "+ROLE:0\r\nOK\r\n")

		err := fx.controller.Run(context.Background())
		if err == nil {
			t.Fatal("expected error from Run()")
		}
		if !strings.Contains(err.Error(), "ERROR:(0)") {
			t.Errorf("expected the module's error reply in the run result, got: %v", err)
		}

		want := []string{
			"AT+ORGL",
			"AT+UART?", "AT+NAME?", "AT+PSWD?", "AT+ROLE?",
			"AT+UART=9600,0,0", "AT+NAME=HC05", "AT+ROLE=0",
			"AT+INIT",
		}
		if got := fx.transport.Writes(); !slices.Equal(got, want) {
			t.Errorf("wire sequence mismatch:\n got %q\nwant %q", got, want)
		}
	})

	t.Run("Reply carrying another setting's label is not recorded", func(t *testing.T) {
		board := &fakeBoard{modeHigh: true}
		fx := newRunFixture(t, board, nil)
		defer fx.close()

		// The name query is answered with a baud-rate reply, the way a
		// late answer to an abandoned earlier query would land on the wire
		fx.transport.Script("AT+UART?", "+UART:9600,0,0\r\nOK\r\n")
		fx.transport.Script("AT+NAME?", "+UART:9600,0,0\r\nOK\r\n")
		fx.transport.Script("AT+PSWD?", "+PSWD:1234\r\nOK\r\n")
		fx.transport.Script("AT+ROLE?", "+ROLE:0\r\nOK\r\n")

		err := fx.controller.Run(context.Background())
		if err == nil {
			t.Fatal("expected error from Run()")
		}
		if !strings.Contains(err.Error(), "answers a different query") {
			t.Errorf("expected the rejected reply in the run result, got: %v", err)
		}

		want := []string{
			"AT+ORGL",
			"AT+UART?", "AT+NAME?", "AT+PSWD?", "AT+ROLE?",
			// the name was never captured, so it must not be restored,
			// least of all with the baud-rate value
			"AT+UART=9600,0,0", "AT+PSWD=1234", "AT+ROLE=0",
			"AT+INIT",
		}
		if got := fx.transport.Writes(); !slices.Equal(got, want) {
			t.Errorf("wire sequence mismatch:\n got %q\nwant %q", got, want)
		}

		if !slices.Equal(board.busRoutes, []hc05.BusRoute{hc05.BusLocalOpen}) {
			t.Errorf("run must still route the bus, got: %v", board.busRoutes)
		}
	})

	t.Run("Nothing captured, nothing restored", func(t *testing.T) {
		board := &fakeBoard{modeHigh: true}
		fx := newRunFixture(t, board, nil)
		defer fx.close()

		// No scripts: the module stays silent throughout

		err := fx.controller.Run(context.Background())
		if !errors.Is(err, hc05.ErrTimeout) {
			t.Errorf("expected ErrTimeout from Run(), got: %v", err)
		}

		want := []string{
			"AT+ORGL",
			"AT+UART?", "AT+UART?", "AT+NAME?", "AT+NAME?",
			"AT+PSWD?", "AT+PSWD?", "AT+ROLE?", "AT+ROLE?",
			"AT+INIT",
		}
		if got := fx.transport.Writes(); !slices.Equal(got, want) {
			t.Errorf("wire sequence mismatch:\n got %q\nwant %q", got, want)
		}

		if !slices.Equal(board.busRoutes, []hc05.BusRoute{hc05.BusLocalOpen}) {
			t.Errorf("run must still route the bus, got: %v", board.busRoutes)
		}
	})

	t.Run("Back-to-back runs leave the same bus state as one run", func(t *testing.T) {
		board := &fakeBoard{modeHigh: false}
		fx := newRunFixture(t, board, nil)
		defer fx.close()

		scriptQueries(fx.transport, "9600,0,0", "HC05", "1234", "0")
		scriptQueries(fx.transport, "115200,0,0", "BT_Programmer", "1234", "0")

		if err := fx.controller.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error from first Run(): %v", err)
		}
		if err := fx.controller.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error from second Run(): %v", err)
		}

		want := []hc05.BusRoute{hc05.BusTarget, hc05.BusTarget}
		if !slices.Equal(board.busRoutes, want) {
			t.Errorf("expected the bus route to repeat, got: %v", board.busRoutes)
		}
	})

	t.Run("ErrRunInProgress on overlapping runs", func(t *testing.T) {
		board := &fakeBoard{modeHigh: true}
		fx := newRunFixture(t, board, func(b *hc05.ConfigBuilder) {
			b.WithResetSettle(200 * time.Millisecond)
		})
		defer fx.close()

		scriptQueries(fx.transport, "9600,0,0", "HC05", "1234", "0")

		runDone := make(chan error, 1)
		go func() {
			runDone <- fx.controller.Run(context.Background())
		}()

		// Give the first run time to pass the guard
		time.Sleep(20 * time.Millisecond)

		if err := fx.controller.Run(context.Background()); !errors.Is(err, hc05.ErrRunInProgress) {
			t.Errorf("expected ErrRunInProgress, got: %v", err)
		}

		if err := <-runDone; err != nil {
			t.Errorf("unexpected error from first Run(): %v", err)
		}
	})

	t.Run("Board failure aborts the run but releases the module", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		boardErr := errors.New("pin stuck")
		mockBoard := hc05.NewMockBoard(ctrl)
		gomock.InOrder(
			mockBoard.EXPECT().SetBusy(true).Return(nil),
			mockBoard.EXPECT().SetCommandMode(true).Return(boardErr),
			// best-effort exit still runs
			mockBoard.EXPECT().SetCommandMode(false).Return(nil),
			mockBoard.EXPECT().SetModuleReset(true).Return(nil),
			mockBoard.EXPECT().SetModuleReset(false).Return(nil),
			mockBoard.EXPECT().SetBusy(false).Return(nil),
		)

		fx := newRunFixture(t, mockBoard, nil)
		defer fx.close()

		err := fx.controller.Run(context.Background())
		if !errors.Is(err, boardErr) {
			t.Errorf("expected the board error in the run result, got: %v", err)
		}
		if err == nil || !strings.Contains(err.Error(), "raise command-mode line") {
			t.Errorf("expected command-mode context in the error, got: %v", err)
		}

		// Nothing before the exit sequence may have reached the wire
		want := []string{"AT+INIT"}
		if got := fx.transport.Writes(); !slices.Equal(got, want) {
			t.Errorf("wire sequence mismatch:\n got %q\nwant %q", got, want)
		}
	})

	t.Run("Run events carry the configured logger's attributes", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, nil)).With("component", "controller")

		board := &fakeBoard{modeHigh: true}
		fx := newRunFixture(t, board, func(b *hc05.ConfigBuilder) {
			b.WithLogger(logger)
		})
		defer fx.close()

		scriptQueries(fx.transport, "9600,0,0", "HC05", "1234", "0")

		if err := fx.controller.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error from Run(): %v", err)
		}

		if !strings.Contains(logs.String(), `"component":"controller"`) {
			t.Errorf("expected the component attribute on run events, got: %s", logs.String())
		}
	})

	t.Run("ErrNoBoard when no board provided", func(t *testing.T) {
		_, err := hc05.NewController(nil, hc05.Config{})
		if !errors.Is(err, hc05.ErrNoBoard) {
			t.Errorf("expected ErrNoBoard, got: %v", err)
		}
	})

	t.Run("ErrNotInitialized when no module provided", func(t *testing.T) {
		_, err := hc05.NewController(nil, hc05.Config{Board: &fakeBoard{}})
		if !errors.Is(err, hc05.ErrNotInitialized) {
			t.Errorf("expected ErrNotInitialized, got: %v", err)
		}
	})
}
