package hc05

import (
	"io"
	"strings"
	"sync"

	"i4.energy/across/btprog/at"
)

// TestTransport is a test helper that simulates a blocking transport using
// channels. This is needed because the Loop's scanner goroutine continuously
// reads from the transport, and we need reads to block until data is
// available (like a real serial port would).
//
// It records every command written and can be scripted to answer specific
// commands, so a test can drive a whole configuration run and then assert
// the exact wire traffic.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	closed   bool
	writes   []string
	scripts  map[string][]string
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 10),
		scripts:  make(map[string][]string),
	}
}

// Script queues replies for a command. Each time the command is written one
// queued reply is sent back; once they run out the command goes unanswered,
// which is how a silent module is simulated. An empty reply also leaves
// that one write unanswered, so a timeout-then-retry exchange can be
// scripted.
func (t *TestTransport) Script(cmd string, replies ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scripts[cmd] = append(t.scripts[cmd], replies...)
}

// Writes returns the commands written so far, in order, without framing.
func (t *TestTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	writes := make([]string, len(t.writes))
	copy(writes, t.writes)
	return writes
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cmd := strings.TrimSuffix(string(p), at.CRLF)
	t.writes = append(t.writes, cmd)

	if replies, ok := t.scripts[cmd]; ok && len(replies) > 0 {
		t.scripts[cmd] = replies[1:]
		if replies[0] != "" && !t.closed {
			t.readChan <- []byte(replies[0])
		}
	}

	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport.
// This simulates receiving data from the module.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}
