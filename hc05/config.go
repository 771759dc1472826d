package hc05

import (
	"io"
	"log/slog"
	"time"
)

// Config carries everything the driver, the Controller and the Watcher need.
// Zero fields are filled with defaults; only the Dialer is mandatory (and the
// Board, for the Controller and the Watcher).
type Config struct {
	// Dialer opens the Transport to the module.
	Dialer Dialer
	// Board is the digital I/O collaborator.
	Board Board
	// Logger receives structured events. Defaults to a discard logger.
	Logger *slog.Logger

	// ATTimeout bounds the wait for a command's final result line.
	ATTimeout time.Duration
	// SettleDelay is the fixed wait after a command that gets no reply
	// parsed, substituting for an acknowledgment.
	SettleDelay time.Duration
	// ResetPulse is how long a reset line is held asserted.
	ResetPulse time.Duration
	// ResetSettle is the wait after releasing a reset before the module
	// accepts commands.
	ResetSettle time.Duration
	// MaxRetries is how many times a timed-out configuration query is
	// retried before moving on.
	MaxRetries int
	// PollInterval is the trigger sampling period.
	PollInterval time.Duration
	// DebounceDelay separates the two samples of a debounced edge.
	DebounceDelay time.Duration
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.ATTimeout == 0 {
		c.ATTimeout = time.Second
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = 500 * time.Millisecond
	}
	if c.ResetPulse == 0 {
		c.ResetPulse = 100 * time.Millisecond
	}
	if c.ResetSettle == 0 {
		c.ResetSettle = time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.PollInterval == 0 {
		c.PollInterval = 50 * time.Millisecond
	}
	if c.DebounceDelay == 0 {
		c.DebounceDelay = 50 * time.Millisecond
	}
}

// ConfigBuilder assembles a Config fluently. Build validates the result.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithBoard(board Board) *ConfigBuilder {
	b.config.Board = board
	return b
}

func (b *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	b.config.Logger = logger
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithSettleDelay(d time.Duration) *ConfigBuilder {
	b.config.SettleDelay = d
	return b
}

func (b *ConfigBuilder) WithResetPulse(d time.Duration) *ConfigBuilder {
	b.config.ResetPulse = d
	return b
}

func (b *ConfigBuilder) WithResetSettle(d time.Duration) *ConfigBuilder {
	b.config.ResetSettle = d
	return b
}

func (b *ConfigBuilder) WithMaxRetries(n int) *ConfigBuilder {
	b.config.MaxRetries = n
	return b
}

func (b *ConfigBuilder) WithPollInterval(d time.Duration) *ConfigBuilder {
	b.config.PollInterval = d
	return b
}

func (b *ConfigBuilder) WithDebounceDelay(d time.Duration) *ConfigBuilder {
	b.config.DebounceDelay = d
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	config := b.config
	config.setDefaults()
	return config, nil
}
