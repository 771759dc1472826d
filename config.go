package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"i4.energy/across/btprog/hc05"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the module's serial port (e.g. "/dev/serial0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate of the module's command mode (e.g. 38400)
	BaudRate int `yaml:"baud_rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// RunOnStart runs one configuration cycle at startup, so the module is
	// in a known state before the first trigger press
	RunOnStart bool `yaml:"run_on_start"`
	// Pins names the GPIO lines wired to the module and the switches
	Pins PinsConfig `yaml:"pins"`
	// Timing collects the delays and bounds of the configuration sequence
	Timing TimingConfig `yaml:"timing"`
}

// PinsConfig names the host GPIO lines, using periph pin names or aliases.
type PinsConfig struct {
	CommandMode string `yaml:"command_mode"`
	ModuleReset string `yaml:"module_reset"`
	BusyLED     string `yaml:"busy_led"`
	SavingLED   string `yaml:"saving_led"`
	ModeSelect  string `yaml:"mode_select"`
	Trigger     string `yaml:"trigger"`
	TargetLink  string `yaml:"target_link"`
	LocalLink   string `yaml:"local_link"`
	TargetReset string `yaml:"target_reset"`
}

func (p PinsConfig) pinMap() hc05.PinMap {
	return hc05.PinMap{
		CommandMode: p.CommandMode,
		ModuleReset: p.ModuleReset,
		BusyLED:     p.BusyLED,
		SavingLED:   p.SavingLED,
		ModeSelect:  p.ModeSelect,
		Trigger:     p.Trigger,
		TargetLink:  p.TargetLink,
		LocalLink:   p.LocalLink,
		TargetReset: p.TargetReset,
	}
}

// TimingConfig carries the sequence timings in milliseconds.
type TimingConfig struct {
	ATTimeoutMS     int `yaml:"at_timeout_ms"`
	SettleDelayMS   int `yaml:"settle_delay_ms"`
	ResetPulseMS    int `yaml:"reset_pulse_ms"`
	ResetSettleMS   int `yaml:"reset_settle_ms"`
	PollIntervalMS  int `yaml:"poll_interval_ms"`
	DebounceDelayMS int `yaml:"debounce_delay_ms"`
	MaxRetries      int `yaml:"max_retries"`
}

func (t TimingConfig) ATTimeout() time.Duration {
	return time.Duration(t.ATTimeoutMS) * time.Millisecond
}

func (t TimingConfig) SettleDelay() time.Duration {
	return time.Duration(t.SettleDelayMS) * time.Millisecond
}

func (t TimingConfig) ResetPulse() time.Duration {
	return time.Duration(t.ResetPulseMS) * time.Millisecond
}

func (t TimingConfig) ResetSettle() time.Duration {
	return time.Duration(t.ResetSettleMS) * time.Millisecond
}

func (t TimingConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalMS) * time.Millisecond
}

func (t TimingConfig) DebounceDelay() time.Duration {
	return time.Duration(t.DebounceDelayMS) * time.Millisecond
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/serial0"
		c.BaudRate = hc05.DefaultBaudRate
		c.LogLevel = "info"
		c.RunOnStart = true
		c.Pins = PinsConfig{
			CommandMode: "GPIO17",
			ModuleReset: "GPIO27",
			BusyLED:     "GPIO22",
			SavingLED:   "GPIO23",
			ModeSelect:  "GPIO24",
			Trigger:     "GPIO25",
			TargetLink:  "GPIO5",
			LocalLink:   "GPIO6",
			TargetReset: "GPIO13",
		}
		c.Timing = TimingConfig{
			ATTimeoutMS:     1000,
			SettleDelayMS:   500,
			ResetPulseMS:    100,
			ResetSettleMS:   1000,
			PollIntervalMS:  50,
			DebounceDelayMS: 50,
			MaxRetries:      2,
		}
		return nil
	}
}

// WithFile loads configuration from a YAML file
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if run := os.Getenv("RUN_ON_START"); run != "" {
			if b, err := strconv.ParseBool(run); err == nil {
				c.RunOnStart = b
			}
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "run-on-start":
				if b, err := strconv.ParseBool(f.Value.String()); err == nil {
					c.RunOnStart = b
				}
			}

		})
		return nil
	}

}
