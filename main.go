package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"periph.io/x/host/v3"

	"i4.energy/across/btprog/hc05"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	flag.String("serial-port", "/dev/serial0", "Serial port wired to the Bluetooth module")
	flag.Int("baud-rate", hc05.DefaultBaudRate, "Baud rate of the module's command mode")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Bool("run-on-start", true, "Run one configuration cycle at startup")
	flag.Parse()

	opts := []ConfigOption{WithDefaults()}
	if path := resolveConfigPath(*configPath); path != "" {
		opts = append(opts, WithFile(path))
	}
	opts = append(opts, WithEnv(), WithFlags(flag.CommandLine))

	config, err := LoadConfig(opts...)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if _, err := host.Init(); err != nil {
		logger.Error("Failed to initialize GPIO host", "error", err)
		os.Exit(1)
	}

	board, err := hc05.NewGPIOBoard(config.Pins.pinMap())
	if err != nil {
		logger.Error("Failed to map GPIO pins", "error", err)
		os.Exit(1)
	}

	moduleConfig, err := hc05.NewConfigBuilder().
		WithDialer(hc05.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		WithBoard(board).
		WithLogger(logger.With("component", "module")).
		WithATTimeout(config.Timing.ATTimeout()).
		WithSettleDelay(config.Timing.SettleDelay()).
		WithResetPulse(config.Timing.ResetPulse()).
		WithResetSettle(config.Timing.ResetSettle()).
		WithMaxRetries(config.Timing.MaxRetries).
		WithPollInterval(config.Timing.PollInterval()).
		WithDebounceDelay(config.Timing.DebounceDelay()).
		Build()
	if err != nil {
		logger.Error("Failed to create module config", "error", err)
		os.Exit(1)
	}

	m, err := hc05.New(context.Background(), moduleConfig)
	if err != nil {
		logger.Error("Failed to open module", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting BT programmer", "serial_port", config.SerialPort, "baud_rate", config.BaudRate)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start the module event loop in a goroutine
	go func() {
		if err := m.Loop(runCtx); err != nil && err != context.Canceled && err != io.EOF {
			logger.Error("Module event loop failed", "error", err)
			os.Exit(1)
		}
	}()

	controllerConfig := moduleConfig
	controllerConfig.Logger = logger.With("component", "controller")
	controller, err := hc05.NewController(m, controllerConfig)
	if err != nil {
		logger.Error("Failed to create controller", "error", err)
		os.Exit(1)
	}

	if config.RunOnStart {
		logger.Info("Running startup configuration cycle")
		if err := controller.Run(runCtx); err != nil {
			logger.Error("Startup configuration cycle failed", "error", err)
		}
	}

	watcherConfig := moduleConfig
	watcherConfig.Logger = logger.With("component", "watcher")
	watcher, err := hc05.NewWatcher(controller, watcherConfig)
	if err != nil {
		logger.Error("Failed to create trigger watcher", "error", err)
		os.Exit(1)
	}

	watchDone := make(chan error, 1)
	go func() {
		logger.Info("Watching trigger", "pin", config.Pins.Trigger)
		watchDone <- watcher.Watch(runCtx)
	}()

	// Wait for interrupt signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", "signal", sig)

	cancel()
	if err := <-watchDone; err != nil && err != context.Canceled {
		logger.Error("Trigger watch failed", "error", err)
	}

	logger.Info("Closing module connection")
	if err := m.Close(); err != nil {
		logger.Error("Failed to close module", "error", err)
	}
}

func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("CONFIG_FILE")
}
