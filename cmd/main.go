package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ivx/internal/shared"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if p := os.Getenv("IVX_CONFIG"); p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("failed to load %s: %v", configPath, err)
		}
		config = loaded
	}
	shared.SetLogLevel(logger, config.LogLevel())

	store, closeStore, err := openStore(config)
	if err != nil {
		logger.Fatalf("failed to open session store: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Store:      store,
		Logger:     logger,
	})
	stop := runner.watch(ctx)

	err = runner.app().Run(ctx, os.Args)

	stop()
	cancel()
	if cerr := closeStore(); cerr != nil {
		logger.Error("failed to close session store", "error", cerr)
	}

	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Fatal("not logged in", "hint", "run 'ivx auth login'", "error", err)
		}
		logger.Fatalf("application error: %v", err)
	}
}
