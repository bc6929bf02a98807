package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ivx/internal/shared"
	"github.com/desertthunder/ivx/internal/storage"
	"github.com/urfave/cli/v3"
)

// Setup writes a config file from the embedded template and initializes the session database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file exists, leaving it in place", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("%s Created %s\n", okMark, configPath)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	if config.Session.Driver == shared.SessionDriverMemory {
		return r.writePlain("Session driver is %q; nothing to initialize\n", shared.SessionDriverMemory)
	}

	path := shared.ExpandHome(config.Session.Path)
	r.logger.Info("initializing session database", "path", path)

	store, err := storage.OpenSQLiteStore(path)
	if err != nil {
		return err
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("failed to close session database: %w", err)
	}

	return r.writePlain("%s Session database ready at %s\n", okMark, path)
}
