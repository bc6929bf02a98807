package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ivx/internal/shared"
	"github.com/desertthunder/ivx/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultTUILog = "./tmp/ivx-tui.log"

// TUI launches the interactive terminal UI.
//
// The TUI gets its own client over the same store, logging to a file so log lines do not tear the
// rendered screen.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = defaultTUILog
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.LogLevel())

	c := newClient(r.config, r.store, r.transport, fileLogger)

	model := ui.NewModel(ctx, ui.Deps{
		Auth:     c.session,
		Projects: c.gateway,
		Router:   c.router,
		Bus:      c.bus,
	}, cmd.StringArg("path"))
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
