package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ivx/internal/shared"
	"github.com/urfave/cli/v3"
)

var (
	okMark      = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render("✓")
	failMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Render("✗")
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	rule        = strings.Repeat("═", 39)
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func projectFlag() cli.Flag {
	return &cli.IntFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project ID to associate with the result"}
}

// optionalInt returns the flag value when it was given on the command line.
func optionalInt(cmd *cli.Command, name string) *int {
	if !cmd.IsSet(name) {
		return nil
	}
	v := cmd.Int(name)
	return &v
}

func optionalFloat(cmd *cli.Command, name string) *float64 {
	if !cmd.IsSet(name) {
		return nil
	}
	v := cmd.Float(name)
	return &v
}

// parseID parses a positional project ID.
func parseID(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: project id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: project id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func requireArg(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return nil
}
