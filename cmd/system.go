package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/common/expfmt"
	"github.com/urfave/cli/v3"
)

// SystemStatus prints backend usage counters. It needs no session.
func (r *Runner) SystemStatus(ctx context.Context, cmd *cli.Command) error {
	status, err := r.gateway.SystemStatus(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s: %s", status.System, status.Status))
	r.writePlain("Users:    %d\n", status.UsersCount)
	r.writePlain("Projects: %d\n", status.ProjectsCount)
	r.writePlain("Videos:   %d\n", status.VideosCount)
	r.writePlain("Storage:  %d files, %.1f MB\n", status.Storage.TotalFiles, status.Storage.TotalSizeMB)
	if len(status.FeaturesAvailable) > 0 {
		r.writePlain("Features: %s\n", strings.Join(status.FeaturesAvailable, ", "))
	}
	return nil
}

// SystemHealth checks that the backend answers.
func (r *Runner) SystemHealth(ctx context.Context, cmd *cli.Command) error {
	health, err := r.gateway.Health(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(health, true)
	}
	return r.writePlain("%s %s is %s\n", okMark, health.Service, health.Status)
}

// SystemMetrics dumps the gateway's counters for this process in the Prometheus text format.
//
// Use with --ping to issue a health request first so the counters are not empty.
func (r *Runner) SystemMetrics(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("ping") {
		if _, err := r.gateway.Health(ctx); err != nil {
			r.logger.Warn("health request failed", "error", err)
		}
	}

	families, err := r.gateway.Registry().Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(r.output, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
