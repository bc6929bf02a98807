package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/ivx/internal/shared"
	"github.com/desertthunder/ivx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// UploadFile uploads one local video and optionally attaches it to a project.
func (r *Runner) UploadFile(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if err := requireArg(path, "path"); err != nil {
		return err
	}
	if _, err := r.requireAuth(editorRoute); err != nil {
		return err
	}

	result, err := r.gateway.UploadFile(ctx, path)
	if err != nil {
		return err
	}

	projectID := optionalInt(cmd, "project")
	if projectID != nil {
		if _, err := r.gateway.AddVideoToProject(ctx, *projectID, result.Filename); err != nil {
			return fmt.Errorf("uploaded %s but could not add it to project %d: %w", result.Filename, *projectID, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	r.writePlain("%s Uploaded %s (%d bytes)\n", okMark, result.Filename, result.FileSize)
	if projectID != nil {
		r.writePlain("Added to project %d\n", *projectID)
	}
	return nil
}

// UploadBulk uploads many files through the rate-limited worker pool.
func (r *Runner) UploadBulk(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.StringArgs("paths")
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one path", shared.ErrMissingArgument)
	}
	if _, err := r.requireAuth(editorRoute); err != nil {
		return err
	}

	opts := tasks.BulkUploadOpts{
		Workers:      r.config.Upload.Workers,
		RateLimit:    r.config.Upload.RateLimit,
		ProjectID:    optionalInt(cmd, "project"),
		ManifestPath: cmd.String("manifest"),
	}
	if cmd.IsSet("workers") {
		opts.Workers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	asJSON := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if !asJSON {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.BulkUpload(ctx, progress, paths, opts)
	close(progress)
	wg.Wait()

	if result != nil && asJSON {
		if jsonErr := r.writeJSON(result, true); jsonErr != nil {
			return jsonErr
		}
	}
	if err != nil {
		return err
	}
	if result.ManifestPath != "" && !asJSON {
		r.writePlain("Manifest written to %s\n", result.ManifestPath)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d uploads failed", shared.ErrAPIRequest, result.Failed, result.Total)
	}
	return nil
}
