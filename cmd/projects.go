package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ivx/internal/formatter"
	"github.com/desertthunder/ivx/internal/models"
	"github.com/urfave/cli/v3"
)

func editorPath(id int) string {
	return fmt.Sprintf("/editor/%d", id)
}

// ProjectsCreate creates a project owned by the current user.
func (r *Runner) ProjectsCreate(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if err := requireArg(title, "title"); err != nil {
		return err
	}
	if _, err := r.requireAuth("/projects"); err != nil {
		return err
	}

	result, err := r.gateway.CreateProject(ctx, title, cmd.String("description"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.writePlain("%s Created project %q (id %d)\n", okMark, result.Title, result.ProjectID)
}

// ProjectsList lists the current user's projects.
func (r *Runner) ProjectsList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireAuth("/projects"); err != nil {
		return err
	}
	userID, username, err := r.currentUser()
	if err != nil {
		return err
	}

	list, err := r.gateway.UserProjects(ctx, userID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	r.writePlainHeader(fmt.Sprintf("Projects for %s (%d)", username, list.TotalProjects))
	if len(list.Projects) == 0 {
		return r.writePlain("No projects yet. Create one with 'ivx projects create <title>'.\n")
	}
	for _, p := range list.Projects {
		r.writePlain("%4d  %s", p.ID, p.Title)
		if p.Description != "" {
			r.writePlain("  %s", dimStyle.Render(p.Description))
		}
		r.writePlain("\n")
	}
	return nil
}

// ProjectsShow prints one project with its videos.
func (r *Runner) ProjectsShow(ctx context.Context, cmd *cli.Command) error {
	project, err := r.loadProject(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(project, true)
	}

	text, err := formatter.ExportToText(project)
	if err != nil {
		return err
	}
	return r.writePlain("%s", text)
}

// ProjectsAddVideo attaches an uploaded file to a project.
func (r *Runner) ProjectsAddVideo(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	filename := cmd.StringArg("filename")
	if err := requireArg(filename, "filename"); err != nil {
		return err
	}
	if _, err := r.requireAuth(editorPath(id)); err != nil {
		return err
	}

	result, err := r.gateway.AddVideoToProject(ctx, id, filename)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.writePlain("%s Added %s to project %d\n", okMark, result.VideoFile.Filename, result.ProjectID)
}

// ProjectsVideos lists the videos attached to a project.
func (r *Runner) ProjectsVideos(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if _, err := r.requireAuth(editorPath(id)); err != nil {
		return err
	}

	list, err := r.gateway.ProjectVideos(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	r.writePlainHeader(fmt.Sprintf("Project %d: %d videos", list.ProjectID, list.TotalVideos))
	for _, v := range list.Videos {
		r.writePlain("%-32s %8s %10s\n", v.Filename, formatter.FormatDuration(v.Duration), formatter.FormatSize(v.FileSize))
	}
	return nil
}

// ProjectsExport writes a project to disk in the requested format.
func (r *Runner) ProjectsExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	project, err := r.loadProject(ctx, cmd)
	if err != nil {
		return err
	}

	files, err := formatter.WriteProjectExport(project, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("project exported", "project", project.ProjectID, "format", format, "files", len(files))
	for _, f := range files {
		r.writePlain("%s Wrote %s\n", okMark, f)
	}
	return nil
}

func (r *Runner) loadProject(ctx context.Context, cmd *cli.Command) (*models.ProjectDetail, error) {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return nil, err
	}
	if _, err := r.requireAuth(editorPath(id)); err != nil {
		return nil, err
	}
	return r.gateway.Project(ctx, id)
}
