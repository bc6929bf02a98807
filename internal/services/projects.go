package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/ivx/internal/models"
)

// CreateProject creates a project owned by the current user. An empty description is sent as "".
func (g *Gateway) CreateProject(ctx context.Context, title, description string) (*models.CreateProjectResult, error) {
	q := url.Values{}
	q.Set("title", title)
	q.Set("description", description)

	var result models.CreateProjectResult
	if err := g.do(ctx, request{method: http.MethodPost, path: "/api/projects/create", query: q}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UserProjects lists the projects of userID.
func (g *Gateway) UserProjects(ctx context.Context, userID int) (*models.ProjectList, error) {
	var list models.ProjectList
	path := fmt.Sprintf("/api/users/%d/projects", userID)
	if err := g.do(ctx, request{method: http.MethodGet, path: path}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Project fetches one project with its video files.
func (g *Gateway) Project(ctx context.Context, projectID int) (*models.ProjectDetail, error) {
	var detail models.ProjectDetail
	path := fmt.Sprintf("/api/projects/%d", projectID)
	if err := g.do(ctx, request{method: http.MethodGet, path: path}, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// AddVideoToProject attaches an uploaded file to a project.
func (g *Gateway) AddVideoToProject(ctx context.Context, projectID int, filename string) (*models.AddVideoResult, error) {
	q := url.Values{}
	q.Set("filename", filename)

	var result models.AddVideoResult
	path := fmt.Sprintf("/api/projects/%d/add-video", projectID)
	if err := g.do(ctx, request{method: http.MethodPost, path: path, query: q}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProjectVideos lists the videos attached to a project.
func (g *Gateway) ProjectVideos(ctx context.Context, projectID int) (*models.VideoList, error) {
	var list models.VideoList
	path := fmt.Sprintf("/api/projects/%d/videos", projectID)
	if err := g.do(ctx, request{method: http.MethodGet, path: path}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}
