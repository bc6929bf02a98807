package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/ivx/internal/models"
)

// SystemStatus reports backend counters and storage usage.
func (g *Gateway) SystemStatus(ctx context.Context) (*models.SystemStatus, error) {
	var status models.SystemStatus
	if err := g.do(ctx, request{method: http.MethodGet, path: "/api/system/status"}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Health pings the backend liveness endpoint.
func (g *Gateway) Health(ctx context.Context) (*models.Health, error) {
	var health models.Health
	if err := g.do(ctx, request{method: http.MethodGet, path: "/api/health"}, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
