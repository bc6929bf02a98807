package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/ivx/internal/models"
)

// Login exchanges credentials for a bearer token.
//
// The backend rejects bad credentials with 401, so a failed login also runs the unauthorized interceptor.
func (g *Gateway) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("password", password)

	var resp models.LoginResponse
	if err := g.do(ctx, request{method: http.MethodPost, path: "/api/auth/login", query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account. It does not log the user in.
func (g *Gateway) Register(ctx context.Context, username, email, password string) (*models.UserInfo, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("email", email)
	q.Set("password", password)

	var user models.UserInfo
	if err := g.do(ctx, request{method: http.MethodPost, path: "/api/auth/register", query: q}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the identity behind the bearer token.
func (g *Gateway) CurrentUser(ctx context.Context) (*models.UserInfo, error) {
	var user models.UserInfo
	if err := g.do(ctx, request{method: http.MethodGet, path: "/api/auth/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
