package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ivx/internal/events"
	"github.com/desertthunder/ivx/internal/models"
	"github.com/desertthunder/ivx/internal/services"
	"github.com/desertthunder/ivx/internal/shared"
	"github.com/desertthunder/ivx/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	DefaultLoginError    = "login failed"
	DefaultRegisterError = "registration failed"
)

// Backend is the subset of the gateway the controller calls.
type Backend interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, username, email, password string) (*models.UserInfo, error)
	CurrentUser(ctx context.Context) (*models.UserInfo, error)
}

var (
	_ Backend          = (*services.Gateway)(nil)
	_ services.Session = (*Controller)(nil)
)

// Result is the outcome of [Controller.Login] and [Controller.Register].
type Result struct {
	Success bool
	Error   string // user-facing message, set when Success is false
	User    *models.UserInfo
}

// State is a point-in-time copy of the session.
type State struct {
	User          *models.UserInfo `json:"user"`
	Authenticated bool             `json:"authenticated"`
	Expiry        time.Time        `json:"expiry"` // zero when unknown
}

// Option configures a [Controller].
type Option func(*Controller)

// WithBus publishes [events.LoggedIn] and [events.LoggedOut] on b.
func WithBus(b *events.Bus) Option {
	return func(c *Controller) { c.bus = b }
}

// WithLogger sets the controller's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = shared.WithLogger(l, "component", "session") }
}

// WithClock overrides time.Now, for expiry computation in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns the current session.
type Controller struct {
	backend Backend
	store   storage.KeyValueStore
	bus     *events.Bus
	logger  *log.Logger
	now     func() time.Time

	mu            sync.RWMutex
	user          *models.UserInfo
	token         string
	expiry        time.Time
	authenticated bool
}

// New creates a [Controller] initialized from store.
func New(backend Backend, store storage.KeyValueStore, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		store:   store,
		logger:  shared.NewLogger(io.Discard),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.restore()
	return c
}

// restore loads the persisted session. A token alone is enough to start authenticated.
func (c *Controller) restore() {
	token, ok, err := storage.Lookup(c.store, storage.TokenKey)
	if err != nil {
		c.logger.Warn("failed to read persisted token", "error", err)
		return
	}
	if !ok || token == "" {
		return
	}

	c.token = token
	c.authenticated = true
	c.expiry = tokenExpiry(token)

	raw, ok, err := storage.Lookup(c.store, storage.UserInfoKey)
	if err != nil || !ok {
		return
	}

	var user models.UserInfo
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		c.logger.Warn("ignoring unreadable persisted user info", "error", err)
		return
	}
	c.user = &user
	c.logger.Debug("restored session", "username", user.Username, "expiry", c.expiry)
}

// tokenExpiry reads the "exp" claim without verifying the signature. The backend remains the authority.
func tokenExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// failureMessage prefers the backend's detail message over fallback.
func failureMessage(err error, fallback string) string {
	if detail := services.Detail(err); detail != "" {
		return detail
	}
	return fallback
}

// Login authenticates and persists the session. It never changes state on failure.
func (c *Controller) Login(ctx context.Context, username, password string) Result {
	resp, err := c.backend.Login(ctx, username, password)
	if err != nil {
		c.logger.Warn("login failed", "username", username, "error", err)
		return Result{Error: failureMessage(err, DefaultLoginError)}
	}
	if resp.AccessToken == "" {
		c.logger.Warn("login response carried no token", "username", username)
		return Result{Error: DefaultLoginError}
	}

	user := resp.User
	encoded, err := json.Marshal(user)
	if err != nil {
		return Result{Error: DefaultLoginError}
	}

	if err := c.persist(resp.AccessToken, string(encoded)); err != nil {
		c.logger.Error("failed to persist session", "error", err)
		return Result{Error: DefaultLoginError}
	}

	expiry := tokenExpiry(resp.AccessToken)
	if resp.ExpiresIn > 0 {
		expiry = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.user = &user
	c.expiry = expiry
	c.authenticated = true
	c.mu.Unlock()

	c.logger.Info("logged in", "username", user.Username)
	c.bus.Publish(events.Event{Kind: events.LoggedIn})

	u := user
	return Result{Success: true, User: &u}
}

// persist writes both keys. If the second write fails, the token key is put back to what it held before, so a
// failed re-login leaves the previous session persisted.
func (c *Controller) persist(token, userInfo string) error {
	prev, hadPrev, err := storage.Lookup(c.store, storage.TokenKey)
	if err != nil {
		return fmt.Errorf("failed to read previous token: %w", err)
	}

	if err := c.store.Set(storage.TokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := c.store.Set(storage.UserInfoKey, userInfo); err != nil {
		if restoreErr := c.restoreToken(prev, hadPrev); restoreErr != nil {
			c.logger.Error("failed to roll back partial session", "error", restoreErr)
		}
		return fmt.Errorf("failed to store user info: %w", err)
	}
	return nil
}

func (c *Controller) restoreToken(prev string, had bool) error {
	if had {
		return c.store.Set(storage.TokenKey, prev)
	}
	return c.store.Remove(storage.TokenKey)
}

func (c *Controller) Register(ctx context.Context, username, email, password string) Result {
	user, err := c.backend.Register(ctx, username, email, password)
	if err != nil {
		c.logger.Warn("registration failed", "username", username, "error", err)
		return Result{Error: failureMessage(err, DefaultRegisterError)}
	}

	c.logger.Info("registered", "username", user.Username)
	return Result{Success: true, User: user}
}

// Logout clears the session in memory and in the store. Calling it when already logged out is a no-op.
func (c *Controller) Logout() {
	c.mu.Lock()
	was := c.authenticated || c.token != ""
	c.clearLocked()
	c.mu.Unlock()

	if err := storage.ClearSession(c.store); err != nil {
		c.logger.Error("failed to clear persisted session", "error", err)
	}

	if was {
		c.logger.Info("logged out")
		c.bus.Publish(events.Event{Kind: events.LoggedOut})
	}
}

// Invalidate drops the in-memory session only. The gateway calls it after clearing the store on a 401.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	c.user = nil
	c.token = ""
	c.expiry = time.Time{}
	c.authenticated = false
}

// CheckAuth verifies the held token with the backend.
//
// Without a token it returns false and makes no request. A rejected token (or any request failure) logs
// the session out.
func (c *Controller) CheckAuth(ctx context.Context) bool {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		return false
	}

	user, err := c.backend.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("session check failed", "error", err)
		c.Logout()
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// logged out or replaced while the request was in flight
	if c.token != token {
		return c.authenticated
	}
	c.user = user
	c.authenticated = true
	return true
}

// Token implements [oauth2.TokenSource]. It returns [shared.ErrNotAuthenticated] when no token is held.
func (c *Controller) Token() (*oauth2.Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.authenticated || c.token == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: c.token, TokenType: "Bearer", Expiry: c.expiry}, nil
}

// Expiry returns when the held token expires, or the zero time when unknown.
//
// It is informational: an expired token stays authenticated until the backend rejects it.
// Expiry returns when the held token expires, or the zero time when unknown.
func (c *Controller) Expiry() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiry
}

// IsAuthenticated reports whether a session token is held.
func (c *Controller) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticated
}

// User returns a copy of the current user, or nil.
func (c *Controller) User() *models.UserInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := State{Authenticated: c.authenticated, Expiry: c.expiry}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	return s
}
