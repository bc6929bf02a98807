package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/desertthunder/ivx/internal/events"
	"github.com/desertthunder/ivx/internal/shared"
)

const (
	LoginPath = "/login"
	HomePath  = "/"

	maxRedirects = 8
)

var (
	ErrNoRoute      = errors.New("no route matches path")
	ErrRedirectLoop = errors.New("too many redirects")
)

// Access classifies who may enter a route.
type Access int

const (
	Public Access = iota
	RequiresAuth
	RequiresGuest
)

func (a Access) String() string {
	switch a {
	case RequiresAuth:
		return "auth"
	case RequiresGuest:
		return "guest"
	default:
		return "public"
	}
}

// Route is one entry of the route table.
type Route struct {
	Name     string
	Path     string // pattern
	Access   Access
	Redirect string // when set, entering the route navigates here instead
}

// DefaultRoutes returns the application's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "login", Path: "/login", Access: RequiresGuest},
		{Name: "register", Path: "/register", Access: RequiresGuest},
		{Name: "dashboard", Path: "/", Access: RequiresAuth},
		{Name: "projects", Path: "/projects", Access: RequiresAuth},
		{Name: "editor", Path: "/editor/:projectId?", Access: RequiresAuth},
		{Name: "not-found", Path: "*", Redirect: HomePath},
	}
}

// Match is a route resolved against a concrete path.
type Match struct {
	Route  Route
	Path   string
	Params map[string]string
}

// Param returns the named path parameter, or "".
func (m Match) Param(name string) string {
	return m.Params[name]
}

// Decision is a guard's verdict.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision { return Decision{Allow: true} }
func redirectTo(path string) Decision { return Decision{Redirect: path} }

// GuardFunc decides whether the route in to may be entered.
type GuardFunc func(to Match, authenticated bool) Decision

// Guard is the authentication guard.
func Guard(to Match, authenticated bool) Decision {
	switch {
	case to.Route.Access == RequiresAuth && !authenticated:
		return redirectTo(LoginPath)
	case to.Route.Access == RequiresGuest && authenticated:
		return redirectTo(HomePath)
	default:
		return allow()
	}
}

// AuthState reports whether a session is active.
type AuthState interface {
	IsAuthenticated() bool
}

// Router resolves paths against a route table and tracks the current location.
type Router struct {
	routes []Route
	tree   *table
	guards []GuardFunc
	auth   AuthState
	logger *log.Logger

	mu       sync.RWMutex
	current  Match
	history  []string
	onChange []func(Match)
}

// Option configures a [Router].
type Option func(*Router)

// WithRoutes replaces the default route table.
func WithRoutes(routes []Route) Option {
	return func(r *Router) { r.routes = routes }
}

// WithLogger sets the router's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Router) { r.logger = shared.WithLogger(l, "component", "router") }
}

// New creates a [Router] over auth with [Guard] installed.
func New(auth AuthState, opts ...Option) *Router {
	r := &Router{
		routes: DefaultRoutes(),
		guards: []GuardFunc{Guard},
		auth:   auth,
		logger: shared.NewLogger(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.tree = newTable(r.routes)
	return r
}

// Use appends guards, evaluated after those already installed.
func (r *Router) Use(guards ...GuardFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards = append(r.guards, guards...)
}

// OnChange registers fn to run after every committed navigation.
func (r *Router) OnChange(fn func(Match)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

// Resolve returns the route matching path. Literal segments win over parameters, and parameters win over
// the catch-all.
func (r *Router) Resolve(path string) (Match, bool) {
	path = normalize(path)
	route, params, ok := r.tree.find(path)
	if !ok {
		return Match{}, false
	}
	return Match{Route: route, Path: path, Params: params}, true
}

// Evaluate runs the guards against to and returns the first redirect, or allow.
func (r *Router) Evaluate(to Match) Decision {
	r.mu.RLock()
	guards := append([]GuardFunc(nil), r.guards...)
	r.mu.RUnlock()

	authenticated := r.auth != nil && r.auth.IsAuthenticated()
	for _, g := range guards {
		if d := g(to, authenticated); !d.Allow {
			return d
		}
	}
	return allow()
}

// Navigate moves to path, following route redirects and guard redirects.
func (r *Router) Navigate(path string) (Match, error) {
	start := path
	for hops := 0; hops <= maxRedirects; hops++ {
		m, ok := r.Resolve(path)
		if !ok {
			return Match{}, fmt.Errorf("%w: %s", ErrNoRoute, path)
		}

		if m.Route.Redirect != "" {
			path = m.Route.Redirect
			continue
		}

		if d := r.Evaluate(m); !d.Allow {
			r.logger.Debug("guard redirect", "from", m.Path, "to", d.Redirect)
			path = d.Redirect
			continue
		}

		r.commit(m)
		return m, nil
	}

	return Match{}, fmt.Errorf("%w: %s", ErrRedirectLoop, start)
}

// ForceRedirect moves to path without consulting the guards. Route redirects still apply.
func (r *Router) ForceRedirect(path string) (Match, error) {
	for hops := 0; hops <= maxRedirects; hops++ {
		m, ok := r.Resolve(path)
		if !ok {
			return Match{}, fmt.Errorf("%w: %s", ErrNoRoute, path)
		}
		if m.Route.Redirect != "" {
			path = m.Route.Redirect
			continue
		}

		r.logger.Debug("forced redirect", "to", m.Path)
		r.commit(m)
		return m, nil
	}
	return Match{}, fmt.Errorf("%w: %s", ErrRedirectLoop, path)
}

func (r *Router) commit(m Match) {
	r.mu.Lock()
	r.current = m
	r.history = append(r.history, m.Path)
	callbacks := append(([]func(Match))(nil), r.onChange...)
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(m)
	}
}

// Current returns the last committed location.
func (r *Router) Current() Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// History returns every committed path, oldest first.
func (r *Router) History() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.history...)
}

// Listen applies [events.ForceLogout] events from ch until ctx is done or ch is closed.
func (r *Router) Listen(ctx context.Context, ch <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if e.Kind != events.ForceLogout {
				continue
			}
			target := e.Path
			if target == "" {
				target = LoginPath
			}
			if _, err := r.ForceRedirect(target); err != nil {
				r.logger.Error("failed to apply forced logout", "error", err)
			}
		}
	}
}

func normalize(path string) string {
	path, _, _ = strings.Cut(path, "?")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

var discard http.HandlerFunc = func(http.ResponseWriter, *http.Request) {}

// table is the route table compiled into a chi routing tree. Only the tree's lookup is used.
type table struct {
	mux    *chi.Mux
	routes map[string]Route // keyed by chi pattern
}

func newTable(routes []Route) *table {
	t := &table{mux: chi.NewRouter(), routes: make(map[string]Route)}
	for _, route := range routes {
		for _, pattern := range chiPatterns(route.Path) {
			if _, taken := t.routes[pattern]; taken {
				continue
			}
			t.routes[pattern] = route
			t.mux.Get(pattern, discard)
		}
	}
	return t
}

func (t *table) find(path string) (Route, map[string]string, bool) {
	rctx := chi.NewRouteContext()
	pattern := t.mux.Find(rctx, http.MethodGet, path)
	route, ok := t.routes[pattern]
	if pattern == "" || !ok {
		return Route{}, nil, false
	}

	var params map[string]string
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return route, params, true
}

// chiPatterns rewrites a table pattern in chi syntax. A trailing ":name?" yields the pattern with and
// without its last segment.
func chiPatterns(pattern string) []string {
	if pattern == "*" || pattern == "/*" {
		return []string{"/*"}
	}

	segs := strings.Split(strings.Trim(pattern, "/"), "/")
	out := make([]string, 0, len(segs))
	optional := false
	for i, seg := range segs {
		name, isParam := strings.CutPrefix(seg, ":")
		if !isParam {
			out = append(out, seg)
			continue
		}
		name, opt := strings.CutSuffix(name, "?")
		optional = opt && i == len(segs)-1
		out = append(out, "{"+name+"}")
	}

	full := "/" + strings.Join(out, "/")
	if !optional {
		return []string{full}
	}
	return []string{"/" + strings.Join(out[:len(out)-1], "/"), full}
}
