package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ivx/internal/events"
	"github.com/desertthunder/ivx/internal/router"
	"github.com/desertthunder/ivx/internal/services"
	"github.com/desertthunder/ivx/internal/session"
	"github.com/desertthunder/ivx/internal/shared"
	"github.com/desertthunder/ivx/internal/storage"
	"github.com/desertthunder/ivx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// client is the wired session stack: one gateway, one controller bound to it, one router over the controller.
type client struct {
	bus     *events.Bus
	gateway *services.Gateway
	session *session.Controller
	router  *router.Router
	engine  *tasks.Engine
}

func newClient(config *shared.Config, store storage.KeyValueStore, transport http.RoundTripper, logger *log.Logger) *client {
	bus := events.NewBus(logger)
	gw := services.NewGateway(services.GatewayOpts{
		BaseURL:   config.Server.BaseURL,
		Timeout:   config.Timeout(),
		Transport: transport,
		Store:     store,
		Bus:       bus,
		Logger:    logger,
		LoginPath: router.LoginPath,
	})
	ctrl := session.New(gw, store, session.WithBus(bus), session.WithLogger(logger))
	gw.Bind(ctrl)

	return &client{
		bus:     bus,
		gateway: gw,
		session: ctrl,
		router:  router.New(ctrl, router.WithLogger(logger)),
		engine:  tasks.NewEngine(gw, logger),
	}
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	*client

	config     *shared.Config
	configPath string
	store      storage.KeyValueStore
	transport  http.RoundTripper
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      storage.KeyValueStore // Persisted session (default: in-memory)
	Transport  http.RoundTripper     // Base HTTP transport (default: [http.DefaultTransport])
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}

	return &Runner{
		client:     newClient(opts.Config, opts.Store, opts.Transport, opts.Logger),
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		transport:  opts.Transport,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// openStore opens the session store selected by config.
func openStore(config *shared.Config) (storage.KeyValueStore, func() error, error) {
	switch config.Session.Driver {
	case shared.SessionDriverMemory:
		return storage.NewMemoryStore(), func() error { return nil }, nil
	case "", shared.SessionDriverSQLite:
		store, err := storage.OpenSQLiteStore(shared.ExpandHome(config.Session.Path))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown session driver %q", shared.ErrInvalidConfig, config.Session.Driver)
	}
}

// watch logs session events and keeps the router in step with forced logouts until ctx is done. The
// returned stop func unsubscribes, then waits for both listeners to drain events already published.
func (r *Runner) watch(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	routed, stopRouted := r.bus.Subscribe()
	logged, stopLogged := r.bus.Subscribe()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := r.router.Listen(ctx, routed); err != nil && ctx.Err() == nil {
			r.logger.Error("router listener stopped", "error", err)
		}
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-logged:
				if !ok {
					return
				}
				switch e.Kind {
				case events.ForceLogout:
					r.logger.Warn("backend rejected the stored session; signed out", "cause", e.Cause)
				default:
					r.logger.Debug("session event", "kind", e.Kind)
				}
			}
		}
	}()

	return func() {
		stopRouted()
		stopLogged()
		wg.Wait()
		cancel()
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "ivx",
		Usage:    "Terminal client for the iVideo editing backend",
		Version:  "0.1.0",
		Writer:   r.output,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, projectsCommand, videoCommand, uploadCommand, systemCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireAuth navigates to path and fails when the guard sends the user to the login route instead.
func (r *Runner) requireAuth(path string) (router.Match, error) {
	m, err := r.router.Navigate(path)
	if err != nil {
		return router.Match{}, err
	}
	if m.Path == router.LoginPath {
		return m, fmt.Errorf("%w: run 'ivx auth login' first", shared.ErrNotAuthenticated)
	}
	return m, nil
}

// currentUser returns the signed-in user; callers run after [Runner.requireAuth].
func (r *Runner) currentUser() (int, string, error) {
	u := r.session.User()
	if u == nil {
		return 0, "", fmt.Errorf("%w: no user info stored, run 'ivx auth login' again", shared.ErrNotAuthenticated)
	}
	return u.ID, u.Username, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n", rule)
	r.writePlain("%s\n", headerStyle.Render(title))
	r.writePlain("%s\n", rule)
}
