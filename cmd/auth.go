package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ivx/internal/router"
	"github.com/desertthunder/ivx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin authenticates against the backend and persists the session.
//
// The login route is guest-only, so an existing session short-circuits the request.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username, password := cmd.String("username"), cmd.String("password")
	if err := requireArg(username, "--username"); err != nil {
		return err
	}
	if err := requireArg(password, "--password"); err != nil {
		return err
	}

	m, err := r.router.Navigate(router.LoginPath)
	if err != nil {
		return err
	}
	if m.Path != router.LoginPath {
		_, name, _ := r.currentUser()
		return r.writePlain("Already logged in as %s. Run 'ivx auth logout' to switch accounts.\n", name)
	}

	r.logger.Info("logging in", "username", username)

	result := r.session.Login(ctx, username, password)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, result.Error)
	}

	if _, err := r.router.Navigate(router.HomePath); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.User, true)
	}
	return r.writePlain("%s Logged in as %s\n", okMark, result.User.Username)
}

// AuthRegister creates an account. It does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	username, email, password := cmd.String("username"), cmd.String("email"), cmd.String("password")
	for _, arg := range []struct{ value, name string }{
		{username, "--username"}, {email, "--email"}, {password, "--password"},
	} {
		if err := requireArg(arg.value, arg.name); err != nil {
			return err
		}
	}

	m, err := r.router.Navigate("/register")
	if err != nil {
		return err
	}
	if m.Route.Name != "register" {
		_, name, _ := r.currentUser()
		return fmt.Errorf("%w: already logged in as %s; log out before registering", shared.ErrInvalidArgument, name)
	}

	result := r.session.Register(ctx, username, email, password)
	if !result.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Error)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result.User, true)
	}
	r.writePlain("%s Registered %s\n", okMark, result.User.Username)
	return r.writePlain("Run 'ivx auth login -u %s' to sign in.\n", result.User.Username)
}

// AuthLogout clears the persisted session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	wasLoggedIn := r.session.IsAuthenticated()
	r.session.Logout()

	if !wasLoggedIn {
		return r.writePlain("Not logged in\n")
	}
	return r.writePlain("%s Logged out\n", okMark)
}

// AuthStatus reports the stored session without contacting the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	state := r.session.Snapshot()

	if cmd.Bool("json") {
		return r.writeJSON(state, true)
	}

	if !state.Authenticated {
		return r.writePlain("%s Not logged in\n", failMark)
	}

	name := "unknown user"
	if state.User != nil {
		name = fmt.Sprintf("%s <%s>", state.User.Username, state.User.Email)
	}
	r.writePlain("%s Logged in as %s\n", okMark, name)
	r.writePlain("Backend: %s\n", r.gateway.BaseURL())
	if !state.Expiry.IsZero() {
		r.writePlain("Expires: %s %s\n", state.Expiry.Local().Format(time.RFC1123), dimStyle.Render(expiresIn(state.Expiry)))
	}
	return nil
}

// AuthCheck verifies the stored token against the backend.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	if !r.session.CheckAuth(ctx) {
		return fmt.Errorf("%w: stored session is missing or was rejected", shared.ErrNotAuthenticated)
	}

	_, name, _ := r.currentUser()
	return r.writePlain("%s Session valid for %s\n", okMark, name)
}

func expiresIn(t time.Time) string {
	d := time.Until(t).Round(time.Minute)
	if d <= 0 {
		return "(expired)"
	}
	return fmt.Sprintf("(in %s)", d)
}
