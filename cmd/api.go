package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/ivx/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request through the gateway, so the session's bearer token is attached.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	return r.rawRequest(ctx, cmd, http.MethodGet, nil)
}

// APIPost makes a direct POST request with a JSON body.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	return r.rawRequest(ctx, cmd, http.MethodPost, []byte(data))
}

func (r *Runner) rawRequest(ctx context.Context, cmd *cli.Command, method string, body []byte) error {
	path := cmd.StringArg("path")
	if err := requireArg(path, "path"); err != nil {
		return err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	r.logger.Info("raw request", "method", method, "path", path)

	resp, err := r.gateway.Raw(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("compact"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
