package tasks

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ivx/internal/models"
	"github.com/desertthunder/ivx/internal/services"
	"github.com/desertthunder/ivx/internal/shared"
)

// Uploader is the part of the gateway batch operations use.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (*models.UploadResult, error)
	AddVideoToProject(ctx context.Context, projectID int, filename string) (*models.AddVideoResult, error)
}

var _ Uploader = (*services.Gateway)(nil)

// Engine runs batch operations.
type Engine struct {
	api    Uploader
	logger *log.Logger
}

// NewEngine creates an [Engine]; a nil logger discards output.
func NewEngine(api Uploader, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Engine{api: api, logger: shared.WithLogger(logger, "component", "tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
