package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/desertthunder/ivx/internal/formatter"
	"github.com/desertthunder/ivx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers   = 3
	MaxWorkers       = 8
	DefaultRateLimit = 2.0
)

// BulkUploadOpts contains configuration for bulk uploads.
type BulkUploadOpts struct {
	Workers      int     // Concurrent uploads (default: 3, max: 8)
	RateLimit    float64 // Uploads started per second (default: 2)
	ProjectID    *int    // Attach each uploaded file to this project when set
	ManifestPath string  // Write a JSON manifest of the run here when set
}

func (o *BulkUploadOpts) applyDefaults() {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers > MaxWorkers {
		o.Workers = MaxWorkers
	}
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultRateLimit
	}
}

// FileUploadResult is the outcome for one file.
type FileUploadResult struct {
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	ProjectID int    `json:"project_id,omitempty"`
	Uploaded  bool   `json:"uploaded"`
	Attached  bool   `json:"attached"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Err       error  `json:"-"`

	index int
}

// BulkUploadResult summarizes a bulk upload, with per-file results in input order.
type BulkUploadResult struct {
	Total        int                `json:"total"`
	Succeeded    int                `json:"succeeded"`
	Failed       int                `json:"failed"`
	Results      []FileUploadResult `json:"results"`
	ManifestPath string             `json:"-"`
}

type uploadJob struct {
	index int
	path  string
}

// BulkUpload uploads paths concurrently with rate limiting and progress tracking.
//
// Each file is attempted exactly once. Files not yet started when ctx is cancelled are left out of the
// result, and the context error is returned with the partial result.
func (e *Engine) BulkUpload(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	paths []string,
	opts BulkUploadOpts,
) (*BulkUploadResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: gateway not initialized", shared.ErrServiceUnavailable)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", shared.ErrMissingArgument)
	}
	opts.applyDefaults()

	total := len(paths)
	result := &BulkUploadResult{
		Total:   total,
		Results: make([]FileUploadResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan uploadJob, total)
	results := make(chan FileUploadResult, total)

	e.sendProgress(prog, queuedUpdate(total, opts.Workers))
	e.logger.Info("bulk upload started", "files", total, "workers", opts.Workers, "rate", opts.RateLimit)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go e.uploadWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, path := range paths {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(prog, uploadingUpdate(i+1, total, filepath.Base(path)))
			jobs <- uploadJob{index: i, path: path}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		switch {
		case res.Success:
			result.Succeeded++
			e.sendProgress(prog, uploadedUpdate(completed, total, res))
		case res.Uploaded:
			result.Failed++
			e.sendProgress(prog, attachFailedUpdate(completed, total, res))
		default:
			result.Failed++
			e.sendProgress(prog, uploadFailedUpdate(completed, total, res))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].index < result.Results[j].index
	})

	e.sendProgress(prog, completeUpdate(result))
	e.logger.Info("bulk upload finished", "succeeded", result.Succeeded, "failed", result.Failed)

	if opts.ManifestPath != "" {
		if err := formatter.WriteManifest(result, opts.ManifestPath); err != nil {
			return result, fmt.Errorf("upload completed but failed to write manifest: %w", err)
		}
		result.ManifestPath = opts.ManifestPath
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("bulk upload interrupted after %d of %d files: %w", len(result.Results), total, err)
	}
	return result, nil
}

// uploadWorker uploads files from the jobs channel until it is closed.
func (e *Engine) uploadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan uploadJob,
	results chan<- FileUploadResult,
	opts BulkUploadOpts,
) {
	defer wg.Done()

	for job := range jobs {
		results <- e.uploadOne(ctx, job, opts)
	}
}

// uploadOne uploads a single file and, when a project is set, attaches it.
func (e *Engine) uploadOne(ctx context.Context, job uploadJob, opts BulkUploadOpts) FileUploadResult {
	res := FileUploadResult{
		Path:     job.path,
		Filename: filepath.Base(job.path),
		index:    job.index,
	}
	if opts.ProjectID != nil {
		res.ProjectID = *opts.ProjectID
	}

	uploaded, err := e.api.UploadFile(ctx, job.path)
	if err != nil {
		e.logger.Warn("upload failed", "file", res.Filename, "error", err)
		return res.fail(err)
	}
	res.Filename = uploaded.Filename
	res.Size = uploaded.FileSize
	res.Uploaded = true

	if opts.ProjectID != nil {
		if _, err := e.api.AddVideoToProject(ctx, *opts.ProjectID, uploaded.Filename); err != nil {
			e.logger.Warn("attach failed", "file", res.Filename, "project", *opts.ProjectID, "error", err)
			return res.fail(err)
		}
		res.Attached = true
	}

	res.Success = true
	return res
}

func (r FileUploadResult) fail(err error) FileUploadResult {
	r.Err = err
	r.Error = err.Error()
	return r
}
