package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/ivx/internal/models"
	"github.com/desertthunder/ivx/internal/shared"
)

const (
	DefaultQuality       = "medium"
	DefaultIntensity     = 0.1
	DefaultPosition      = "bottom-right"
	DefaultDuration      = 5.0
	DefaultMergeOutput   = "merged_vlog"
	DefaultAudioFormat   = "mp3"
	DefaultThumbnailSize = 320
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func setProjectID(q url.Values, id *int) {
	if id != nil {
		q.Set("project_id", strconv.Itoa(*id))
	}
}

func requireFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: filename", shared.ErrMissingArgument)
	}
	return nil
}

// ClipOpts configures [Gateway.ClipVideo].
type ClipOpts struct {
	Filename  string
	StartTime float64 // seconds
	EndTime   float64 // seconds
	ProjectID int     // project the clip is recorded against
}

// ConvertOpts configures [Gateway.ConvertVideo].
type ConvertOpts struct {
	Filename     string
	TargetFormat string
	Quality      string // low, medium or high (default: medium)
	ProjectID    *int   // optional
}

func (o *ConvertOpts) applyDefaults() {
	if o.Quality == "" {
		o.Quality = DefaultQuality
	}
}

// FilterOpts configures [Gateway.ApplyFilter].
type FilterOpts struct {
	Filename   string
	FilterType string
	Intensity  *float64 // default: 0.1; zero is a valid intensity, so use [Float]
	ProjectID  *int     // optional
}

func (o *FilterOpts) applyDefaults() {
	if o.Intensity == nil {
		o.Intensity = Float(DefaultIntensity)
	}
}

// WatermarkOpts configures [Gateway.AddWatermark].
type WatermarkOpts struct {
	Filename  string
	Text      string
	Position  string // default: bottom-right
	ProjectID *int   // optional
}

func (o *WatermarkOpts) applyDefaults() {
	if o.Position == "" {
		o.Position = DefaultPosition
	}
}

// SubtitleOpts configures [Gateway.AddSubtitle].
type SubtitleOpts struct {
	Filename  string
	Text      string
	StartTime float64
	Duration  *float64 // seconds (default: 5)
	FontSize  int      // omitted when zero; backend default 24
	FontColor string   // omitted when empty; backend default white
}

func (o *SubtitleOpts) applyDefaults() {
	if o.Duration == nil {
		o.Duration = Float(DefaultDuration)
	}
}

// MergeOpts configures [Gateway.MergeVideos].
type MergeOpts struct {
	Filenames  []string // sent comma-joined, in order
	OutputName string   // default: merged_vlog
}

func (o *MergeOpts) applyDefaults() {
	if o.OutputName == "" {
		o.OutputName = DefaultMergeOutput
	}
}

// ExtractAudioOpts configures [Gateway.ExtractAudio].
type ExtractAudioOpts struct {
	Filename string
	Format   string // default: mp3
}

func (o *ExtractAudioOpts) applyDefaults() {
	if o.Format == "" {
		o.Format = DefaultAudioFormat
	}
}

// ThumbnailOpts configures [Gateway.Thumbnail].
type ThumbnailOpts struct {
	Filename  string
	TimePoint float64 // seconds into the video (default: 0)
	Width     int     // pixels (default: 320)
}

func (o *ThumbnailOpts) applyDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultThumbnailSize
	}
}

func (g *Gateway) process(ctx context.Context, path string, q url.Values) (models.ProcessResult, error) {
	var result models.ProcessResult
	if err := g.do(ctx, request{method: http.MethodPost, path: path, query: q}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ClipVideo cuts [StartTime, EndTime] out of a file.
func (g *Gateway) ClipVideo(ctx context.Context, opts ClipOpts) (models.ProcessResult, error) {
	if err := requireFilename(opts.Filename); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("filename", opts.Filename)
	q.Set("start_time", formatFloat(opts.StartTime))
	q.Set("end_time", formatFloat(opts.EndTime))
	q.Set("project_id", strconv.Itoa(opts.ProjectID))

	return g.process(ctx, "/api/video/clip", q)
}

// ConvertVideo transcodes a file to another container format.
func (g *Gateway) ConvertVideo(ctx context.Context, opts ConvertOpts) (models.ProcessResult, error) {
	if err := requireFilename(opts.Filename); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	q := url.Values{}
	q.Set("filename", opts.Filename)
	q.Set("target_format", opts.TargetFormat)
	q.Set("quality", opts.Quality)
	setProjectID(q, opts.ProjectID)

	return g.process(ctx, "/api/video/convert", q)
}

// ApplyFilter applies a named filter (brightness, contrast, ...) to a file.
func (g *Gateway) ApplyFilter(ctx context.Context, opts FilterOpts) (models.ProcessResult, error) {
	if err := requireFilename(opts.Filename); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	q := url.Values{}
	q.Set("filename", opts.Filename)
	q.Set("filter_type", opts.FilterType)
	q.Set("intensity", formatFloat(*opts.Intensity))
	setProjectID(q, opts.ProjectID)

	return g.process(ctx, "/api/video/filter", q)
}

// AddWatermark burns a text watermark into a file.
func (g *Gateway) AddWatermark(ctx context.Context, opts WatermarkOpts) (models.ProcessResult, error) {
	if err := requireFilename(opts.Filename); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	q := url.Values{}
	q.Set("filename", opts.Filename)
	q.Set("watermark_text", opts.Text)
	q.Set("position", opts.Position)
	setProjectID(q, opts.ProjectID)

	return g.process(ctx, "/api/video/watermark", q)
}

// AddSubtitle overlays timed subtitle text.
func (g *Gateway) AddSubtitle(ctx context.Context, opts SubtitleOpts) (models.ProcessResult, error) {
	if err := requireFilename(opts.Filename); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	q := url.Values{}
	q.Set("filename", opts.Filename)
	q.Set("subtitle_text", opts.Text)
	q.Set("start_time", formatFloat(opts.StartTime))
	q.Set("duration", formatFloat(*opts.Duration))
	if opts.FontSize > 0 {
		q.Set("font_size", strconv.Itoa(opts.FontSize))
	}
	if opts.FontColor != "" {
		q.Set("font_color", opts.FontColor)
	}

	return g.process(ctx, "/api/video/add-subtitle", q)
}

// MergeVideos concatenates files in the given order.
func (g *Gateway) MergeVideos(ctx context.Context, opts MergeOpts) (models.ProcessResult, error) {
	if len(opts.Filenames) == 0 {
		return nil, fmt.Errorf("%w: filenames", shared.ErrMissingArgument)
	}
	opts.applyDefaults()

	q := url.Values{}
	q.Set("filenames", strings.Join(opts.Filenames, ","))
	q.Set("output_name", opts.OutputName)

	return g.process(ctx, "/api/video/merge", q)
}

// ExtractAudio writes the audio track of a file to a separate file.
func (g *Gateway) ExtractAudio(ctx context.Context, opts ExtractAudioOpts) (models.ProcessResult, error) {
	if err := requireFilename(opts.Filename); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	q := url.Values{}
	q.Set("filename", opts.Filename)
	q.Set("audio_format", opts.Format)

	return g.process(ctx, "/api/video/extract-audio", q)
}

// Thumbnail renders one frame of a file as an image.
func (g *Gateway) Thumbnail(ctx context.Context, opts ThumbnailOpts) (models.ProcessResult, error) {
	if err := requireFilename(opts.Filename); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	q := url.Values{}
	q.Set("filename", opts.Filename)
	q.Set("time_point", formatFloat(opts.TimePoint))
	q.Set("width", strconv.Itoa(opts.Width))

	return g.process(ctx, "/api/video/thumbnail", q)
}

// VideoInfo inspects an uploaded file.
func (g *Gateway) VideoInfo(ctx context.Context, filename string) (*models.VideoInfo, error) {
	if err := requireFilename(filename); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("filename", filename)

	var info models.VideoInfo
	if err := g.do(ctx, request{method: http.MethodGet, path: "/api/video/info", query: q}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
