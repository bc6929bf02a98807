package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ivx/internal/formatter"
	"github.com/desertthunder/ivx/internal/models"
	"github.com/desertthunder/ivx/internal/services"
	"github.com/urfave/cli/v3"
)

// editorRoute is where video processing lives in the client; every video command needs a session.
const editorRoute = "/editor"

func (r *Runner) writeProcessResult(cmd *cli.Command, op string, result models.ProcessResult) error {
	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	msg := result.Message()
	if msg == "" {
		msg = op + " complete"
	}
	r.writePlain("%s %s\n", okMark, msg)
	if out := result.OutputFile(); out != "" {
		r.writePlain("Output: %s\n", out)
	}
	return nil
}

// processVideo runs op after the session check shared by every video command.
func (r *Runner) processVideo(ctx context.Context, cmd *cli.Command, op string, fn func(context.Context) (models.ProcessResult, error)) error {
	if _, err := r.requireAuth(editorRoute); err != nil {
		return err
	}

	r.logger.Info("processing video", "operation", op)
	result, err := fn(ctx)
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return r.writeProcessResult(cmd, op, result)
}

// VideoClip cuts a segment out of an uploaded video.
func (r *Runner) VideoClip(ctx context.Context, cmd *cli.Command) error {
	opts := services.ClipOpts{
		Filename:  cmd.StringArg("filename"),
		StartTime: cmd.Float("start"),
		EndTime:   cmd.Float("end"),
		ProjectID: cmd.Int("project"),
	}
	return r.processVideo(ctx, cmd, "clip", func(ctx context.Context) (models.ProcessResult, error) {
		return r.gateway.ClipVideo(ctx, opts)
	})
}

// VideoConvert re-encodes a video into another container format.
func (r *Runner) VideoConvert(ctx context.Context, cmd *cli.Command) error {
	opts := services.ConvertOpts{
		Filename:     cmd.StringArg("filename"),
		TargetFormat: cmd.String("format"),
		Quality:      cmd.String("quality"),
		ProjectID:    optionalInt(cmd, "project"),
	}
	return r.processVideo(ctx, cmd, "convert", func(ctx context.Context) (models.ProcessResult, error) {
		return r.gateway.ConvertVideo(ctx, opts)
	})
}

// VideoFilter applies a named visual filter.
func (r *Runner) VideoFilter(ctx context.Context, cmd *cli.Command) error {
	opts := services.FilterOpts{
		Filename:   cmd.StringArg("filename"),
		FilterType: cmd.String("type"),
		Intensity:  optionalFloat(cmd, "intensity"),
		ProjectID:  optionalInt(cmd, "project"),
	}
	return r.processVideo(ctx, cmd, "filter", func(ctx context.Context) (models.ProcessResult, error) {
		return r.gateway.ApplyFilter(ctx, opts)
	})
}

// VideoWatermark overlays text on a video.
func (r *Runner) VideoWatermark(ctx context.Context, cmd *cli.Command) error {
	opts := services.WatermarkOpts{
		Filename:  cmd.StringArg("filename"),
		Text:      cmd.String("text"),
		Position:  cmd.String("position"),
		ProjectID: optionalInt(cmd, "project"),
	}
	return r.processVideo(ctx, cmd, "watermark", func(ctx context.Context) (models.ProcessResult, error) {
		return r.gateway.AddWatermark(ctx, opts)
	})
}

// VideoSubtitle burns a timed caption into a video.
func (r *Runner) VideoSubtitle(ctx context.Context, cmd *cli.Command) error {
	opts := services.SubtitleOpts{
		Filename:  cmd.StringArg("filename"),
		Text:      cmd.String("text"),
		StartTime: cmd.Float("start"),
		Duration:  optionalFloat(cmd, "duration"),
		FontSize:  cmd.Int("font-size"),
		FontColor: cmd.String("font-color"),
	}
	return r.processVideo(ctx, cmd, "subtitle", func(ctx context.Context) (models.ProcessResult, error) {
		return r.gateway.AddSubtitle(ctx, opts)
	})
}

// VideoMerge concatenates uploaded videos in argument order.
func (r *Runner) VideoMerge(ctx context.Context, cmd *cli.Command) error {
	opts := services.MergeOpts{
		Filenames:  cmd.StringArgs("filenames"),
		OutputName: cmd.String("output"),
	}
	return r.processVideo(ctx, cmd, "merge", func(ctx context.Context) (models.ProcessResult, error) {
		return r.gateway.MergeVideos(ctx, opts)
	})
}

// VideoExtractAudio pulls the audio track out of a video.
func (r *Runner) VideoExtractAudio(ctx context.Context, cmd *cli.Command) error {
	opts := services.ExtractAudioOpts{
		Filename: cmd.StringArg("filename"),
		Format:   cmd.String("format"),
	}
	return r.processVideo(ctx, cmd, "extract-audio", func(ctx context.Context) (models.ProcessResult, error) {
		return r.gateway.ExtractAudio(ctx, opts)
	})
}

// VideoThumbnail grabs a still frame.
func (r *Runner) VideoThumbnail(ctx context.Context, cmd *cli.Command) error {
	opts := services.ThumbnailOpts{
		Filename:  cmd.StringArg("filename"),
		TimePoint: cmd.Float("time"),
		Width:     cmd.Int("width"),
	}
	return r.processVideo(ctx, cmd, "thumbnail", func(ctx context.Context) (models.ProcessResult, error) {
		return r.gateway.Thumbnail(ctx, opts)
	})
}

// VideoInfo prints container and stream details for an uploaded file.
func (r *Runner) VideoInfo(ctx context.Context, cmd *cli.Command) error {
	filename := cmd.StringArg("filename")
	if err := requireArg(filename, "filename"); err != nil {
		return err
	}
	if _, err := r.requireAuth(editorRoute); err != nil {
		return err
	}

	info, err := r.gateway.VideoInfo(ctx, filename)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}

	r.writePlainHeader(info.Filename)
	r.writePlain("Format:   %s\n", info.Format)
	r.writePlain("Duration: %s\n", formatter.FormatDuration(info.Duration))
	r.writePlain("Size:     %s\n", formatter.FormatSize(info.Size))
	if v := info.Video; v != nil {
		r.writePlain("Video:    %s %dx%d @ %.2f fps\n", v.Codec, v.Width, v.Height, v.FPS)
	}
	if a := info.Audio; a != nil {
		r.writePlain("Audio:    %s, %d channels\n", a.Codec, a.Channels)
	}
	return nil
}
