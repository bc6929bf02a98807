// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/ivx/internal/formatter"
	"github.com/desertthunder/ivx/internal/services"
	"github.com/desertthunder/ivx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// setupCommand writes the config file and initializes the session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the session database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in, register and inspect the stored session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and persist the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("IVX_PASSWORD")},
					jsonFlag(),
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account (does not log in)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("IVX_PASSWORD")},
					jsonFlag(),
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session without contacting the backend",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "check",
				Usage:  "Verify the stored session against the backend",
				Action: r.AuthCheck,
			},
		},
	}
}

// projectsCommand handles project operations
func projectsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "projects",
		Aliases: []string{"project", "p"},
		Usage:   "Manage editing projects",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a project",
				Arguments: []cli.Argument{&cli.StringArg{Name: "title"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Project description"},
					jsonFlag(),
				},
				Action: r.ProjectsCreate,
			},
			{
				Name:   "list",
				Usage:  "List your projects",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProjectsList,
			},
			{
				Name:      "show",
				Usage:     "Show a project and its videos",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ProjectsShow,
			},
			{
				Name:      "add-video",
				Usage:     "Add an uploaded file to a project",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "filename"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ProjectsAddVideo,
			},
			{
				Name:      "videos",
				Usage:     "List the videos in a project",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ProjectsVideos,
			},
			{
				Name:      "export",
				Usage:     "Export a project as json, csv, markdown or txt",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format", Value: formatter.FormatJSON},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory", Value: "."},
				},
				Action: r.ProjectsExport,
			},
		},
	}
}

// videoCommand handles server-side processing
func videoCommand(r *Runner) *cli.Command {
	filename := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "filename"}} }

	return &cli.Command{
		Name:    "video",
		Aliases: []string{"v"},
		Usage:   "Process uploaded videos on the backend",
		Commands: []*cli.Command{
			{
				Name:      "clip",
				Usage:     "Cut a segment",
				Arguments: filename(),
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "start", Usage: "Start time in seconds"},
					&cli.FloatFlag{Name: "end", Usage: "End time in seconds", Required: true},
					&cli.IntFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project ID", Required: true},
					jsonFlag(),
				},
				Action: r.VideoClip,
			},
			{
				Name:      "convert",
				Usage:     "Convert to another format",
				Arguments: filename(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Target format (mp4, avi, mov, webm)", Required: true},
					&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Usage: "low, medium or high", Value: services.DefaultQuality},
					projectFlag(),
					jsonFlag(),
				},
				Action: r.VideoConvert,
			},
			{
				Name:      "filter",
				Usage:     "Apply a visual filter",
				Arguments: filename(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter type (blur, brightness, contrast, ...)", Required: true},
					&cli.FloatFlag{Name: "intensity", Aliases: []string{"i"}, Usage: "Filter intensity", Value: services.DefaultIntensity},
					projectFlag(),
					jsonFlag(),
				},
				Action: r.VideoFilter,
			},
			{
				Name:      "watermark",
				Usage:     "Overlay text",
				Arguments: filename(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Usage: "Watermark text", Required: true},
					&cli.StringFlag{Name: "position", Usage: "Corner or center", Value: services.DefaultPosition},
					projectFlag(),
					jsonFlag(),
				},
				Action: r.VideoWatermark,
			},
			{
				Name:      "subtitle",
				Usage:     "Burn in a timed caption",
				Arguments: filename(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Usage: "Caption text", Required: true},
					&cli.FloatFlag{Name: "start", Usage: "Start time in seconds"},
					&cli.FloatFlag{Name: "duration", Usage: "Seconds on screen", Value: services.DefaultDuration},
					&cli.IntFlag{Name: "font-size", Usage: "Font size (backend default when unset)"},
					&cli.StringFlag{Name: "font-color", Usage: "Font color (backend default when unset)"},
					jsonFlag(),
				},
				Action: r.VideoSubtitle,
			},
			{
				Name:      "merge",
				Usage:     "Concatenate videos in order",
				Arguments: []cli.Argument{&cli.StringArgs{Name: "filenames", Min: 1, Max: -1}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output name without extension", Value: services.DefaultMergeOutput},
					jsonFlag(),
				},
				Action: r.VideoMerge,
			},
			{
				Name:      "info",
				Usage:     "Show container and stream details",
				Arguments: filename(),
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.VideoInfo,
			},
			{
				Name:      "extract-audio",
				Usage:     "Extract the audio track",
				Arguments: filename(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Audio format", Value: services.DefaultAudioFormat},
					jsonFlag(),
				},
				Action: r.VideoExtractAudio,
			},
			{
				Name:      "thumbnail",
				Usage:     "Grab a still frame",
				Arguments: filename(),
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "time", Aliases: []string{"t"}, Usage: "Seconds into the video"},
					&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Usage: "Width in pixels", Value: services.DefaultThumbnailSize},
					jsonFlag(),
				},
				Action: r.VideoThumbnail,
			},
		},
	}
}

// uploadCommand handles file uploads
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload local videos",
		Commands: []*cli.Command{
			{
				Name:      "file",
				Usage:     "Upload one file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     []cli.Flag{projectFlag(), jsonFlag()},
				Action:    r.UploadFile,
			},
			{
				Name:      "bulk",
				Usage:     "Upload many files concurrently",
				Arguments: []cli.Argument{&cli.StringArgs{Name: "paths", Min: 1, Max: -1}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Concurrent uploads", Value: tasks.DefaultWorkers},
					&cli.FloatFlag{Name: "rate", Aliases: []string{"r"}, Usage: "Uploads started per second", Value: tasks.DefaultRateLimit},
					&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "Write a JSON manifest of the run"},
					projectFlag(),
					jsonFlag(),
				},
				Action: r.UploadBulk,
			},
		},
	}
}

// systemCommand handles backend and client diagnostics
func systemCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "system",
		Usage: "Backend status and client metrics",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show backend usage counters",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SystemStatus,
			},
			{
				Name:   "health",
				Usage:  "Check that the backend is up",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SystemHealth,
			},
			{
				Name:  "metrics",
				Usage: "Print gateway metrics in Prometheus text format",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ping", Usage: "Issue a health request first"},
				},
				Action: r.SystemMetrics,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	path := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "path"}} }
	compact := func() cli.Flag { return &cli.BoolFlag{Name: "compact", Usage: "Print JSON on one line"} }

	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the iVideo backend through the session gateway",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the response body",
				Arguments: path(),
				Flags:     []cli.Flag{compact()},
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: path(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
					compact(),
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive terminal client",
		Arguments: []cli.Argument{&cli.StringArg{Name: "path", UsageText: "route to open (default /)"}},
		Action:    r.TUI,
	}
}
