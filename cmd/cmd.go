// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the example configuration to --config",
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand runs the progress server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the progress server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (default: server.port)",
			},
		},
		Action: r.Serve,
	}
}

// courseCommand manages the course catalog.
func courseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "course",
		Usage: "Course catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Import or update courses from a TOML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the course TOML file",
						Required: true,
					},
				},
				Action: r.CourseImport,
			},
			{
				Name:  "list",
				Usage: "List live courses with their chapters and segments",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CourseList,
			},
		},
	}
}

// reportCommand renders a user's progress report.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Show a user's progress across all courses",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "User ID to report on",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (txt, csv, markdown)",
				Value:   "txt",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to this file instead of stdout",
			},
		},
		Action: r.Report,
	}
}

// watchCommand returns the interactive player that drives the tracker.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"play"},
		Usage:   "Watch a segment in a simulated terminal player and sync progress",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "segment",
				Aliases:  []string{"s"},
				Usage:    "Segment ID to watch",
				Required: true,
			},
			&cli.FloatFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "Video length in seconds (default: the segment's stored duration)",
			},
			&cli.FloatFlag{
				Name:  "speed",
				Usage: "Playback speed multiplier",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User ID sent with sync calls (default: sync.user_id)",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Track locally without contacting the progress server",
			},
		},
		Action: r.Watch,
	}
}

// exportCommand writes every user's report into a directory.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export one progress report per user with a manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Output directory (default: reports_{epoch})",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (txt, csv, markdown)",
				Value:   "csv",
			},
			&cli.StringSliceFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Only export these users (repeatable)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers",
				Value: 4,
			},
		},
		Action: r.Export,
	}
}
