// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml when missing, initialize the database and run migrations",
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

// syncCommand runs the full pipeline: sync, details and metadata inference
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Synchronize the playlist, fetch video details and infer metadata",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "full",
				Usage: "Scan every page instead of stopping once caught up",
			},
			&cli.BoolFlag{
				Name:  "skip-infer",
				Usage: "Only synchronize entries and their details",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide per-entry progress",
			},
		},
		Action: r.Sync,
	}
}

// inferCommand runs only metadata inference over stored entries
func inferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "infer",
		Usage: "Infer genres and tracks for stored entries without metadata",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide per-entry progress",
			},
		},
		Action: r.Infer,
	}
}

func scheduleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Run the pipeline daily and as a weekly full scan until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single scheduled job now and exit",
			},
			&cli.BoolFlag{
				Name:  "full",
				Usage: "With --once, run the full scan job",
			},
		},
		Action: r.Schedule,
	}
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show catalog counts and pending enrichment work",
		Action: r.Stats,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the catalog to CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
				Value:   "catalog.csv",
			},
		},
		Action: r.Export,
	}
}
