package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/fuminsho/internal/formatter"
	"github.com/desertthunder/fuminsho/internal/repositories"
	"github.com/desertthunder/fuminsho/internal/scheduler"
	"github.com/desertthunder/fuminsho/internal/services"
	"github.com/desertthunder/fuminsho/internal/tasks"
)

type runFunc func(progress chan<- tasks.ProgressUpdate) (*tasks.RunReport, error)

// runWithReport streams progress unless quiet and writes the run report, returning the run error.
func (r *Runner) runWithReport(run runFunc, quiet bool) error {
	var progress chan tasks.ProgressUpdate
	done := make(chan struct{})

	if quiet {
		close(done)
	} else {
		progress = make(chan tasks.ProgressUpdate, 64)
		go r.printProgress(progress, done)
	}

	report, err := run(progress)
	if progress != nil {
		close(progress)
	}
	<-done

	if report != nil {
		if werr := formatter.WriteReport(r.output, report, err); werr != nil {
			return werr
		}
	}
	return err
}

// Sync runs the pipeline, or only its sync stages with --skip-infer.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	skipInfer := cmd.Bool("skip-infer")
	fullScan := cmd.Bool("full")

	var completion services.CompletionService
	if !skipInfer {
		if completion, err = r.completionService(false); err != nil {
			return err
		}
	}

	pipeline, err := r.pipeline(ctx, db, completion)
	if err != nil {
		return err
	}

	return r.runWithReport(func(progress chan<- tasks.ProgressUpdate) (*tasks.RunReport, error) {
		if skipInfer {
			return pipeline.Sync(ctx, fullScan, progress)
		}
		return pipeline.Run(ctx, fullScan, progress)
	}, cmd.Bool("quiet"))
}

// Infer runs metadata inference over stored entries without links.
func (r *Runner) Infer(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	completion, err := r.completionService(true)
	if err != nil {
		return err
	}

	pipeline, err := r.pipeline(ctx, db, completion)
	if err != nil {
		return err
	}

	return r.runWithReport(func(progress chan<- tasks.ProgressUpdate) (*tasks.RunReport, error) {
		return pipeline.Generate(ctx, progress)
	}, cmd.Bool("quiet"))
}

// Schedule starts the cron scheduler, or runs one job with --once.
func (r *Runner) Schedule(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	completion, err := r.completionService(false)
	if err != nil {
		return err
	}

	pipeline, err := r.pipeline(ctx, db, completion)
	if err != nil {
		return err
	}

	s, err := scheduler.New(pipeline, scheduler.Opts{
		Timezone:    r.config.Schedule.Timezone,
		Incremental: r.config.Schedule.Incremental,
		FullScan:    r.config.Schedule.FullScan,
		Logger:      r.logger,
	})
	if err != nil {
		return err
	}

	if cmd.Bool("once") {
		return s.RunOnce(ctx, cmd.Bool("full"))
	}

	incremental, full := s.NextRuns(time.Now())
	r.writePlain("Next incremental run: %s\n", incremental.Format(time.RFC1123))
	r.writePlain("Next full scan:       %s\n", full.Format(time.RFC1123))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.Start(ctx)
	return nil
}

// Stats prints catalog counts.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	stats, err := repositories.NewEntryRepository(db).Stats()
	if err != nil {
		return err
	}

	return formatter.WriteStats(r.output, stats)
}

// Export writes the catalog to a CSV file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	entries, err := repositories.NewEntryRepository(db).List()
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if err := formatter.WriteCSVExport(entries, path); err != nil {
		return err
	}

	r.logger.Info("exported catalog", "entries", len(entries), "path", path)
	return r.writePlain("✓ Exported %d entries to %s\n", len(entries), path)
}
