package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/fuminsho/internal/formatter"
	"github.com/desertthunder/fuminsho/internal/repositories"
	"github.com/desertthunder/fuminsho/internal/services"
	"github.com/desertthunder/fuminsho/internal/shared"
	"github.com/desertthunder/fuminsho/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	source     services.PlaylistSource
	completion services.CompletionService
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Source, Completion and DB replace the clients and database built from Config when set.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     services.PlaylistSource
	Completion services.CompletionService
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		source:     opts.Source,
		completion: opts.Completion,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, syncCommand, inferCommand, scheduleCommand, statsCommand, exportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDB returns the injected database or opens the configured one with migrations applied.
// The returned func closes only databases opened here.
func (r *Runner) openDB() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, func() { db.Close() }, nil
}

func (r *Runner) playlistSource(ctx context.Context) (services.PlaylistSource, error) {
	if r.source != nil {
		return r.source, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	return services.NewYouTubeService(ctx, services.YouTubeOpts{
		APIKey:            r.config.Credentials.Google.APIKey,
		Endpoint:          r.config.Sync.Endpoint,
		HTTPClient:        r.httpClient,
		Timeout:           r.config.Sync.Timeout.Duration,
		RequestsPerSecond: r.config.Sync.RequestsPerSecond,
		Logger:            r.logger,
	})
}

// completionService returns nil without an error when enrichment is not configured and not required.
func (r *Runner) completionService(required bool) (services.CompletionService, error) {
	if r.completion != nil {
		return r.completion, nil
	}

	if err := r.config.ValidateEnrichment(); err != nil {
		if required {
			return nil, err
		}
		r.logger.Warn("metadata inference disabled", "reason", err)
		return nil, nil
	}

	return services.NewOpenRouterService(services.OpenRouterOpts{
		APIKey:  r.config.Credentials.OpenRouter.APIKey,
		Model:   r.config.Credentials.OpenRouter.Model,
		BaseURL: r.config.Credentials.OpenRouter.BaseURL,
		Timeout: r.config.Enrichment.Timeout.Duration,
		Logger:  r.logger,
	})
}

// pipeline wires a [tasks.Pipeline] over db. Without a completion service only sync runs.
func (r *Runner) pipeline(ctx context.Context, db *sql.DB, completion services.CompletionService) (*tasks.Pipeline, error) {
	source, err := r.playlistSource(ctx)
	if err != nil {
		return nil, err
	}

	return tasks.NewPipeline(tasks.PipelineOpts{
		Source:     source,
		Completion: completion,
		Entries:    repositories.NewEntryRepository(db),
		Genres:     repositories.NewGenreRepository(db),
		Songs:      repositories.NewSongRepository(db),
		PlaylistID: r.config.Playlist.ID,
		TailMarker: r.config.Playlist.LastVideoID,
		PageSize:   r.config.Sync.PageSize,
		Logger:     r.logger,
	})
}

// printProgress writes updates to the output until progress is closed, then closes done.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		r.writePlain("%s\n", formatter.FormatProgress(update))
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
