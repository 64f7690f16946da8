package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/services"
	"github.com/desertthunder/fuminsho/internal/shared"
)

// PipelineOpts carries the resolved configuration and collaborators of a [Pipeline].
type PipelineOpts struct {
	Source     services.PlaylistSource
	Completion services.CompletionService // nil disables metadata inference
	Entries    EntryStore
	Genres     GenreStore
	Songs      SongStore

	PlaylistID string
	TailMarker string
	PageSize   int64
	Logger     *log.Logger
}

// RunReport summarizes a pipeline run.
type RunReport struct {
	RunID    string
	FullScan bool
	Started  time.Time
	Finished time.Time

	Pages    int
	Synced   int
	Created  int
	Updated  int
	Skipped  int
	Comments int
	Details  int

	Inferred int // entries whose metadata was requested and reconciled
	Genres   int // genre links written
	Songs    int // song links written
	Failed   int // entries whose inference failed
}

// Elapsed returns the run duration.
func (r *RunReport) Elapsed() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Pipeline runs sync, detail enrichment, metadata inference and reconciliation in sequence.
type Pipeline struct {
	opts       PipelineOpts
	details    *DetailEnricher
	inference  *InferenceEngine
	reconciler *Reconciler
	logger     *log.Logger
}

// NewPipeline validates opts and wires the pipeline stages.
func NewPipeline(opts PipelineOpts) (*Pipeline, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("%w: playlist source", shared.ErrServiceUnavailable)
	}
	if opts.Entries == nil || opts.Genres == nil || opts.Songs == nil {
		return nil, fmt.Errorf("%w: storage", shared.ErrServiceUnavailable)
	}
	if opts.PlaylistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	p := &Pipeline{
		opts:       opts,
		details:    NewDetailEnricher(opts.Source, opts.Entries, logger),
		reconciler: NewReconciler(opts.Genres, opts.Songs, logger),
		logger:     logger,
	}
	if opts.Completion != nil {
		p.inference = NewInferenceEngine(opts.Completion, logger)
	}
	return p, nil
}

// Run synchronizes the playlist and then infers metadata for entries without links.
//
// A sync or detail failure aborts the run. Inference failures are logged per entry and
// returned joined once every entry has been tried.
func (p *Pipeline) Run(ctx context.Context, fullScan bool, progress chan<- ProgressUpdate) (*RunReport, error) {
	report, logger := p.newRun(fullScan)
	defer p.finish(report, logger)

	if err := p.sync(ctx, report, logger, progress); err != nil {
		return report, err
	}

	if p.inference == nil {
		logger.Warn("no completion service configured, skipping metadata inference")
		return report, nil
	}

	return report, p.generate(ctx, report, logger, progress)
}

// Sync runs only the sync and detail stages.
func (p *Pipeline) Sync(ctx context.Context, fullScan bool, progress chan<- ProgressUpdate) (*RunReport, error) {
	report, logger := p.newRun(fullScan)
	defer p.finish(report, logger)

	return report, p.sync(ctx, report, logger, progress)
}

// Generate runs only metadata inference and reconciliation over stored entries.
func (p *Pipeline) Generate(ctx context.Context, progress chan<- ProgressUpdate) (*RunReport, error) {
	report, logger := p.newRun(false)
	defer p.finish(report, logger)

	if p.inference == nil {
		return report, fmt.Errorf("%w: completion service", shared.ErrServiceUnavailable)
	}
	return report, p.generate(ctx, report, logger, progress)
}

func (p *Pipeline) newRun(fullScan bool) (*RunReport, *log.Logger) {
	report := &RunReport{RunID: shared.GenerateID(), FullScan: fullScan, Started: time.Now()}
	logger := shared.WithLogger(p.logger, "run", report.RunID)
	logger.Info("starting run", "playlist", p.opts.PlaylistID, "full_scan", fullScan)
	return report, logger
}

func (p *Pipeline) finish(report *RunReport, logger *log.Logger) {
	report.Finished = time.Now()
	logger.Info("run finished",
		"elapsed", report.Elapsed().Round(time.Millisecond),
		"synced", report.Synced,
		"inferred", report.Inferred,
		"failed", report.Failed,
	)
}

func (p *Pipeline) sync(ctx context.Context, report *RunReport, logger *log.Logger, progress chan<- ProgressUpdate) error {
	engine := NewSyncEngine(p.opts.Source, p.opts.Entries, SyncOpts{
		PlaylistID: p.opts.PlaylistID,
		TailMarker: p.opts.TailMarker,
		PageSize:   p.opts.PageSize,
		Logger:     logger,
		OnPage: func(ctx context.Context, page PageResult) error {
			report.Pages++
			report.Created += page.Created
			report.Updated += page.Updated
			report.Skipped += page.Skipped
			sendProgress(progress, syncPageUpdate(page))

			comments, err := p.details.UpdateComments(ctx, page.IDs, progress)
			report.Comments += comments
			if err != nil {
				return err
			}

			details, err := p.details.UpdateVideoDetails(ctx, page.IDs, progress)
			report.Details += details
			return err
		},
	})

	synced, err := engine.Synchronize(ctx, "", report.FullScan)
	report.Synced = len(synced)
	if err != nil {
		logger.Error("sync failed", "err", err)
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

func (p *Pipeline) generate(ctx context.Context, report *RunReport, logger *log.Logger, progress chan<- ProgressUpdate) error {
	pending, err := p.opts.Entries.ListPendingMetadata()
	if err != nil {
		return fmt.Errorf("failed to list entries for inference: %w", err)
	}

	logger.Info("generating metadata", "entries", len(pending))

	var failures []error
	for i, entry := range pending {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(failures, err)...)
		}

		linked, err := p.hasLinks(entry)
		if err != nil {
			return errors.Join(append(failures, err)...)
		}
		if linked {
			logger.Debug("skipping entry with existing links", "video", entry.VideoID)
			continue
		}

		sendProgress(progress, inferUpdate(i+1, len(pending), entry.Title))

		result, err := p.enrich(ctx, entry)
		if err != nil {
			report.Failed++
			failures = append(failures, fmt.Errorf("entry %s: %w", entry.VideoID, err))
			logger.Error("metadata inference failed", "video", entry.VideoID, "err", err)
			sendProgress(progress, inferFailedUpdate(i+1, len(pending), entry.Title, err))
			continue
		}

		report.Inferred++
		report.Genres += result.Genres
		report.Songs += result.Songs
		sendProgress(progress, reconcileUpdate(i+1, len(pending), entry.Title, result))
	}

	return errors.Join(failures...)
}

// hasLinks re-checks an entry right before inference so partially linked entries are left alone.
func (p *Pipeline) hasLinks(entry *models.PlaylistEntry) (bool, error) {
	genres, err := p.opts.Genres.CountForEntry(entry.ID)
	if err != nil {
		return false, err
	}
	songs, err := p.opts.Songs.CountForEntry(entry.ID)
	if err != nil {
		return false, err
	}
	return genres > 0 || songs > 0, nil
}

func (p *Pipeline) enrich(ctx context.Context, entry *models.PlaylistEntry) (ReconcileResult, error) {
	metadata, err := p.inference.Infer(ctx, entry)
	if err != nil {
		return ReconcileResult{}, err
	}
	return p.reconciler.Apply(entry, metadata)
}
