// package scheduler triggers pipeline runs on a cron cadence.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/desertthunder/fuminsho/internal/shared"
	"github.com/desertthunder/fuminsho/internal/tasks"
)

// ErrRunPanicked reports a run that panicked and was recovered.
var ErrRunPanicked = errors.New("pipeline run panicked")

// Pipeline is the run entry point the scheduler triggers. Implemented by [tasks.Pipeline].
type Pipeline interface {
	Run(ctx context.Context, fullScan bool, progress chan<- tasks.ProgressUpdate) (*tasks.RunReport, error)
}

// Opts configures a [Scheduler]. Empty specs fall back to the daily incremental and weekly full scan defaults.
type Opts struct {
	Timezone    string
	Incremental string
	FullScan    string
	Logger      *log.Logger
}

const (
	DefaultIncremental = "0 0 * * *"
	DefaultFullScan    = "0 6 * * 6"
)

// Scheduler runs the pipeline incrementally every day and as a full scan every week.
type Scheduler struct {
	pipeline Pipeline
	cron     *cron.Cron
	location *time.Location
	logger   *log.Logger

	incremental cron.Schedule
	fullScan    cron.Schedule

	mu  sync.Mutex // one run at a time across both jobs
	ctx context.Context
}

// New parses the configured schedules and registers both jobs. Nothing runs until [Scheduler.Start].
func New(pipeline Pipeline, opts Opts) (*Scheduler, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline", shared.ErrServiceUnavailable)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	location, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule.timezone %q: %v", shared.ErrInvalidConfig, opts.Timezone, err)
	}

	s := &Scheduler{
		pipeline: pipeline,
		location: location,
		logger:   shared.WithLogger(logger, "component", "scheduler"),
		ctx:      context.Background(),
	}

	cl := cronLogger{s.logger}
	s.cron = cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if s.incremental, err = s.register(orDefault(opts.Incremental, DefaultIncremental), false); err != nil {
		return nil, err
	}
	if s.fullScan, err = s.register(orDefault(opts.FullScan, DefaultFullScan), true); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) register(spec string, fullScan bool) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule %q: %v", shared.ErrInvalidConfig, spec, err)
	}

	s.cron.Schedule(schedule, cron.FuncJob(func() {
		// Failures are logged by RunOnce; the next tick tries again.
		_ = s.RunOnce(s.ctx, fullScan)
	}))
	return schedule, nil
}

// Start runs the cron loop until ctx is cancelled, then waits for a running job to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx

	incremental, full := s.NextRuns(time.Now())
	s.logger.Info("scheduler started",
		"timezone", s.location.String(),
		"next_incremental", incremental.Format(time.RFC3339),
		"next_full_scan", full.Format(time.RFC3339),
	)

	s.cron.Start()
	<-ctx.Done()

	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// NextRuns returns the next incremental and full scan times after now, in the scheduler's timezone.
func (s *Scheduler) NextRuns(now time.Time) (incremental, fullScan time.Time) {
	now = now.In(s.location)
	return s.incremental.Next(now), s.fullScan.Next(now)
}

// RunOnce runs the pipeline once and logs its outcome. A panic is recovered and returned as [ErrRunPanicked].
func (s *Scheduler) RunOnce(ctx context.Context, fullScan bool) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := shared.WithLogger(s.logger, "full_scan", fullScan)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRunPanicked, r)
			logger.Error("scheduled run panicked", "panic", r)
		}
	}()

	logger.Info("scheduled run starting")

	report, err := s.pipeline.Run(ctx, fullScan, nil)
	if err != nil {
		logger.Error("scheduled run failed", "err", err)
		return err
	}

	logger.Info("scheduled run complete",
		"run", report.RunID,
		"synced", report.Synced,
		"inferred", report.Inferred,
		"elapsed", report.Elapsed().Round(time.Second),
	)
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// cronLogger adapts a [log.Logger] to [cron.Logger].
type cronLogger struct {
	logger *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.logger.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.logger.Error(msg, append(keysAndValues, "err", err)...)
}
