package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/services"
	"github.com/desertthunder/fuminsho/internal/shared"
	tu "github.com/desertthunder/fuminsho/internal/testing"
)

func newPipeline(t *testing.T, f fixture, source services.PlaylistSource, completion services.CompletionService) *Pipeline {
	t.Helper()

	opts := PipelineOpts{
		Source:     source,
		Completion: completion,
		Entries:    f.entries,
		Genres:     f.genres,
		Songs:      f.songs,
		PlaylistID: "PL",
		Logger:     quietLogger(),
	}
	p, err := NewPipeline(opts)
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	return p
}

func twoPageSource() *tu.FakeSource {
	removed := item("gone", 2)
	removed.Title = "Deleted video"

	return &tu.FakeSource{
		Pages: map[string]*models.PlaylistPage{
			"":   page("p2", item("a", 0), item("b", 1), removed),
			"p2": page("", item("c", 3)),
		},
		Comments: map[string][]models.Comment{
			"a": {{Author: "curator", Text: trackList}},
		},
	}
}

func TestNewPipeline(t *testing.T) {
	f := newFixture(t)

	tc := []struct {
		name    string
		mutate  func(*PipelineOpts)
		wantErr error
	}{
		{name: "missing source", mutate: func(o *PipelineOpts) { o.Source = nil }, wantErr: shared.ErrServiceUnavailable},
		{name: "missing storage", mutate: func(o *PipelineOpts) { o.Songs = nil }, wantErr: shared.ErrServiceUnavailable},
		{name: "missing playlist", mutate: func(o *PipelineOpts) { o.PlaylistID = "" }, wantErr: shared.ErrMissingArgument},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			opts := PipelineOpts{
				Source:     &tu.FakeSource{},
				Entries:    f.entries,
				Genres:     f.genres,
				Songs:      f.songs,
				PlaylistID: "PL",
			}
			tt.mutate(&opts)

			if _, err := NewPipeline(opts); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewPipeline() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("Run", func(t *testing.T) {
		f := newFixture(t)
		source := twoPageSource()
		completion := &tu.FakeCompletion{
			Replies: map[string]string{
				"Mix a": `{"genres":["Jazz","LoFi"],"tracks":[{"title":"Nujabes - Aruarian Dance","timestamp":"00:00"}]}`,
			},
			Default: `{"genres":["lofi"]}`,
		}
		p := newPipeline(t, f, source, completion)

		progress := make(chan ProgressUpdate, 100)
		report, err := p.Run(ctx, false, progress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.RunID == "" || report.Finished.Before(report.Started) {
			t.Errorf("unexpected run bookkeeping %+v", report)
		}

		want := RunReport{Pages: 2, Synced: 3, Created: 3, Skipped: 1, Comments: 3, Details: 3, Inferred: 3, Genres: 4, Songs: 1}
		got := *report
		got.RunID, got.Started, got.Finished = "", want.Started, want.Finished
		if got != want {
			t.Errorf("report = %+v, want %+v", got, want)
		}

		stats, _ := f.entries.Stats()
		if stats.Entries != 3 || stats.Genres != 2 || stats.Songs != 1 {
			t.Errorf("unexpected catalog %+v", stats)
		}
		if stats.PendingComments != 0 || stats.PendingDetails != 0 || stats.PendingMetadata != 0 {
			t.Errorf("expected nothing pending, got %+v", stats)
		}

		a, _ := f.entries.GetByVideoID("a")
		if models.Deref(a.HelpfulComment) != trackList {
			t.Errorf("expected helpful comment on a, got %v", a.HelpfulComment)
		}

		if len(progress) == 0 {
			t.Error("expected progress updates")
		}
	})

	t.Run("inference order is highest position first", func(t *testing.T) {
		f := newFixture(t)
		completion := &tu.FakeCompletion{Default: `{"genres":["jazz"]}`}
		p := newPipeline(t, f, twoPageSource(), completion)

		if _, err := p.Run(ctx, false, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var order []string
		for _, messages := range completion.Messages {
			order = append(order, messages[1].Content[:len("title: Mix a")])
		}
		want := []string{"title: Mix c", "title: Mix b", "title: Mix a"}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("inference order = %v, want %v", order, want)
			}
		}
	})

	t.Run("failing entry does not block others", func(t *testing.T) {
		f := newFixture(t)
		completion := &tu.FakeCompletion{
			Replies:  map[string]string{"Mix b": "not json"},
			Failures: map[string]error{"Mix c": shared.ErrAPIRequest},
			Default:  `{"genres":["jazz"]}`,
		}
		p := newPipeline(t, f, twoPageSource(), completion)

		report, err := p.Run(ctx, false, nil)
		if !errors.Is(err, shared.ErrEnrichmentResponse) || !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected joined failures, got %v", err)
		}
		if report.Failed != 2 || report.Inferred != 1 {
			t.Errorf("unexpected report %+v", report)
		}

		a, _ := f.entries.GetByVideoID("a")
		if count, _ := f.genres.CountForEntry(a.ID); count != 1 {
			t.Errorf("expected a to be enriched, got %d genres", count)
		}

		stats, _ := f.entries.Stats()
		if stats.PendingMetadata != 2 {
			t.Errorf("expected failed entries to stay pending, got %d", stats.PendingMetadata)
		}
	})

	t.Run("partially linked entries are skipped", func(t *testing.T) {
		f := newFixture(t)
		entries := f.seed(t, "a")
		genre, err := f.genres.UpsertBySlug("jazz", "jazz")
		if err != nil {
			t.Fatalf("failed to seed genre: %v", err)
		}
		if err := f.genres.Link(entries[0].ID, genre.ID); err != nil {
			t.Fatalf("failed to link genre: %v", err)
		}

		completion := &tu.FakeCompletion{Default: `{"tracks":[{"title":"Waltz"}]}`}
		p := newPipeline(t, f, &tu.FakeSource{}, completion)

		report, err := p.Generate(ctx, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if completion.Calls() != 0 || report.Inferred != 0 {
			t.Errorf("expected no inference, got %d calls", completion.Calls())
		}
	})

	t.Run("sync failure aborts the run", func(t *testing.T) {
		f := newFixture(t)
		completion := &tu.FakeCompletion{Default: `{"genres":["jazz"]}`}
		source := twoPageSource()
		source.DetailErr = shared.ErrAPIRequest
		p := newPipeline(t, f, source, completion)

		report, err := p.Run(ctx, false, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected API error, got %v", err)
		}
		if completion.Calls() != 0 {
			t.Errorf("expected no inference after sync failure, got %d calls", completion.Calls())
		}
		if report.Pages != 1 || len(source.PageTokens) != 1 {
			t.Errorf("expected to stop on the first page, got %+v tokens %v", report, source.PageTokens)
		}
	})

	t.Run("without completion service", func(t *testing.T) {
		f := newFixture(t)
		p := newPipeline(t, f, twoPageSource(), nil)

		report, err := p.Run(ctx, false, nil)
		if err != nil {
			t.Fatalf("expected sync-only run to succeed, got %v", err)
		}
		if report.Synced != 3 || report.Inferred != 0 {
			t.Errorf("unexpected report %+v", report)
		}

		if _, err := p.Generate(ctx, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected %v, got %v", shared.ErrServiceUnavailable, err)
		}
	})

	t.Run("Sync skips inference", func(t *testing.T) {
		f := newFixture(t)
		completion := &tu.FakeCompletion{Default: `{"genres":["jazz"]}`}
		p := newPipeline(t, f, twoPageSource(), completion)

		report, err := p.Sync(ctx, true, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.FullScan || report.Synced != 3 || completion.Calls() != 0 {
			t.Errorf("unexpected report %+v with %d calls", report, completion.Calls())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, "a")
		completion := &tu.FakeCompletion{Default: `{"genres":["jazz"]}`}
		p := newPipeline(t, f, &tu.FakeSource{}, completion)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := p.Generate(ctx, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if completion.Calls() != 0 {
			t.Errorf("expected no calls, got %d", completion.Calls())
		}
	})
}
