package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/repositories"
	"github.com/desertthunder/fuminsho/internal/shared"
	tu "github.com/desertthunder/fuminsho/internal/testing"
)

func testConfig() *shared.Config {
	config := shared.DefaultConfig()
	config.Playlist.ID = "PL123"
	config.Schedule.Timezone = "UTC"
	return config
}

func testSource() *tu.FakeSource {
	return &tu.FakeSource{
		Pages: map[string]*models.PlaylistPage{
			"": {Items: []models.PlaylistItem{
				{VideoID: "a", Title: "Mix a", Position: 0},
				{VideoID: "b", Title: "Mix b", Position: 1},
				{VideoID: "gone", Title: "Private video", Position: 2},
			}},
		},
	}
}

// run executes args against a root command built from runner.
func run(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:      "fuminsho",
		Commands:  runner.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return app.Run(context.Background(), append([]string{"fuminsho"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			source := &tu.FakeSource{}
			completion := &tu.FakeCompletion{}
			db := tu.NewTestDB(t)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				Source:     source,
				Completion: completion,
				DB:         db,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.source != source {
				t.Error("expected source to be set")
			}
			if runner.completion != completion {
				t.Error("expected completion to be set")
			}
			if runner.db != db {
				t.Error("expected db to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("next"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result := output.String(); result != "\nnext\n" {
				t.Errorf("unexpected output %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		var names []string
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}

		if got := strings.Join(names, ","); got != "setup,sync,infer,schedule,stats,export" {
			t.Errorf("unexpected commands %s", got)
		}
	})
}

func TestCommands(t *testing.T) {
	newRunner := func(t *testing.T, completion *tu.FakeCompletion) (*Runner, *bytes.Buffer, *tu.FakeSource) {
		output := &bytes.Buffer{}
		source := testSource()
		opts := RunnerOpts{
			Config: testConfig(),
			Source: source,
			DB:     tu.NewTestDB(t),
			Logger: shared.NewLogger(io.Discard),
			Output: output,
		}
		if completion != nil {
			opts.Completion = completion
		}
		return NewRunner(opts), output, source
	}

	t.Run("sync", func(t *testing.T) {
		completion := &tu.FakeCompletion{Default: `{"genres":["jazz"],"tracks":[{"title":"Nujabes - Aruarian Dance"}]}`}
		runner, output, _ := newRunner(t, completion)

		if err := run(t, runner, "sync"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		out := output.String()
		for _, want := range []string{"Page 1", "Run Report", "Inferred"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}

		if completion.Calls() != 2 {
			t.Errorf("expected 2 completion calls, got %d", completion.Calls())
		}

		stats, err := repositories.NewEntryRepository(runner.db).Stats()
		if err != nil {
			t.Fatalf("failed to read stats: %v", err)
		}
		if stats.Entries != 2 || stats.Genres != 1 || stats.Songs != 1 || stats.PendingMetadata != 0 {
			t.Errorf("unexpected catalog %+v", stats)
		}
	})

	t.Run("sync --skip-infer --quiet", func(t *testing.T) {
		completion := &tu.FakeCompletion{Default: `{"genres":["jazz"]}`}
		runner, output, _ := newRunner(t, completion)

		if err := run(t, runner, "sync", "--skip-infer", "--quiet"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if completion.Calls() != 0 {
			t.Errorf("expected no inference, got %d calls", completion.Calls())
		}
		if strings.Contains(output.String(), "Page 1") {
			t.Errorf("expected no progress output, got %q", output.String())
		}
		if !strings.Contains(output.String(), "Run Report") {
			t.Errorf("expected report, got %q", output.String())
		}
	})

	t.Run("sync without enrichment credentials", func(t *testing.T) {
		runner, output, _ := newRunner(t, nil)

		if err := run(t, runner, "sync", "--quiet"); err != nil {
			t.Fatalf("expected sync-only run, got %v", err)
		}
		if !strings.Contains(output.String(), "Synced") {
			t.Errorf("expected report, got %q", output.String())
		}
	})

	t.Run("sync reports source failure", func(t *testing.T) {
		runner, output, source := newRunner(t, nil)
		source.PageErr = shared.ErrAPIRequest

		if err := run(t, runner, "sync", "--quiet"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected API error, got %v", err)
		}
		if !strings.Contains(output.String(), "API request failed") {
			t.Errorf("expected error in report, got %q", output.String())
		}
	})

	t.Run("sync without source credentials", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Config: testConfig(),
			DB:     tu.NewTestDB(t),
			Logger: shared.NewLogger(io.Discard),
			Output: io.Discard,
		})

		if err := run(t, runner, "sync"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected %v, got %v", shared.ErrMissingCredentials, err)
		}
	})

	t.Run("infer requires enrichment credentials", func(t *testing.T) {
		runner, _, _ := newRunner(t, nil)

		if err := run(t, runner, "infer"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected %v, got %v", shared.ErrMissingCredentials, err)
		}
	})

	t.Run("infer after sync", func(t *testing.T) {
		completion := &tu.FakeCompletion{Default: `{"genres":["soul"]}`}
		runner, _, source := newRunner(t, completion)

		if err := run(t, runner, "sync", "--skip-infer", "--quiet"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if err := run(t, runner, "infer", "--quiet"); err != nil {
			t.Fatalf("infer failed: %v", err)
		}

		if completion.Calls() != 2 {
			t.Errorf("expected 2 completion calls, got %d", completion.Calls())
		}
		if len(source.PageTokens) != 1 {
			t.Errorf("expected infer not to touch the source, got %v", source.PageTokens)
		}
	})

	t.Run("schedule --once", func(t *testing.T) {
		runner, _, source := newRunner(t, nil)

		if err := run(t, runner, "schedule", "--once", "--full"); err != nil {
			t.Fatalf("schedule failed: %v", err)
		}
		if len(source.PageTokens) != 1 {
			t.Errorf("expected one page request, got %v", source.PageTokens)
		}
	})

	t.Run("schedule with bad timezone", func(t *testing.T) {
		runner, _, _ := newRunner(t, nil)
		runner.config.Schedule.Timezone = "Nowhere/Special"

		if err := run(t, runner, "schedule", "--once"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected %v, got %v", shared.ErrInvalidConfig, err)
		}
	})

	t.Run("stats", func(t *testing.T) {
		runner, output, _ := newRunner(t, nil)

		if err := run(t, runner, "sync", "--quiet"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		output.Reset()

		if err := run(t, runner, "stats"); err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		for _, want := range []string{"Catalog", "Entries", "2", "Pending metadata"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("stats missing %q:\n%s", want, output.String())
			}
		}
	})

	t.Run("export", func(t *testing.T) {
		runner, output, _ := newRunner(t, nil)
		path := filepath.Join(t.TempDir(), "catalog.csv")

		if err := run(t, runner, "sync", "--quiet"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if err := run(t, runner, "export", "--output", path); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "https://youtu.be/a") || strings.Contains(content, "gone") {
			t.Errorf("unexpected export:\n%s", content)
		}
		if !strings.Contains(output.String(), "Exported 2 entries") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("setup", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "catalog.db")

		if err := os.WriteFile(configPath, []byte("[database]\npath = \""+filepath.ToSlash(dbPath)+"\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})

		if err := run(t, runner, "setup", "--config", configPath); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}
