package tasks

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/repositories"
	"github.com/desertthunder/fuminsho/internal/shared"
	tu "github.com/desertthunder/fuminsho/internal/testing"
)

type fixture struct {
	entries *repositories.EntryRepository
	genres  *repositories.GenreRepository
	songs   *repositories.SongRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := tu.NewTestDB(t)
	return fixture{
		entries: repositories.NewEntryRepository(db),
		genres:  repositories.NewGenreRepository(db),
		songs:   repositories.NewSongRepository(db),
	}
}

// seed stores entries for videoIDs with positions matching their index.
func (f fixture) seed(t *testing.T, videoIDs ...string) []*models.PlaylistEntry {
	t.Helper()

	entries := make([]*models.PlaylistEntry, len(videoIDs))
	for i, id := range videoIDs {
		entries[i] = entryFromItem(item(id, int64(i)))
	}
	if err := f.entries.CreateBatch(entries); err != nil {
		t.Fatalf("failed to seed entries: %v", err)
	}
	return entries
}

func item(videoID string, position int64) models.PlaylistItem {
	return models.PlaylistItem{
		VideoID:      videoID,
		Title:        "Mix " + videoID,
		Description:  "description of " + videoID,
		Thumbnail:    "https://i.ytimg.com/vi/" + videoID + "/default.jpg",
		Position:     position,
		ChannelTitle: "channel",
		ChannelID:    "UC1",
	}
}

func page(next string, items ...models.PlaylistItem) *models.PlaylistPage {
	return &models.PlaylistPage{Items: items, NextPageToken: next}
}

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func TestPhase(t *testing.T) {
	tc := map[Phase]string{
		SyncPage:      "sync_page",
		FetchComments: "fetch_comments",
		FetchDetails:  "fetch_details",
		InferMetadata: "infer_metadata",
		Reconcile:     "reconcile",
		Phase(99):     "",
	}
	for phase, want := range tc {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}

func TestSendProgress(t *testing.T) {
	t.Run("nil channel", func(t *testing.T) {
		sendProgress(nil, ProgressUpdate{})
	})

	t.Run("full channel does not block", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		sendProgress(ch, ProgressUpdate{Message: "first"})
		sendProgress(ch, ProgressUpdate{Message: "second"})

		if got := <-ch; got.Message != "first" {
			t.Errorf("expected first update, got %q", got.Message)
		}
	})
}
