// package tasks implements the playlist ingestion and metadata-enrichment pipeline.
package tasks

import (
	"time"

	"github.com/desertthunder/fuminsho/internal/models"
)

// EntryStore persists playlist entries. Implemented by [repositories.EntryRepository].
type EntryStore interface {
	GetByVideoIDs(videoIDs []string) (map[string]*models.PlaylistEntry, error)
	CreateBatch(entries []*models.PlaylistEntry) error
	UpdateSource(entry *models.PlaylistEntry) error
	FirstVideoID() (string, error)
	LastVideoID() (string, error)
	ListPendingComments(videoIDs []string) ([]*models.PlaylistEntry, error)
	ListPendingDetails(videoIDs []string) ([]*models.PlaylistEntry, error)
	SetHelpfulComment(videoID, comment string) error
	SetDetails(videoID string, duration time.Duration, publishedAt time.Time) error
	ListPendingMetadata() ([]*models.PlaylistEntry, error)
}

// GenreStore persists genres and their entry links. Implemented by [repositories.GenreRepository].
type GenreStore interface {
	UpsertBySlug(name, slug string) (*models.Genre, error)
	Link(entryID, genreID int64) error
	CountForEntry(entryID int64) (int, error)
}

// SongStore persists songs and their entry links. Implemented by [repositories.SongRepository].
type SongStore interface {
	UpsertBySlug(song *models.Song) (*models.Song, error)
	Link(entryID, songID int64, position *string) error
	CountForEntry(entryID int64) (int, error)
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
