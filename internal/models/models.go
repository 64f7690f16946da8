// package models defines the data model for the playlist catalog
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/fuminsho/internal/shared"
)

// ShortLinkBase prefixes a video id to build a shareable link.
const ShortLinkBase = "https://youtu.be/"

// Model defines the base interface for all persistent models in the catalog.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// PlaylistEntry is a synchronized playlist item.
//
// Nullable columns are pointers. HelpfulComment distinguishes nil (not fetched yet) from ""
// (fetched, nothing qualified).
type PlaylistEntry struct {
	ID             int64
	VideoID        string
	Title          string
	Description    string
	PublishedAt    *time.Time
	Thumbnail      *string
	Position       *int64
	ChannelTitle   string
	ChannelID      string
	Duration       *time.Duration
	FetchedAt      time.Time
	HelpfulComment *string
	IsFavorite     bool
}

// Link returns the short watch URL of the entry's video.
func (e *PlaylistEntry) Link() string {
	return ShortLinkBase + e.VideoID
}

func (e *PlaylistEntry) Validate() error {
	if strings.TrimSpace(e.VideoID) == "" {
		return fmt.Errorf("%w: video id is required", shared.ErrValidation)
	}
	if e.Position != nil && *e.Position < 0 {
		return fmt.Errorf("%w: position must not be negative", shared.ErrValidation)
	}
	return nil
}

// Genre is identified by its slug; Name holds the latest normalized spelling.
type Genre struct {
	ID   int64
	Name string
	Slug string
}

func (g *Genre) Validate() error {
	if g.Name == "" || g.Slug == "" {
		return fmt.Errorf("%w: genre name and slug are required", shared.ErrValidation)
	}
	return nil
}

// Song is identified by a slug derived from its artist and title.
type Song struct {
	ID     int64
	Title  *string
	Artist *string
	Slug   string
}

func (s *Song) Validate() error {
	if s.Slug == "" {
		return fmt.Errorf("%w: song slug is required", shared.ErrValidation)
	}
	return nil
}

// EntrySong is a song linked to an entry with an optional free-text position such as "03:25".
type EntrySong struct {
	Song
	Position *string
}

// CatalogStats summarizes the catalog and the work left for the enrichment stages.
type CatalogStats struct {
	Entries         int
	Favorites       int
	Genres          int
	Songs           int
	PendingComments int
	PendingDetails  int
	PendingMetadata int
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Deref returns the value behind s or "" when s is nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
