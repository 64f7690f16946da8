package tasks

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/shared"
)

type genreSynonym struct {
	pattern     string
	replacement string
}

// genreSynonyms folds common spellings into canonical forms. Order matters: replacements are
// applied one after another on the lower-cased name.
var genreSynonyms = []genreSynonym{
	{pattern: "#", replacement: ""},
	{pattern: "lofi", replacement: "lo-fi"},
	{pattern: "lo fi", replacement: "lo-fi"},
	{pattern: "hiphop", replacement: "hip-hop"},
	{pattern: "hip hop", replacement: "hip-hop"},
	{pattern: "r&b", replacement: "rnb"},
}

// NormalizeGenre trims and lower-cases name and folds known synonyms.
func NormalizeGenre(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, s := range genreSynonyms {
		normalized = strings.ReplaceAll(normalized, s.pattern, s.replacement)
	}
	return normalized
}

// GenreSlug returns the dedup key of a normalized genre name.
func GenreSlug(normalized string) string {
	return shared.SlugOrHash(normalized)
}

// SongSlug returns the dedup key of a track, derived from "<artist> <title>".
func SongSlug(track models.Track) string {
	return shared.SlugOrHash(models.Deref(track.Artist) + " " + models.Deref(track.Title))
}

// ReconcileResult counts the links written for an entry.
type ReconcileResult struct {
	Genres int
	Songs  int
}

// Reconciler writes inferred metadata as slug-deduplicated genres and songs linked to an entry.
type Reconciler struct {
	genres GenreStore
	songs  SongStore
	logger *log.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(genres GenreStore, songs SongStore, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{genres: genres, songs: songs, logger: logger}
}

// Apply links the genres and tracks of metadata to entry.
func (r *Reconciler) Apply(entry *models.PlaylistEntry, metadata *models.Metadata) (ReconcileResult, error) {
	var result ReconcileResult
	if metadata.IsEmpty() {
		r.logger.Debug("no metadata to apply", "video", entry.VideoID)
		return result, nil
	}

	var err error
	if result.Genres, err = r.ApplyGenres(entry, metadata.Genres); err != nil {
		return result, err
	}
	if result.Songs, err = r.ApplyTracks(entry, metadata.Tracks); err != nil {
		return result, err
	}
	return result, nil
}

// ApplyGenres links genres to entry when it has no genre links yet. It returns the number of
// distinct genres linked. Names that normalize to "" are skipped.
func (r *Reconciler) ApplyGenres(entry *models.PlaylistEntry, genres []string) (int, error) {
	if len(genres) == 0 {
		return 0, nil
	}

	count, err := r.genres.CountForEntry(entry.ID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		r.logger.Debug("entry already has genres", "video", entry.VideoID)
		return 0, nil
	}

	linked := 0
	seen := make(map[string]bool, len(genres))
	for _, name := range genres {
		normalized := NormalizeGenre(name)
		slug := GenreSlug(normalized)
		if normalized == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		genre, err := r.genres.UpsertBySlug(normalized, slug)
		if err != nil {
			return linked, err
		}
		if err := r.genres.Link(entry.ID, genre.ID); err != nil {
			return linked, err
		}
		linked++
	}

	r.logger.Info("updated genres", "video", entry.VideoID, "genres", strings.Join(genres, ", "))
	return linked, nil
}

// ApplyTracks links tracks to entry as songs when it has no song links yet. It returns the
// number of distinct songs linked; a repeated song keeps its first timestamp.
func (r *Reconciler) ApplyTracks(entry *models.PlaylistEntry, tracks []models.Track) (int, error) {
	if len(tracks) == 0 {
		return 0, nil
	}

	count, err := r.songs.CountForEntry(entry.ID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		r.logger.Debug("entry already has songs", "video", entry.VideoID)
		return 0, nil
	}

	linked := 0
	seen := make(map[string]bool, len(tracks))
	for _, track := range tracks {
		slug := SongSlug(track)
		if seen[slug] {
			continue
		}
		seen[slug] = true

		song, err := r.songs.UpsertBySlug(&models.Song{
			Title:  track.Title,
			Artist: track.Artist,
			Slug:   slug,
		})
		if err != nil {
			return linked, err
		}
		if err := r.songs.Link(entry.ID, song.ID, track.Timestamp); err != nil {
			return linked, err
		}
		linked++

		r.logger.Debug("linked song", "video", entry.VideoID, "artist", models.Deref(track.Artist), "title", models.Deref(track.Title))
	}

	r.logger.Info("updated tracks", "video", entry.VideoID, "tracks", linked)
	return linked, nil
}
