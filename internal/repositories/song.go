package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/fuminsho/internal/models"
)

// SongRepository persists [models.Song] rows deduplicated by slug.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// GetBySlug retrieves a song by its slug
func (r *SongRepository) GetBySlug(slug string) (*models.Song, error) {
	var (
		song   models.Song
		title  sql.NullString
		artist sql.NullString
	)

	err := r.db.QueryRow(`SELECT id, title, artist, slug FROM songs WHERE slug = ?`, slug).
		Scan(&song.ID, &title, &artist, &song.Slug)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, notFound("song", slug)
	case err != nil:
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	song.Title = stringPtr(title)
	song.Artist = stringPtr(artist)
	return &song, nil
}

// UpsertBySlug looks the song up by slug and creates it when missing.
//
// An existing song gets its title and artist replaced.
func (r *SongRepository) UpsertBySlug(song *models.Song) (*models.Song, error) {
	if err := validate(song); err != nil {
		return nil, err
	}

	existing, err := r.GetBySlug(song.Slug)
	if err == nil {
		_, err := r.db.Exec(`UPDATE songs SET title = ?, artist = ? WHERE id = ?`,
			nullString(song.Title), nullString(song.Artist), existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update song %s: %w", song.Slug, err)
		}
		existing.Title, existing.Artist = song.Title, song.Artist
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	result, err := r.db.Exec(`INSERT INTO songs (title, artist, slug) VALUES (?, ?, ?)`,
		nullString(song.Title), nullString(song.Artist), song.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to insert song: %w", err)
	}

	created := *song
	if created.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read song id: %w", err)
	}
	return &created, nil
}

// Link attaches a song to an entry with an optional position label. Linking an existing pair is a no-op.
func (r *SongRepository) Link(entryID, songID int64, position *string) error {
	_, err := r.db.Exec(`INSERT OR IGNORE INTO entry_songs (entry_id, song_id, position) VALUES (?, ?, ?)`,
		entryID, songID, nullString(position))
	if err != nil {
		return fmt.Errorf("failed to link song %d to entry %d: %w", songID, entryID, err)
	}
	return nil
}

// CountForEntry returns the number of songs linked to an entry.
func (r *SongRepository) CountForEntry(entryID int64) (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM entry_songs WHERE entry_id = ?`, entryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}

// ListForEntry returns the songs linked to an entry in link order.
func (r *SongRepository) ListForEntry(entryID int64) ([]*models.EntrySong, error) {
	query := `
		SELECT s.id, s.title, s.artist, s.slug, es.position
		FROM songs s
		JOIN entry_songs es ON es.song_id = s.id
		WHERE es.entry_id = ?
		ORDER BY es.id ASC
	`

	rows, err := r.db.Query(query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.EntrySong
	for rows.Next() {
		var (
			song                    models.EntrySong
			title, artist, position sql.NullString
		)
		if err := rows.Scan(&song.ID, &title, &artist, &song.Slug, &position); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		song.Title = stringPtr(title)
		song.Artist = stringPtr(artist)
		song.Position = stringPtr(position)
		songs = append(songs, &song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}
