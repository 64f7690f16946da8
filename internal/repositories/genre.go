package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/fuminsho/internal/models"
)

// GenreRepository persists [models.Genre] rows deduplicated by slug.
type GenreRepository struct {
	db *sql.DB
}

// NewGenreRepository creates a new GenreRepository with the given database connection
func NewGenreRepository(db *sql.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

// GetBySlug retrieves a genre by its slug
func (r *GenreRepository) GetBySlug(slug string) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.QueryRow(`SELECT id, name, slug FROM genres WHERE slug = ?`, slug).
		Scan(&genre.ID, &genre.Name, &genre.Slug)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, notFound("genre", slug)
	case err != nil:
		return nil, fmt.Errorf("failed to scan genre: %w", err)
	}
	return &genre, nil
}

// UpsertBySlug looks the genre up by slug and creates it when missing.
//
// An existing genre gets its name replaced by name.
func (r *GenreRepository) UpsertBySlug(name, slug string) (*models.Genre, error) {
	genre := &models.Genre{Name: name, Slug: slug}
	if err := validate(genre); err != nil {
		return nil, err
	}

	existing, err := r.GetBySlug(slug)
	if err == nil {
		if existing.Name != name {
			if _, err := r.db.Exec(`UPDATE genres SET name = ? WHERE id = ?`, name, existing.ID); err != nil {
				return nil, fmt.Errorf("failed to rename genre %s: %w", slug, err)
			}
			existing.Name = name
		}
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	result, err := r.db.Exec(`INSERT INTO genres (name, slug) VALUES (?, ?)`, name, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to insert genre: %w", err)
	}

	if genre.ID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read genre id: %w", err)
	}
	return genre, nil
}

// Link attaches a genre to an entry. Linking an existing pair is a no-op.
func (r *GenreRepository) Link(entryID, genreID int64) error {
	_, err := r.db.Exec(`INSERT OR IGNORE INTO entry_genres (entry_id, genre_id) VALUES (?, ?)`, entryID, genreID)
	if err != nil {
		return fmt.Errorf("failed to link genre %d to entry %d: %w", genreID, entryID, err)
	}
	return nil
}

// CountForEntry returns the number of genres linked to an entry.
func (r *GenreRepository) CountForEntry(entryID int64) (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM entry_genres WHERE entry_id = ?`, entryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count genres: %w", err)
	}
	return count, nil
}

// ListForEntry returns the genres linked to an entry ordered by name.
func (r *GenreRepository) ListForEntry(entryID int64) ([]*models.Genre, error) {
	query := `
		SELECT g.id, g.name, g.slug
		FROM genres g
		JOIN entry_genres eg ON eg.genre_id = g.id
		WHERE eg.entry_id = ?
		ORDER BY g.name ASC
	`

	rows, err := r.db.Query(query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	var genres []*models.Genre
	for rows.Next() {
		var genre models.Genre
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, &genre)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return genres, nil
}
