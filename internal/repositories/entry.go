package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/fuminsho/internal/models"
)

const entryColumns = `id, video_id, title, description, published_at, thumbnails, position,
	video_owner_channel_title, video_owner_channel_id, duration, fetched_at, helpful_comment, is_favorite`

// lacksAnyLink matches entries with no genre link and no song link.
const lacksAnyLink = `NOT EXISTS (SELECT 1 FROM entry_genres g WHERE g.entry_id = e.id)
	AND NOT EXISTS (SELECT 1 FROM entry_songs s WHERE s.entry_id = e.id)`

// lacksSomeLink matches entries missing genre links or song links.
const lacksSomeLink = `NOT EXISTS (SELECT 1 FROM entry_genres g WHERE g.entry_id = e.id)
	OR NOT EXISTS (SELECT 1 FROM entry_songs s WHERE s.entry_id = e.id)`

// EntryRepository persists [models.PlaylistEntry] rows keyed by video id.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new EntryRepository with the given database connection
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// CreateBatch inserts new entries in a single transaction and sets their IDs.
//
// Entries without a FetchedAt get the current time.
func (r *EntryRepository) CreateBatch(entries []*models.PlaylistEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for _, entry := range entries {
		if err := validate(entry); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO playlist_entries (video_id, title, description, published_at, thumbnails, position,
			video_owner_channel_title, video_owner_channel_id, duration, fetched_at, helpful_comment, is_favorite)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	return inTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare entry insert: %w", err)
		}
		defer stmt.Close()

		for _, entry := range entries {
			if entry.FetchedAt.IsZero() {
				entry.FetchedAt = now
			}

			result, err := stmt.Exec(
				entry.VideoID,
				entry.Title,
				entry.Description,
				nullTime(entry.PublishedAt),
				nullString(entry.Thumbnail),
				nullInt64(entry.Position),
				entry.ChannelTitle,
				entry.ChannelID,
				nullSeconds(entry.Duration),
				entry.FetchedAt,
				nullString(entry.HelpfulComment),
				entry.IsFavorite,
			)
			if err != nil {
				return fmt.Errorf("failed to insert entry %s: %w", entry.VideoID, err)
			}

			id, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to read entry id: %w", err)
			}
			entry.ID = id
		}
		return nil
	})
}

// UpdateSource overwrites the source-provided fields of an existing entry.
//
// fetched_at, is_favorite and the enrichment fields are left untouched.
func (r *EntryRepository) UpdateSource(entry *models.PlaylistEntry) error {
	if err := validate(entry); err != nil {
		return err
	}

	query := `
		UPDATE playlist_entries
		SET title = ?, description = ?, thumbnails = ?, position = ?,
			video_owner_channel_title = ?, video_owner_channel_id = ?
		WHERE video_id = ?
	`

	result, err := r.db.Exec(query,
		entry.Title,
		entry.Description,
		nullString(entry.Thumbnail),
		nullInt64(entry.Position),
		entry.ChannelTitle,
		entry.ChannelID,
		entry.VideoID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound("entry", entry.VideoID)
	}

	return nil
}

// Get retrieves an entry by its internal ID
func (r *EntryRepository) Get(id int64) (*models.PlaylistEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM playlist_entries WHERE id = ?`

	entry, err := scanEntry(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("entry", fmt.Sprint(id))
	}
	return entry, err
}

// GetByVideoID retrieves an entry by its external video id
func (r *EntryRepository) GetByVideoID(videoID string) (*models.PlaylistEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM playlist_entries WHERE video_id = ?`

	entry, err := scanEntry(r.db.QueryRow(query, videoID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("entry", videoID)
	}
	return entry, err
}

// GetByVideoIDs returns the stored entries among videoIDs, keyed by video id.
func (r *EntryRepository) GetByVideoIDs(videoIDs []string) (map[string]*models.PlaylistEntry, error) {
	found := make(map[string]*models.PlaylistEntry)
	if len(videoIDs) == 0 {
		return found, nil
	}

	placeholders, args := inClause(videoIDs)
	query := `SELECT ` + entryColumns + ` FROM playlist_entries WHERE video_id IN (` + placeholders + `)`

	entries, err := r.list(query, args...)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		found[entry.VideoID] = entry
	}
	return found, nil
}

// FirstVideoID returns the video id of the first entry in stored order (position ascending).
//
// An empty catalog yields "".
func (r *EntryRepository) FirstVideoID() (string, error) {
	return r.edgeVideoID(`ORDER BY position ASC NULLS LAST, id ASC`)
}

// LastVideoID returns the video id of the last entry in stored order.
//
// An empty catalog yields "".
func (r *EntryRepository) LastVideoID() (string, error) {
	return r.edgeVideoID(`ORDER BY position DESC NULLS FIRST, id DESC`)
}

func (r *EntryRepository) edgeVideoID(order string) (string, error) {
	var videoID string
	err := r.db.QueryRow(`SELECT video_id FROM playlist_entries ` + order + ` LIMIT 1`).Scan(&videoID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to query stored order: %w", err)
	}
	return videoID, nil
}

// List returns every entry in playlist order.
func (r *EntryRepository) List() ([]*models.PlaylistEntry, error) {
	return r.list(`SELECT ` + entryColumns + ` FROM playlist_entries ORDER BY position ASC NULLS LAST, id ASC`)
}

// ListPendingComments returns entries among videoIDs whose helpful comment has not been fetched.
func (r *EntryRepository) ListPendingComments(videoIDs []string) ([]*models.PlaylistEntry, error) {
	return r.listPending("helpful_comment IS NULL", videoIDs)
}

// ListPendingDetails returns entries among videoIDs whose duration has not been fetched.
func (r *EntryRepository) ListPendingDetails(videoIDs []string) ([]*models.PlaylistEntry, error) {
	return r.listPending("duration IS NULL", videoIDs)
}

func (r *EntryRepository) listPending(condition string, videoIDs []string) ([]*models.PlaylistEntry, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}

	placeholders, args := inClause(videoIDs)
	query := `SELECT ` + entryColumns + ` FROM playlist_entries
		WHERE ` + condition + ` AND video_id IN (` + placeholders + `)
		ORDER BY position ASC, id ASC`

	return r.list(query, args...)
}

// ListPendingMetadata returns entries lacking genre links or song links, highest position first.
func (r *EntryRepository) ListPendingMetadata() ([]*models.PlaylistEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM playlist_entries e
		WHERE ` + lacksSomeLink + `
		ORDER BY position DESC, id DESC`

	return r.list(query)
}

// SetHelpfulComment stores the helpful comment of an entry. "" records that none qualified.
func (r *EntryRepository) SetHelpfulComment(videoID, comment string) error {
	return r.exec(videoID, `UPDATE playlist_entries SET helpful_comment = ? WHERE video_id = ?`, comment, videoID)
}

// SetDetails stores the duration and publish timestamp of an entry together.
func (r *EntryRepository) SetDetails(videoID string, duration time.Duration, publishedAt time.Time) error {
	return r.exec(videoID,
		`UPDATE playlist_entries SET duration = ?, published_at = ? WHERE video_id = ?`,
		nullSeconds(&duration), publishedAt.UTC(), videoID,
	)
}

// Stats counts the catalog and the entries still waiting on each enrichment stage.
func (r *EntryRepository) Stats() (*models.CatalogStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM playlist_entries),
			(SELECT COUNT(*) FROM playlist_entries WHERE is_favorite = 1),
			(SELECT COUNT(*) FROM genres),
			(SELECT COUNT(*) FROM songs),
			(SELECT COUNT(*) FROM playlist_entries WHERE helpful_comment IS NULL),
			(SELECT COUNT(*) FROM playlist_entries WHERE duration IS NULL),
			(SELECT COUNT(*) FROM playlist_entries e WHERE ` + lacksAnyLink + `)
	`

	var stats models.CatalogStats
	err := r.db.QueryRow(query).Scan(
		&stats.Entries,
		&stats.Favorites,
		&stats.Genres,
		&stats.Songs,
		&stats.PendingComments,
		&stats.PendingDetails,
		&stats.PendingMetadata,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to collect catalog stats: %w", err)
	}

	return &stats, nil
}

func (r *EntryRepository) exec(videoID, query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update entry %s: %w", videoID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound("entry", videoID)
	}
	return nil
}

// list collects all rows before returning so callers can issue follow-up queries on a single connection.
func (r *EntryRepository) list(query string, args ...any) ([]*models.PlaylistEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.PlaylistEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEntry scans a row into a [models.PlaylistEntry]. [sql.ErrNoRows] is returned unwrapped.
func scanEntry(row scanner) (*models.PlaylistEntry, error) {
	var (
		entry          models.PlaylistEntry
		publishedAt    sql.NullTime
		thumbnail      sql.NullString
		position       sql.NullInt64
		duration       sql.NullInt64
		helpfulComment sql.NullString
	)

	err := row.Scan(
		&entry.ID,
		&entry.VideoID,
		&entry.Title,
		&entry.Description,
		&publishedAt,
		&thumbnail,
		&position,
		&entry.ChannelTitle,
		&entry.ChannelID,
		&duration,
		&entry.FetchedAt,
		&helpfulComment,
		&entry.IsFavorite,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	if publishedAt.Valid {
		entry.PublishedAt = &publishedAt.Time
	}
	if position.Valid {
		entry.Position = &position.Int64
	}
	if duration.Valid {
		d := time.Duration(duration.Int64) * time.Second
		entry.Duration = &d
	}
	entry.Thumbnail = stringPtr(thumbnail)
	entry.HelpfulComment = stringPtr(helpfulComment)

	return &entry, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

// nullSeconds stores a duration as whole seconds.
func nullSeconds(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(d.Round(time.Second) / time.Second), Valid: true}
}
