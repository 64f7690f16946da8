// Package repositories implements SQLite persistence for the playlist catalog.
//
// Key Implementations:
//   - [EntryRepository] : Playlist entries keyed by video id, with the pending-work queries of the enrichment stages
//   - [GenreRepository] : Genres deduplicated by slug and their links to entries
//   - [SongRepository] : Songs deduplicated by slug and their timestamped links to entries
//
// Genre and song links are idempotent: linking an existing pair is a no-op.
// Lookups that find nothing return errors wrapping [shared.ErrNotFound].
package repositories
