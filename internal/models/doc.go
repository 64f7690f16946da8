// Package models defines the catalog entities and the source/enrichment DTOs of the fuminsho pipeline.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs describing what external services return
//   - [PlaylistItem] : One membership item of the source playlist
//   - [PlaylistPage] : A page of items with its continuation token
//   - [Comment] : A top-level comment on a video
//   - [VideoDetails] : Raw duration and publish timestamp of a video
//   - [Metadata] / [Track] : Structured data inferred by the enrichment service
//
// 2. Persistent Entities: Rows of the SQLite catalog
//   - [PlaylistEntry] : A synchronized playlist item with its derived fields
//   - [Genre] : A genre deduplicated by slug
//   - [Song] : A song deduplicated by slug
//   - [EntrySong] : A song linked to an entry with its timestamp label
//
// Persistent entities implement [Model] so repositories can validate them before writing.
package models
