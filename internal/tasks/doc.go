// Package tasks implements the playlist ingestion and metadata-enrichment pipeline.
//
// # Stages
//
//  1. [SyncEngine.Synchronize] : Page through the source playlist
//     - Drops deleted and private items
//     - Overwrites the source fields of known entries, inserts new ones in one batch
//     - Stops early once an incremental sync reaches stored data and the stored tail matches the configured marker
//
//  2. [DetailEnricher] : Fill derived fields of each synced page
//     - Helpful comment: first top comment that looks like a track list, "" when none qualifies
//     - Duration and publish date from the video details
//
//  3. [InferenceEngine.Infer] : Ask a language model for genres and tracks
//     - Output is untrusted and parsed leniently by [ParseMetadata]
//
//  4. [Reconciler] : Store inferred data as slug-deduplicated genres and songs
//     - Genre names are folded through an ordered synonym table before slugging
//     - Links are only written for entries without links of that kind
//
// # Pipeline
//
// [Pipeline] wires the stages for one run. Sync and detail failures abort the run; inference
// failures are logged per entry and joined into the returned error once every entry was tried.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select with default to
// prevent blocking.
package tasks
