package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/services"
	"github.com/desertthunder/fuminsho/internal/shared"
)

// removedTitles are the placeholder titles the platform gives to items that are no longer viewable.
var removedTitles = map[string]bool{
	"Deleted video": true,
	"Private video": true,
}

// FilterRemoved drops deleted and private items, keeping source order.
func FilterRemoved(items []models.PlaylistItem) []models.PlaylistItem {
	kept := make([]models.PlaylistItem, 0, len(items))
	for _, item := range items {
		if removedTitles[item.Title] {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// PageResult describes one synchronized page.
type PageResult struct {
	Number  int
	IDs     []string // video ids kept after filtering
	Created int
	Updated int
	Skipped int // removed or private items
}

// SyncOpts configures a [SyncEngine].
type SyncOpts struct {
	PlaylistID string
	TailMarker string // video id of the last entry of a prior full sync
	PageSize   int64

	// OnPage runs after each page is stored and before the next page is requested.
	OnPage func(ctx context.Context, page PageResult) error
	Logger *log.Logger
}

// SyncEngine pages through the source playlist and upserts entries keyed by video id.
type SyncEngine struct {
	source  services.PlaylistSource
	entries EntryStore
	opts    SyncOpts
	logger  *log.Logger
}

// NewSyncEngine creates a SyncEngine reading from source and writing to entries.
func NewSyncEngine(source services.PlaylistSource, entries EntryStore, opts SyncOpts) *SyncEngine {
	if opts.PageSize <= 0 || opts.PageSize > services.MaxPageSize {
		opts.PageSize = services.MaxPageSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SyncEngine{source: source, entries: entries, opts: opts, logger: logger}
}

// Synchronize fetches pages starting at resumeToken until the source runs out of pages or,
// unless fullScan is set, the incremental sync has caught up with stored data.
//
// It returns the video ids stored during the call in the order they were seen.
func (e *SyncEngine) Synchronize(ctx context.Context, resumeToken string, fullScan bool) ([]string, error) {
	var synced []string

	token := resumeToken
	for number := 1; ; number++ {
		if err := ctx.Err(); err != nil {
			return synced, err
		}

		e.logger.Info("fetching playlist page", "playlist", e.opts.PlaylistID, "page", number, "full_scan", fullScan)

		page, err := e.source.PlaylistItems(ctx, e.opts.PlaylistID, token, e.opts.PageSize)
		if err != nil {
			return synced, fmt.Errorf("failed to fetch page %d: %w", number, err)
		}

		kept := &models.PlaylistPage{Items: FilterRemoved(page.Items), NextPageToken: page.NextPageToken}
		result := PageResult{Number: number, IDs: kept.IDs(), Skipped: len(page.Items) - len(kept.Items)}

		// Evaluated against the stored order before this page is written.
		caughtUp, err := e.caughtUp(result.IDs, fullScan)
		if err != nil {
			return synced, err
		}

		if result.Created, result.Updated, err = e.upsert(kept.Items); err != nil {
			return synced, fmt.Errorf("failed to store page %d: %w", number, err)
		}
		synced = append(synced, result.IDs...)

		e.logger.Info("stored playlist page", "page", number, "created", result.Created, "updated", result.Updated, "skipped", result.Skipped)

		if e.opts.OnPage != nil {
			if err := e.opts.OnPage(ctx, result); err != nil {
				return synced, err
			}
		}

		if caughtUp {
			e.logger.Info("incremental sync caught up", "page", number)
			return synced, nil
		}
		if page.NextPageToken == "" {
			return synced, nil
		}
		token = page.NextPageToken
	}
}

// caughtUp reports whether pagination can stop: the first stored entry is on this page, the run
// is incremental and the last stored entry is the configured tail marker.
func (e *SyncEngine) caughtUp(pageIDs []string, fullScan bool) (bool, error) {
	if fullScan {
		return false, nil
	}

	first, err := e.entries.FirstVideoID()
	if err != nil {
		return false, err
	}
	if first == "" || !slices.Contains(pageIDs, first) {
		return false, nil
	}

	last, err := e.entries.LastVideoID()
	if err != nil {
		return false, err
	}
	return last != "" && last == e.opts.TailMarker, nil
}

// upsert overwrites the source fields of stored entries and inserts the rest in one batch.
func (e *SyncEngine) upsert(items []models.PlaylistItem) (created, updated int, err error) {
	if len(items) == 0 {
		e.logger.Info("no items to store", "playlist", e.opts.PlaylistID)
		return 0, 0, nil
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.VideoID
	}

	existing, err := e.entries.GetByVideoIDs(ids)
	if err != nil {
		return 0, 0, err
	}

	var creates []*models.PlaylistEntry
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.VideoID] {
			continue
		}
		seen[item.VideoID] = true

		entry := entryFromItem(item)
		if _, ok := existing[item.VideoID]; ok {
			e.logger.Debug("updating entry", "video", item.VideoID)
			if err := e.entries.UpdateSource(entry); err != nil {
				return created, updated, err
			}
			updated++
			continue
		}

		e.logger.Debug("adding entry", "video", item.VideoID)
		creates = append(creates, entry)
	}

	if err := e.entries.CreateBatch(creates); err != nil {
		return 0, updated, err
	}

	return len(creates), updated, nil
}

func entryFromItem(item models.PlaylistItem) *models.PlaylistEntry {
	position := item.Position
	thumbnail := item.Thumbnail
	return &models.PlaylistEntry{
		VideoID:      item.VideoID,
		Title:        item.Title,
		Description:  item.Description,
		Thumbnail:    &thumbnail,
		Position:     &position,
		ChannelTitle: item.ChannelTitle,
		ChannelID:    item.ChannelID,
	}
}
