package tasks

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/services"
	"github.com/desertthunder/fuminsho/internal/shared"
)

const (
	// platformAuthor is the display name of the platform's own account.
	platformAuthor = "YouTube"
	// CommentLimit is the number of top comments inspected per video.
	CommentLimit int64 = 5
	minTrackLines      = 3
)

// trackLinePattern matches the "word - word" shape of a track list line.
var trackLinePattern = regexp.MustCompile(`[\p{L}\p{N}_]+ - [\p{L}\p{N}_]`)

// LooksLikeTrackList reports whether text has at least three "word - word" occurrences.
func LooksLikeTrackList(text string) bool {
	return len(trackLinePattern.FindAllStringIndex(text, minTrackLines)) >= minTrackLines
}

// FindHelpfulComment returns the first comment that looks like a track list and was not posted by
// the platform account, or "" when none qualifies.
func FindHelpfulComment(comments []models.Comment) string {
	for _, c := range comments {
		if c.Author != platformAuthor && LooksLikeTrackList(c.Text) {
			return c.Text
		}
	}
	return ""
}

// ParseVideoDetails parses the ISO-8601 duration and RFC 3339 publish timestamp of a video.
func ParseVideoDetails(details *models.VideoDetails) (time.Duration, time.Time, error) {
	duration, err := shared.ParseISODuration(details.Duration)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("video %s: %w", details.VideoID, err)
	}

	publishedAt, err := time.Parse(time.RFC3339, details.PublishedAt)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: video %s publishedAt %q: %v",
			shared.ErrMalformedResponse, details.VideoID, details.PublishedAt, err)
	}

	return duration, publishedAt, nil
}

// DetailEnricher fills the helpful comment, duration and publish date of synced entries.
//
// Both passes stop at the first failing entry. Entries handled before the failure keep their
// values, and the rest are picked up by the next run since their fields are still null.
type DetailEnricher struct {
	source  services.PlaylistSource
	entries EntryStore
	logger  *log.Logger
}

// NewDetailEnricher creates a DetailEnricher.
func NewDetailEnricher(source services.PlaylistSource, entries EntryStore, logger *log.Logger) *DetailEnricher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DetailEnricher{source: source, entries: entries, logger: logger}
}

// UpdateComments stores a helpful comment for each entry among videoIDs that has none yet.
// It returns the number of entries written.
func (d *DetailEnricher) UpdateComments(ctx context.Context, videoIDs []string, progress chan<- ProgressUpdate) (int, error) {
	pending, err := d.entries.ListPendingComments(videoIDs)
	if err != nil {
		return 0, err
	}

	for i, entry := range pending {
		sendProgress(progress, commentUpdate(i+1, len(pending), entry.VideoID))

		comments, err := d.source.TopComments(ctx, entry.VideoID, CommentLimit)
		if err != nil {
			return i, fmt.Errorf("failed to fetch comments for %s: %w", entry.VideoID, err)
		}

		helpful := FindHelpfulComment(comments)
		if err := d.entries.SetHelpfulComment(entry.VideoID, helpful); err != nil {
			return i, err
		}

		d.logger.Debug("stored helpful comment", "video", entry.VideoID, "found", helpful != "")
	}

	return len(pending), nil
}

// UpdateVideoDetails stores duration and publish date for each entry among videoIDs without a duration.
// It returns the number of entries written.
func (d *DetailEnricher) UpdateVideoDetails(ctx context.Context, videoIDs []string, progress chan<- ProgressUpdate) (int, error) {
	pending, err := d.entries.ListPendingDetails(videoIDs)
	if err != nil {
		return 0, err
	}

	for i, entry := range pending {
		sendProgress(progress, detailsUpdate(i+1, len(pending), entry.VideoID))

		details, err := d.source.VideoDetails(ctx, entry.VideoID)
		if err != nil {
			return i, fmt.Errorf("failed to fetch details for %s: %w", entry.VideoID, err)
		}

		duration, publishedAt, err := ParseVideoDetails(details)
		if err != nil {
			return i, err
		}

		if err := d.entries.SetDetails(entry.VideoID, duration, publishedAt); err != nil {
			return i, err
		}

		d.logger.Debug("stored video details", "video", entry.VideoID, "duration", duration)
	}

	return len(pending), nil
}
