// YouTube Data API v3 [PlaylistSource] implementation
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/shared"
)

const (
	// MaxPageSize is the largest page the playlistItems endpoint serves.
	MaxPageSize int64 = 50

	defaultSourceTimeout = 60 * time.Second
	commentOrder         = "relevance"
	commentsDisabled     = "commentsDisabled"
)

// YouTubeOpts configures a [YouTubeService].
type YouTubeOpts struct {
	APIKey            string
	Endpoint          string       // overrides the API base URL
	HTTPClient        *http.Client // base client; the API key is added to its transport
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables throttling
	Logger            *log.Logger
}

// YouTubeService implements [PlaylistSource] with the YouTube Data API.
type YouTubeService struct {
	api     *youtube.Service
	limiter *rate.Limiter
	timeout time.Duration
	logger  *log.Logger
}

// NewYouTubeService creates a YouTube Data API client authenticated with an API key.
func NewYouTubeService(ctx context.Context, opts YouTubeOpts) (*YouTubeService, error) {
	if opts.APIKey == "" && opts.HTTPClient == nil {
		return nil, fmt.Errorf("%w: google api key", shared.ErrMissingCredentials)
	}

	var clientOpts []option.ClientOption
	if opts.HTTPClient != nil {
		client := *opts.HTTPClient
		if opts.APIKey != "" {
			client.Transport = &transport.APIKey{Key: opts.APIKey, Transport: client.Transport}
		}
		clientOpts = append(clientOpts, option.WithHTTPClient(&client))
	} else {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	api, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &YouTubeService{
		api:     api,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// PlaylistItems fetches one page of playlist items.
func (s *YouTubeService) PlaylistItems(ctx context.Context, playlistID, pageToken string, pageSize int64) (*models.PlaylistPage, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var resp *youtube.PlaylistItemListResponse
	err := s.call(ctx, "playlistItems", func(ctx context.Context) error {
		call := s.api.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(playlistID).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var err error
		resp, err = call.Do()
		if hasStatus(err, http.StatusNotFound) {
			return fmt.Errorf("%w: %s: %w", shared.ErrPlaylistUnavailable, playlistID, err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	page := &models.PlaylistPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		converted, err := convertPlaylistItem(item)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, converted)
	}

	s.logger.Debug("fetched playlist page", "playlist", playlistID, "items", len(page.Items), "next", page.NextPageToken)
	return page, nil
}

// TopComments fetches up to limit top-level comments ordered by relevance.
func (s *YouTubeService) TopComments(ctx context.Context, videoID string, limit int64) ([]models.Comment, error) {
	var resp *youtube.CommentThreadListResponse
	err := s.call(ctx, "commentThreads", func(ctx context.Context) error {
		var err error
		resp, err = s.api.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(limit).
			Order(commentOrder).
			Context(ctx).
			Do()
		return err
	})
	if hasReason(err, http.StatusForbidden, commentsDisabled) {
		s.logger.Debug("comments disabled", "video", videoID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	for _, thread := range resp.Items {
		if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil || thread.Snippet.TopLevelComment.Snippet == nil {
			return nil, fmt.Errorf("%w: comment thread %s has no top-level comment", shared.ErrMalformedResponse, thread.Id)
		}
		snippet := thread.Snippet.TopLevelComment.Snippet
		comments = append(comments, models.Comment{Author: snippet.AuthorDisplayName, Text: snippet.TextOriginal})
	}

	return comments, nil
}

// VideoDetails fetches the content details and snippet of a single video.
func (s *YouTubeService) VideoDetails(ctx context.Context, videoID string) (*models.VideoDetails, error) {
	var resp *youtube.VideoListResponse
	err := s.call(ctx, "videos", func(ctx context.Context) error {
		var err error
		resp, err = s.api.Videos.List([]string{"contentDetails", "snippet"}).
			Id(videoID).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: video %s not found", shared.ErrMalformedResponse, videoID)
	}

	video := resp.Items[0]
	if video.ContentDetails == nil || video.Snippet == nil {
		return nil, fmt.Errorf("%w: video %s lacks content details or snippet", shared.ErrMalformedResponse, videoID)
	}

	return &models.VideoDetails{
		VideoID:     videoID,
		Duration:    video.ContentDetails.Duration,
		PublishedAt: video.Snippet.PublishedAt,
	}, nil
}

// call waits for the rate limiter and runs fn under the per-call timeout.
func (s *YouTubeService) call(ctx context.Context, endpoint string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, endpoint, err)
	}

	if err := fn(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, endpoint, err)
	}
	return nil
}

func convertPlaylistItem(item *youtube.PlaylistItem) (models.PlaylistItem, error) {
	if item.Snippet == nil || item.Snippet.ResourceId == nil {
		return models.PlaylistItem{}, fmt.Errorf("%w: playlist item %s has no snippet", shared.ErrMalformedResponse, item.Id)
	}

	snippet := item.Snippet
	var thumbnail string
	if snippet.Thumbnails != nil && snippet.Thumbnails.Default != nil {
		thumbnail = snippet.Thumbnails.Default.Url
	}

	return models.PlaylistItem{
		VideoID:      snippet.ResourceId.VideoId,
		Title:        snippet.Title,
		Description:  snippet.Description,
		Thumbnail:    thumbnail,
		Position:     snippet.Position,
		ChannelTitle: snippet.VideoOwnerChannelTitle,
		ChannelID:    snippet.VideoOwnerChannelId,
	}, nil
}

func hasStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// hasReason reports whether err is an API error with code listing reason.
func hasReason(err error, code int, reason string) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != code {
		return false
	}
	for _, item := range apiErr.Errors {
		if item.Reason == reason {
			return true
		}
	}
	return false
}
