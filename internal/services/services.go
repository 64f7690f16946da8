// package services defines the playlist source and completion service collaborators
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/shared"
)

// PlaylistSource reads a playlist and per-video details from the video platform.
type PlaylistSource interface {
	// PlaylistItems fetches one page of playlist items. An empty pageToken requests the first page.
	PlaylistItems(ctx context.Context, playlistID, pageToken string, pageSize int64) (*models.PlaylistPage, error)

	// TopComments fetches up to limit top-level comments ordered by relevance.
	// Videos with comments disabled yield no comments and no error.
	TopComments(ctx context.Context, videoID string, limit int64) ([]models.Comment, error)

	// VideoDetails fetches the raw duration and publish timestamp of a video.
	VideoDetails(ctx context.Context, videoID string) (*models.VideoDetails, error)
}

// CompletionService sends a chat conversation to a language model and returns its reply.
type CompletionService interface {
	Complete(ctx context.Context, messages []ChatMessage) (*Completion, error)
}

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the unwrapped reply of a completion call.
//
// Raw keeps the full response body for diagnostics.
type Completion struct {
	Content string
	Raw     []byte
}

// EnrichmentError reports an unusable completion response together with its raw body.
type EnrichmentError struct {
	Reason string
	Body   []byte
}

// NewEnrichmentError creates an [EnrichmentError].
func NewEnrichmentError(reason string, body []byte) *EnrichmentError {
	return &EnrichmentError{Reason: reason, Body: body}
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("%v: %s: %s", shared.ErrEnrichmentResponse, e.Reason, e.Body)
}

func (e *EnrichmentError) Unwrap() error {
	return shared.ErrEnrichmentResponse
}
