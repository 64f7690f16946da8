package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/services"
	"github.com/desertthunder/fuminsho/internal/shared"
)

// SystemPrompt instructs the model to extract genres and tracks as a minified JSON object.
const SystemPrompt = `You are an AI designed to extract relevant information from playlist metadata. Your task is to extract song genres and track details from the provided playlist data. Follow these guidelines:

1. Genres:
   - Extract or infer no more than 5 genres from the playlist.
   - Only include genres if you can confidently determine them.
   - If genre information is missing or unclear, omit the genre field.

2. Tracks:
   - For each track, extract the song title, artist name, and timestamp (if available).
   - Use the following field names:
     - title for the song name.
     - artist for the artist name.
     - timestamp for the time at which the song appears in the playlist.
   - If any of these fields are missing or unclear, omit that specific field.

3. Response Format:
   - Always return a valid minified JSON object.
   - The structure should match this format:
     {"genres"?: string[], "tracks"?: [{"title"?: string, "artist"?: string, "timestamp"?: string}]}

4. Additional Guidelines:
   - If you cannot extract any tracks or genres, exclude that field from the response.
   - Do not include more than 5 genres.
   - Ensure your output is always a valid minified JSON.`

const artistSeparator = " - "

// BuildPrompt renders the user message for an entry from its stored text fields.
func BuildPrompt(entry *models.PlaylistEntry) string {
	return fmt.Sprintf("title: %s\ndescription: %s\nhelpful comment: %s",
		entry.Title, entry.Description, models.Deref(entry.HelpfulComment))
}

// InferenceEngine asks the completion service for the genres and tracks of an entry.
type InferenceEngine struct {
	completion services.CompletionService
	logger     *log.Logger
}

// NewInferenceEngine creates an InferenceEngine.
func NewInferenceEngine(completion services.CompletionService, logger *log.Logger) *InferenceEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &InferenceEngine{completion: completion, logger: logger}
}

// Infer returns the metadata inferred for entry.
//
// A completion whose content is not JSON is reported as a [services.EnrichmentError] carrying the
// raw response. JSON of an unexpected shape yields empty metadata instead.
func (e *InferenceEngine) Infer(ctx context.Context, entry *models.PlaylistEntry) (*models.Metadata, error) {
	messages := []services.ChatMessage{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: BuildPrompt(entry)},
	}

	completion, err := e.completion.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	content, err := gabs.ParseJSON([]byte(completion.Content))
	if err != nil {
		return nil, services.NewEnrichmentError(fmt.Sprintf("undecodable content: %v", err), completion.Raw)
	}

	metadata := ParseMetadata(content.Data())
	e.logger.Debug("parsed metadata", "video", entry.VideoID, "genres", len(metadata.Genres), "tracks", len(metadata.Tracks))
	return metadata, nil
}

// ParseMetadata leniently reads genres and tracks from decoded model output.
//
// A bare list is read both as genres (its strings) and as tracks (its objects); an object is
// read through its "genres" and "tracks" keys. Anything else yields empty metadata.
func ParseMetadata(payload any) *models.Metadata {
	c := gabs.Wrap(payload)
	return &models.Metadata{
		Genres: parseGenres(c),
		Tracks: parseTracks(c),
	}
}

func parseGenres(c *gabs.Container) []string {
	var list *gabs.Container
	switch c.Data().(type) {
	case []any:
		list = c
	case map[string]any:
		list = c.Search("genres")
	default:
		return nil
	}

	if _, ok := list.Data().([]any); !ok {
		return nil
	}

	var genres []string
	for _, child := range list.Children() {
		if s, ok := child.Data().(string); ok {
			genres = append(genres, s)
		}
	}
	return genres
}

func parseTracks(c *gabs.Container) []models.Track {
	var list *gabs.Container
	switch c.Data().(type) {
	case []any:
		list = c
	case map[string]any:
		list = c.Search("tracks")
	default:
		return nil
	}

	if _, ok := list.Data().([]any); !ok {
		return nil
	}

	var tracks []models.Track
	for _, child := range list.Children() {
		item, ok := child.Data().(map[string]any)
		if !ok {
			continue
		}

		track := models.Track{
			Title:     stringField(item, "title"),
			Artist:    stringField(item, "artist"),
			Timestamp: stringField(item, "timestamp"),
		}

		if track.Title != nil && models.Deref(track.Artist) == "" {
			if artist, title, found := strings.Cut(*track.Title, artistSeparator); found {
				track.Artist = &artist
				track.Title = &title
			}
		}
		if models.Deref(track.Artist) == "" {
			track.Artist = nil
		}

		if track.IsEmpty() {
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks
}

// stringField returns the string value of key, or nil when it is missing, null or not a string.
func stringField(item map[string]any, key string) *string {
	s, ok := item[key].(string)
	if !ok {
		return nil
	}
	return &s
}
