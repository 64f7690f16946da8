// Package services implements the external collaborators of the pipeline.
//
// # Playlist Source
//
// [YouTubeService] implements [PlaylistSource] on top of the YouTube Data API v3 client.
// It authenticates with an API key, which is enough for public playlists, and throttles every
// call through a shared rate limiter. Each call runs under its own timeout.
//
// # Completion Service
//
// [OpenRouterService] implements [CompletionService] against an OpenRouter-compatible chat
// completion endpoint. The wrapper response is unwrapped with gabs and the message content is
// returned as-is, since it is model output and must be parsed leniently by the caller.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : the source API call failed
//   - [shared.ErrMalformedResponse] : the source response lacks an expected field
//   - [shared.ErrEnrichmentResponse] : the completion response could not be used; see [EnrichmentError]
package services
