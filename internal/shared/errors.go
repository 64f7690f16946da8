package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrMalformedResponse   = fmt.Errorf("malformed API response")
	ErrEnrichmentResponse  = fmt.Errorf("failed to parse enrichment response")
	ErrInvalidDuration     = fmt.Errorf("invalid ISO-8601 duration")
	ErrPlaylistUnavailable = fmt.Errorf("playlist unavailable")

	// Persistence errors
	ErrNotFound   = fmt.Errorf("record not found")
	ErrValidation = fmt.Errorf("validation failed")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
