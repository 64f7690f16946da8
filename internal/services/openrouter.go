// OpenRouter chat completion [CompletionService] implementation
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/desertthunder/fuminsho/internal/shared"
)

const (
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
	DefaultModel         = "mistralai/ministral-3b"

	defaultCompletionTimeout = 300 * time.Second
	completionPath           = "/chat/completions"
	contentPath              = "choices.0.message.content"
)

// Sampling holds the sampling parameters sent with every completion request.
type Sampling struct {
	TopP              float64 `json:"top_p"`
	Temperature       float64 `json:"temperature"`
	FrequencyPenalty  float64 `json:"frequency_penalty"`
	PresencePenalty   float64 `json:"presence_penalty"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	TopK              int     `json:"top_k"`
}

// DefaultSampling returns the sampling parameters tuned for metadata extraction.
func DefaultSampling() Sampling {
	return Sampling{
		TopP:              0.8,
		Temperature:       0.7,
		FrequencyPenalty:  0.03,
		PresencePenalty:   0.2,
		RepetitionPenalty: 1,
		TopK:              0,
	}
}

type responseFormat struct {
	Type string `json:"type"`
}

type providerPreferences struct {
	AllowFallbacks bool `json:"allow_fallbacks"`
}

type completionRequest struct {
	Model          string              `json:"model"`
	Messages       []ChatMessage       `json:"messages"`
	ResponseFormat responseFormat      `json:"response_format"`
	Provider       providerPreferences `json:"provider"`
	Sampling
}

// OpenRouterOpts configures an [OpenRouterService].
type OpenRouterOpts struct {
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	Sampling *Sampling
	Logger   *log.Logger
}

// OpenRouterService implements [CompletionService] for OpenRouter-compatible endpoints.
type OpenRouterService struct {
	client   *resty.Client
	model    string
	sampling Sampling
	logger   *log.Logger
}

// NewOpenRouterService creates a completion client. Empty options fall back to the defaults.
func NewOpenRouterService(opts OpenRouterOpts) (*OpenRouterService, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: openrouter api key", shared.ErrMissingCredentials)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenRouterURL
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultCompletionTimeout
	}

	sampling := DefaultSampling()
	if opts.Sampling != nil {
		sampling = *opts.Sampling
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json")

	return &OpenRouterService{client: client, model: model, sampling: sampling, logger: logger}, nil
}

// Model returns the model requested by the service.
func (s *OpenRouterService) Model() string {
	return s.model
}

// Complete sends messages and returns the content of the first choice.
//
// Non-2xx responses, undecodable bodies and a missing content path are all reported as an
// [EnrichmentError] carrying the raw body. Nothing is retried.
func (s *OpenRouterService) Complete(ctx context.Context, messages []ChatMessage) (*Completion, error) {
	body := completionRequest{
		Model:          s.model,
		Messages:       messages,
		ResponseFormat: responseFormat{Type: "json_object"},
		Provider:       providerPreferences{AllowFallbacks: false},
		Sampling:       s.sampling,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(completionPath)
	if err != nil {
		return nil, fmt.Errorf("%w: chat completion: %w", shared.ErrAPIRequest, err)
	}

	raw := resp.Body()
	if !resp.IsSuccess() {
		return nil, NewEnrichmentError(fmt.Sprintf("status %d", resp.StatusCode()), raw)
	}

	wrapper, err := gabs.ParseJSON(raw)
	if err != nil {
		return nil, NewEnrichmentError("undecodable response", raw)
	}

	content, ok := wrapper.Path(contentPath).Data().(string)
	if !ok {
		return nil, NewEnrichmentError("missing "+contentPath, raw)
	}

	s.logger.Debug("completion received", "model", s.model, "bytes", len(raw))
	return &Completion{Content: content, Raw: raw}, nil
}
