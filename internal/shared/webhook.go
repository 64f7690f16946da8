package shared

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookMessageLimit is the longest message body a chat webhook accepts.
const WebhookMessageLimit = 2000

// WebhookWriter posts every write as a chat message to a webhook URL.
//
// It is meant to sit behind an [io.MultiWriter] next to the terminal, so delivery failures are
// reported to fallback and never surface as write errors.
type WebhookWriter struct {
	url      string
	client   *resty.Client
	fallback io.Writer
}

// NewWebhookWriter creates a [WebhookWriter]. A nil client gets a resty client with a short timeout
// and a nil fallback discards delivery errors.
func NewWebhookWriter(url string, client *resty.Client, fallback io.Writer) *WebhookWriter {
	if client == nil {
		client = resty.New().SetTimeout(10 * time.Second)
	}
	if fallback == nil {
		fallback = io.Discard
	}
	return &WebhookWriter{url: url, client: client, fallback: fallback}
}

func (w *WebhookWriter) Write(p []byte) (int, error) {
	content := truncateRunes(strings.TrimSpace(string(p)), WebhookMessageLimit)
	if content == "" {
		return len(p), nil
	}

	resp, err := w.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"content": content}).
		Post(w.url)

	switch {
	case err != nil:
		fmt.Fprintf(w.fallback, "webhook delivery failed: %v\n", err)
	case !resp.IsSuccess():
		fmt.Fprintf(w.fallback, "webhook delivery failed: status %d\n", resp.StatusCode())
	}

	return len(p), nil
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

var _ io.Writer = (*WebhookWriter)(nil)
