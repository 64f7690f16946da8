// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/services"
	"github.com/desertthunder/fuminsho/internal/shared"
)

// FakeSource is an in-memory [services.PlaylistSource].
//
// Pages are keyed by the page token that requests them; the first page uses "".
type FakeSource struct {
	Pages    map[string]*models.PlaylistPage
	Comments map[string][]models.Comment
	Details  map[string]*models.VideoDetails

	PageErr    error
	CommentErr error
	DetailErr  error

	mu           sync.Mutex
	PageTokens   []string
	CommentCalls []string
	DetailCalls  []string
}

func (f *FakeSource) PlaylistItems(ctx context.Context, playlistID, pageToken string, pageSize int64) (*models.PlaylistPage, error) {
	f.mu.Lock()
	f.PageTokens = append(f.PageTokens, pageToken)
	f.mu.Unlock()

	if f.PageErr != nil {
		return nil, f.PageErr
	}

	page, ok := f.Pages[pageToken]
	if !ok {
		return nil, fmt.Errorf("%w: unknown page token %q", shared.ErrAPIRequest, pageToken)
	}
	return page, nil
}

func (f *FakeSource) TopComments(ctx context.Context, videoID string, limit int64) ([]models.Comment, error) {
	f.mu.Lock()
	f.CommentCalls = append(f.CommentCalls, videoID)
	f.mu.Unlock()

	if f.CommentErr != nil {
		return nil, f.CommentErr
	}
	return f.Comments[videoID], nil
}

func (f *FakeSource) VideoDetails(ctx context.Context, videoID string) (*models.VideoDetails, error) {
	f.mu.Lock()
	f.DetailCalls = append(f.DetailCalls, videoID)
	f.mu.Unlock()

	if f.DetailErr != nil {
		return nil, f.DetailErr
	}

	details, ok := f.Details[videoID]
	if !ok {
		return &models.VideoDetails{VideoID: videoID, Duration: "PT3M", PublishedAt: "2024-01-01T00:00:00Z"}, nil
	}
	return details, nil
}

// FakeCompletion is an in-memory [services.CompletionService].
//
// Replies are chosen by the first key of Replies contained in the user message; Default is used
// otherwise. Failures work the same way.
type FakeCompletion struct {
	Replies  map[string]string
	Failures map[string]error
	Default  string

	mu       sync.Mutex
	Messages [][]services.ChatMessage
}

func (f *FakeCompletion) Complete(ctx context.Context, messages []services.ChatMessage) (*services.Completion, error) {
	f.mu.Lock()
	f.Messages = append(f.Messages, messages)
	f.mu.Unlock()

	prompt := messages[len(messages)-1].Content
	for key, err := range f.Failures {
		if strings.Contains(prompt, key) {
			return nil, err
		}
	}

	content := f.Default
	for key, reply := range f.Replies {
		if strings.Contains(prompt, key) {
			content = reply
			break
		}
	}

	raw := fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
	return &services.Completion{Content: content, Raw: []byte(raw)}, nil
}

// Calls returns the number of completion requests received.
func (f *FakeCompletion) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Messages)
}

// NewTestDB creates an in-memory SQLite database with migrations applied, closed on cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.MemoryDatabase)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
