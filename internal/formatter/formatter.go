// package formatter renders run reports and catalog summaries for the terminal and exports the catalog as CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/fuminsho/internal/models"
)

var csvHeaders = []string{"Position", "Video ID", "Title", "Channel", "Duration", "Published", "Link", "Helpful Comment"}

// ExportToCSV converts entries to CSV, one row per entry in the order given.
func ExportToCSV(entries []*models.PlaylistEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			position(entry.Position),
			entry.VideoID,
			entry.Title,
			entry.ChannelTitle,
			FormatDuration(entry.Duration),
			published(entry.PublishedAt),
			entry.Link(),
			models.Deref(entry.HelpfulComment),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteCSVExport writes the CSV export of entries to path.
func WriteCSVExport(entries []*models.PlaylistEntry, path string) error {
	data, err := ExportToCSV(entries)
	if err != nil {
		return fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}

// FormatDuration renders d as h:mm:ss, or m:ss under an hour. Nil renders as "".
func FormatDuration(d *time.Duration) string {
	if d == nil {
		return ""
	}

	total := int(d.Round(time.Second).Seconds())
	hours, minutes, seconds := total/3600, (total%3600)/60, total%60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func position(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func published(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
