package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/fuminsho/internal/models"
	"github.com/desertthunder/fuminsho/internal/tasks"
)

const labelWidth = 20

type row struct {
	label string
	value int
	// warn highlights non-zero values
	warn bool
}

func renderRows(title string, rows []row, footer string) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	for _, r := range rows {
		value := strconv.Itoa(r.value)
		switch {
		case r.warn && r.value > 0:
			value = styles.warn.Render(value)
		default:
			value = styles.ok.Render(value)
		}
		b.WriteString(styles.label.Render(r.label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	if footer != "" {
		b.WriteString("\n")
		b.WriteString(styles.help.Render(footer))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatReport renders a run report as an aligned summary.
func FormatReport(report *tasks.RunReport, runErr error) string {
	mode := "incremental"
	if report.FullScan {
		mode = "full scan"
	}

	rows := []row{
		{label: "Pages", value: report.Pages},
		{label: "Synced", value: report.Synced},
		{label: "Created", value: report.Created},
		{label: "Updated", value: report.Updated},
		{label: "Skipped", value: report.Skipped},
		{label: "Comments", value: report.Comments},
		{label: "Details", value: report.Details},
		{label: "Inferred", value: report.Inferred},
		{label: "Genre links", value: report.Genres},
		{label: "Song links", value: report.Songs},
		{label: "Failed", value: report.Failed, warn: true},
	}

	footer := fmt.Sprintf("run %s (%s) in %s", report.RunID, mode, report.Elapsed().Round(time.Millisecond))
	out := renderRows("Run Report", rows, footer)
	if runErr != nil {
		out += styles.err.Render("✗ "+runErr.Error()) + "\n"
	}
	return out
}

// FormatStats renders catalog counts and pending enrichment work.
func FormatStats(stats *models.CatalogStats) string {
	rows := []row{
		{label: "Entries", value: stats.Entries},
		{label: "Favorites", value: stats.Favorites},
		{label: "Genres", value: stats.Genres},
		{label: "Songs", value: stats.Songs},
		{label: "Pending comments", value: stats.PendingComments, warn: true},
		{label: "Pending details", value: stats.PendingDetails, warn: true},
		{label: "Pending metadata", value: stats.PendingMetadata, warn: true},
	}
	return renderRows("Catalog", rows, "")
}

// FormatProgress renders a single progress update line.
func FormatProgress(update tasks.ProgressUpdate) string {
	if update.Phase == tasks.SyncPage {
		return styles.title.UnsetMarginBottom().Render(update.Message)
	}
	return update.Message
}

// WriteReport writes [FormatReport] output to w.
func WriteReport(w io.Writer, report *tasks.RunReport, runErr error) error {
	if _, err := io.WriteString(w, FormatReport(report, runErr)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteStats writes [FormatStats] output to w.
func WriteStats(w io.Writer, stats *models.CatalogStats) error {
	if _, err := io.WriteString(w, FormatStats(stats)); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	return nil
}
