package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a pipeline run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Pipeline stage
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Pipeline stage enumeration
type Phase int

const (
	SyncPage Phase = iota
	FetchComments
	FetchDetails
	InferMetadata
	Reconcile
)

func (p Phase) String() string {
	switch p {
	case SyncPage:
		return "sync_page"
	case FetchComments:
		return "fetch_comments"
	case FetchDetails:
		return "fetch_details"
	case InferMetadata:
		return "infer_metadata"
	case Reconcile:
		return "reconcile"
	default:
		return ""
	}
}

func syncPageUpdate(page PageResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncPage,
		Step:    page.Number,
		Message: fmt.Sprintf("Page %d: %d new, %d updated, %d skipped", page.Number, page.Created, page.Updated, page.Skipped),
		Data:    page,
	}
}

func commentUpdate(step, total int, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchComments,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching comments for %s...", step, total, videoID),
	}
}

func detailsUpdate(step, total int, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDetails,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching details for %s...", step, total, videoID),
	}
}

func inferUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InferMetadata,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Inferring metadata: %s...", step, total, title),
	}
}

func reconcileUpdate(step, total int, title string, result ReconcileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d genres, %d songs)", step, total, title, result.Genres, result.Songs),
		Data:    result,
	}
}

func inferFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   InferMetadata,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}
