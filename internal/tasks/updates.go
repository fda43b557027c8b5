package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/spotitransfer/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPage Phase = iota
	FetchRetry
	OrderTracks
	TransferTrack
	RateLimitWait
	JobSummary
)

func (p Phase) String() string {
	switch p {
	case FetchPage:
		return "fetch_page"
	case FetchRetry:
		return "fetch_retry"
	case OrderTracks:
		return "order_tracks"
	case TransferTrack:
		return "transfer_track"
	case RateLimitWait:
		return "rate_limit_wait"
	case JobSummary:
		return "job_summary"
	default:
		return ""
	}
}

func fetchPageUpdate(fetched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    fetched,
		Total:   total,
		Message: fmt.Sprintf("Fetched %d/%d saved tracks...", fetched, total),
	}
}

func fetchRetryUpdate(offset, attempt int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRetry,
		Step:    attempt,
		Message: fmt.Sprintf("Retrying page at offset %d (attempt %d): %v", offset, attempt, err),
	}
}

func orderUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   OrderTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sorting %d tracks by original save date...", total),
	}
}

// transferTrackUpdate reports one processed track. Step is the cursor
// position after the item, so consumers see 1..Total in ascending order.
func transferTrackUpdate(step, total int, track models.SavedTrack, result TrackResult) ProgressUpdate {
	var message string
	switch result.Outcome {
	case OutcomeSucceeded:
		message = fmt.Sprintf("[%d/%d] ✓ %s", step, total, track.Label())
	case OutcomeFailed:
		message = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, track.Label(), result.Err)
	default:
		message = fmt.Sprintf("[%d/%d] - %s", step, total, track.Label())
	}

	return ProgressUpdate{
		Phase:   TransferTrack,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    result,
	}
}

func rateLimitUpdate(wait time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RateLimitWait,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Rate limited, waiting %s...", wait),
	}
}

func summaryUpdate(summary *TransferSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   JobSummary,
		Step:    summary.Total,
		Total:   summary.Total,
		Message: fmt.Sprintf("%s: %d succeeded, %d failed", summary.Status, summary.SucceededCount, summary.FailedCount),
		Data:    summary,
	}
}
