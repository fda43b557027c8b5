package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/spotitransfer/internal/models"
	"github.com/desertthunder/spotitransfer/internal/services"
	"github.com/desertthunder/spotitransfer/internal/shared"
	"golang.org/x/time/rate"
)

// JobStatus is the transfer job state machine.
//
// Pending → Running → one of the terminal states. There are no
// transitions out of a terminal state.
type JobStatus int

const (
	StatusPending JobStatus = iota
	StatusRunning
	StatusCompleted
	StatusCompletedWithErrors
	StatusAborted
)

func (s JobStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusCompletedWithErrors:
		return "completed_with_errors"
	case StatusAborted:
		return "aborted"
	default:
		return ""
	}
}

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCompletedWithErrors || s == StatusAborted
}

// TrackOutcome classifies the result of one track's insertion.
type TrackOutcome int

const (
	OutcomeSucceeded TrackOutcome = iota
	OutcomeFailed
	OutcomeSkipped
)

func (o TrackOutcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return ""
	}
}

// TrackResult records the outcome for a single track.
type TrackResult struct {
	TrackID string
	Outcome TrackOutcome
	Err     error // reason, set when Outcome is OutcomeFailed
}

// TransferJob is the run-scoped aggregate for one transfer.
//
// Tracks is populated once, already ordered, and never re-sorted. The
// cursor indexes the next track to transfer and only ever advances.
type TransferJob struct {
	ID      string
	Tracks  []models.SavedTrack
	cursor  int
	results []TrackResult
	status  JobStatus
	jobErr  error
}

// NewTransferJob creates a Pending job over an already-ordered track sequence.
func NewTransferJob(ordered []models.SavedTrack) *TransferJob {
	return &TransferJob{
		ID:      shared.GenerateID(),
		Tracks:  ordered,
		results: make([]TrackResult, 0, len(ordered)),
		status:  StatusPending,
	}
}

// Status returns the job's current state.
func (j *TransferJob) Status() JobStatus { return j.status }

// Cursor returns the index of the next track to transfer.
func (j *TransferJob) Cursor() int { return j.cursor }

// Results returns the outcomes recorded so far, one per processed track,
// in cursor order. Unprocessed tracks have no entry.
func (j *TransferJob) Results() []TrackResult { return j.results }

// Err returns the error that aborted the job, if any.
func (j *TransferJob) Err() error { return j.jobErr }

// abort marks the job Aborted with the triggering error. Tracks past the
// cursor are left untransferred with no outcome recorded.
func (j *TransferJob) abort(err error) {
	j.status = StatusAborted
	j.jobErr = err
}

// DelayStrategy paces insertions into the destination account.
//
// The pause between insertions is a best-effort heuristic biasing the
// destination's internal ordering toward insertion order; swapping the
// strategy never touches the state machine.
type DelayStrategy interface {
	Wait(ctx context.Context) error
}

// LimiterDelay implements DelayStrategy with a token bucket, allowing one
// insertion per interval.
type LimiterDelay struct {
	limiter *rate.Limiter
}

// NewLimiterDelay creates the default delay strategy for the given
// inter-insertion interval.
func NewLimiterDelay(interval time.Duration) *LimiterDelay {
	if interval <= 0 {
		interval = 150 * time.Millisecond
	}
	return &LimiterDelay{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (d *LimiterDelay) Wait(ctx context.Context) error {
	return d.limiter.Wait(ctx)
}

// NoDelay disables pacing. Intended for tests and for destinations where
// ordering does not matter.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context) error { return ctx.Err() }

// TransferOpts contains configuration for the insertion stage.
type TransferOpts struct {
	MaxRetries   int           // Attempts per track before recording a failure (default: 3)
	RetryBackoff time.Duration // Base backoff between attempts (default: 500ms)
	Delay        DelayStrategy // Pacing between insertions (default: LimiterDelay at 150ms)
}

func (o *TransferOpts) withDefaults() {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	if o.Delay == nil {
		o.Delay = NewLimiterDelay(150 * time.Millisecond)
	}
}

// TransferSummary is the terminal report for a job. It always enumerates
// the tracks that failed so the user can fix gaps by hand.
type TransferSummary struct {
	JobID          string
	Status         JobStatus
	Total          int
	SucceededCount int
	FailedCount    int
	FailedTracks   []TrackResult
	Err            error // abort cause, when Status is StatusAborted
}

// FailedTrackIDs returns just the IDs of the failed tracks.
func (s *TransferSummary) FailedTrackIDs() []string {
	ids := make([]string, 0, len(s.FailedTracks))
	for _, result := range s.FailedTracks {
		ids = append(ids, result.TrackID)
	}
	return ids
}

var transferMu sync.Mutex

// Transfer inserts the job's tracks into the destination account, one at a
// time, in order.
//
// Per track: transient failures are retried up to the budget, then
// recorded as failed and the job continues. Credential expiry, an
// unauthorized destination, or a rate limit that survives the retry budget
// abort the job immediately. The cursor advances and a progress event is
// emitted after every processed track; cancellation is honored between
// items, never mid-item.
//
// At most one transfer runs per process at a time.
func (e *TransferEngine) Transfer(ctx context.Context, job *TransferJob, progress chan<- ProgressUpdate, opts TransferOpts) (*TransferSummary, error) {
	transferMu.Lock()
	defer transferMu.Unlock()

	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination account not initialized", shared.ErrServiceUnavailable)
	}
	if job.status != StatusPending {
		return nil, fmt.Errorf("job %s already started (status %s)", job.ID, job.status)
	}

	opts.withDefaults()
	job.status = StatusRunning
	total := len(job.Tracks)
	e.logger.Info("transfer started", "job", job.ID, "tracks", total)

	for job.cursor < total {
		// Loop boundary is the cancellation point: never stop mid-item.
		if err := ctx.Err(); err != nil {
			job.abort(fmt.Errorf("transfer cancelled: %w", err))
			break
		}

		track := job.Tracks[job.cursor]
		result, fatal := e.saveOne(ctx, progress, track, opts)
		if fatal != nil {
			job.abort(fatal)
			break
		}

		job.results = append(job.results, result)
		job.cursor++
		e.sendProgress(progress, transferTrackUpdate(job.cursor, total, track, result))

		if job.cursor < total {
			if err := opts.Delay.Wait(ctx); err != nil {
				job.abort(fmt.Errorf("transfer cancelled: %w", err))
				break
			}
		}
	}

	if job.status == StatusRunning {
		job.status = StatusCompleted
		for _, result := range job.results {
			if result.Outcome == OutcomeFailed {
				job.status = StatusCompletedWithErrors
				break
			}
		}
	}

	summary := e.summarize(job)
	e.sendProgress(progress, summaryUpdate(summary))
	e.logger.Info("transfer finished",
		"job", job.ID,
		"status", summary.Status.String(),
		"succeeded", summary.SucceededCount,
		"failed", summary.FailedCount,
	)

	if job.status == StatusAborted {
		return summary, job.jobErr
	}
	return summary, nil
}

// saveOne issues the insertion call for a single track, retrying transient
// failures. Returns a recorded result, or a fatal error that must abort
// the whole job.
func (e *TransferEngine) saveOne(ctx context.Context, progress chan<- ProgressUpdate, track models.SavedTrack, opts TransferOpts) (TrackResult, error) {
	wait := newBackoff(opts.RetryBackoff, 8*opts.RetryBackoff)
	var lastErr error
	rateLimited := false

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		err := e.dest.SaveTrack(ctx, track.ID)
		if err == nil {
			return TrackResult{TrackID: track.ID, Outcome: OutcomeSucceeded}, nil
		}
		lastErr = err
		rateLimited = false

		if errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthenticated) {
			return TrackResult{}, err
		}
		if ctx.Err() != nil {
			return TrackResult{}, fmt.Errorf("transfer cancelled: %w", ctx.Err())
		}

		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			if apiErr.AuthFailure() {
				return TrackResult{}, fmt.Errorf("%w: %v", shared.ErrUnauthorized, apiErr)
			}
			if !apiErr.Retryable() {
				// Local to this track (e.g. a malformed ID); record and move on.
				return TrackResult{TrackID: track.ID, Outcome: OutcomeFailed, Err: err}, nil
			}
			if apiErr.RateLimited() {
				rateLimited = true
				if attempt < opts.MaxRetries && apiErr.RetryAfter > 0 {
					e.sendProgress(progress, rateLimitUpdate(apiErr.RetryAfter))
					if err := sleepCtx(ctx, apiErr.RetryAfter); err != nil {
						return TrackResult{}, fmt.Errorf("transfer cancelled: %w", err)
					}
					continue
				}
			}
		}

		if attempt < opts.MaxRetries {
			if err := wait.sleep(ctx); err != nil {
				return TrackResult{}, fmt.Errorf("transfer cancelled: %w", err)
			}
		}
	}

	if rateLimited {
		// Surviving the whole retry budget means the account is throttled,
		// not the track; continuing would fail every remaining item.
		return TrackResult{}, fmt.Errorf("%w: %v", shared.ErrRateLimited, lastErr)
	}

	return TrackResult{
		TrackID: track.ID,
		Outcome: OutcomeFailed,
		Err:     fmt.Errorf("failed after %d attempts: %w", opts.MaxRetries, lastErr),
	}, nil
}

// summarize builds the terminal summary for a job.
func (e *TransferEngine) summarize(job *TransferJob) *TransferSummary {
	summary := &TransferSummary{
		JobID:  job.ID,
		Status: job.status,
		Total:  len(job.Tracks),
		Err:    job.jobErr,
	}

	for _, result := range job.results {
		switch result.Outcome {
		case OutcomeSucceeded:
			summary.SucceededCount++
		case OutcomeFailed:
			summary.FailedCount++
			summary.FailedTracks = append(summary.FailedTracks, result)
		}
	}

	return summary
}
