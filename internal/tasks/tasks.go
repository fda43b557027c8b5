// package tasks implements the ordered liked-songs transfer between accounts.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotitransfer/internal/models"
	"github.com/desertthunder/spotitransfer/internal/services"
	"github.com/desertthunder/spotitransfer/internal/shared"
)

// LibraryCacher persists a fetched library so a later transfer command can
// reuse it. Implemented by repositories.LibraryRepository.
type LibraryCacher interface {
	ReplaceLibrary(tracks []models.SavedTrack) error
}

// TransferEngine orchestrates the fetch → order → transfer pipeline
// between a source and a destination account.
//
// An engine runs at most one job at a time; Transfer serializes callers.
type TransferEngine struct {
	source services.LibraryService
	dest   services.LibraryService
	cache  LibraryCacher
	logger *log.Logger
}

// NewTransferEngine creates a TransferEngine for the two accounts.
// cache may be nil; caching failures never disrupt a run either way.
func NewTransferEngine(source, dest services.LibraryService, cache LibraryCacher, logger *log.Logger) *TransferEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TransferEngine{
		source: source,
		dest:   dest,
		cache:  cache,
		logger: logger,
	}
}

// RunOpts bundles the stage options for a full pipeline run.
type RunOpts struct {
	Fetch    FetchOpts
	Transfer TransferOpts
}

// RunOptsFromConfig builds RunOpts from the [transfer] config section.
func RunOptsFromConfig(cfg shared.TransferConfig) RunOpts {
	return RunOpts{
		Fetch: FetchOpts{
			PageLimit:    cfg.PageLimit,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff(),
		},
		Transfer: TransferOpts{
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff(),
			Delay:        NewLimiterDelay(cfg.Delay()),
		},
	}
}

// Run executes the full pipeline: fetch the source library, order it
// chronologically, and transfer it into the destination account.
//
// The stages are strictly sequential; no insertion happens until the whole
// library is known and sorted, so only a single consistent order is ever
// written.
func (e *TransferEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*TransferSummary, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source account not initialized", shared.ErrServiceUnavailable)
	}
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination account not initialized", shared.ErrServiceUnavailable)
	}

	tracks, err := e.FetchLibrary(ctx, progress, opts.Fetch)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, orderUpdate(len(tracks)))
	ordered := OrderChronologically(tracks)

	if e.cache != nil {
		// Tracks are cached silently so a cache failure never disrupts a transfer.
		if err := e.cache.ReplaceLibrary(ordered); err != nil {
			e.logger.Warn("failed to cache library", "error", err)
		}
	}

	job := NewTransferJob(ordered)
	return e.Transfer(ctx, job, progress, opts.Transfer)
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *TransferEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
