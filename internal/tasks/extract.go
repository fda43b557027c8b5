package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotitransfer/internal/models"
	"github.com/desertthunder/spotitransfer/internal/services"
	"github.com/desertthunder/spotitransfer/internal/shared"
)

// FetchOpts contains configuration for library extraction.
type FetchOpts struct {
	PageLimit    int           // Saved tracks per page (default: 50)
	MaxRetries   int           // Attempts per page before failing the fetch (default: 3)
	RetryBackoff time.Duration // Base backoff between attempts, doubled each retry (default: 500ms)
}

func (o *FetchOpts) withDefaults() {
	if o.PageLimit <= 0 || o.PageLimit > 50 {
		o.PageLimit = 50
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
}

// FetchLibrary retrieves every saved track from the source account, in the
// API's order (newest first).
//
// Each page gets a bounded number of attempts with backoff. A page that
// still fails afterwards fails the whole fetch with
// [shared.ErrTransientFetch]: a silently truncated library would corrupt
// the ordering downstream, so there is no partial result. An empty library
// returns an empty slice and no error.
func (e *TransferEngine) FetchLibrary(ctx context.Context, progress chan<- ProgressUpdate, opts FetchOpts) ([]models.SavedTrack, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source account not initialized", shared.ErrServiceUnavailable)
	}

	opts.withDefaults()

	tracks := []models.SavedTrack{}
	offset := 0
	total := 0

	for {
		page, err := e.fetchPage(ctx, progress, offset, opts)
		if err != nil {
			return nil, err
		}

		total = page.Total
		tracks = append(tracks, page.Items...)
		e.sendProgress(progress, fetchPageUpdate(len(tracks), total))

		if !page.Next || len(page.Items) == 0 {
			break
		}
		offset += opts.PageLimit
	}

	e.logger.Info("library fetched", "tracks", len(tracks), "reported_total", total)
	return tracks, nil
}

// fetchPage requests a single page, retrying transient failures up to the
// configured budget.
func (e *TransferEngine) fetchPage(ctx context.Context, progress chan<- ProgressUpdate, offset int, opts FetchOpts) (*services.SavedTrackPage, error) {
	wait := newBackoff(opts.RetryBackoff, 8*opts.RetryBackoff)
	var lastErr error

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := e.source.SavedTracks(ctx, opts.PageLimit, offset)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if errors.Is(err, shared.ErrTokenExpired) || errors.Is(err, shared.ErrNotAuthenticated) {
			return nil, err
		}

		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			if apiErr.AuthFailure() {
				return nil, fmt.Errorf("%w: %v", shared.ErrUnauthorized, apiErr)
			}
			if !apiErr.Retryable() {
				return nil, fmt.Errorf("%w: offset %d: %v", shared.ErrAPIRequest, offset, apiErr)
			}
			if apiErr.RetryAfter > 0 {
				// The service told us how long to stay away; backoff would undershoot.
				e.sendProgress(progress, rateLimitUpdate(apiErr.RetryAfter))
				if err := sleepCtx(ctx, apiErr.RetryAfter); err != nil {
					return nil, err
				}
				continue
			}
		}

		if attempt < opts.MaxRetries {
			e.sendProgress(progress, fetchRetryUpdate(offset, attempt, err))
			if err := wait.sleep(ctx); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%w: page at offset %d failed after %d attempts: %v",
		shared.ErrTransientFetch, offset, opts.MaxRetries, lastErr)
}
