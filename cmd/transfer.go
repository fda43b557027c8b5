package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotitransfer/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TransferRun moves the source account's liked songs to the destination,
// oldest first, so the destination library ends up in the same order.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	fromCache := cmd.Bool("from-cache")

	if _, err := r.serviceFor(roleDest); err != nil {
		return err
	}
	if !fromCache {
		if _, err := r.serviceFor(roleSource); err != nil {
			return err
		}
	}

	repo, closeDB, err := r.libraryRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	opts := tasks.RunOptsFromConfig(r.config.Transfer)
	if retries := cmd.Int("retries"); retries > 0 {
		opts.Fetch.MaxRetries = retries
		opts.Transfer.MaxRetries = retries
	}
	if delay := cmd.Int("delay"); delay > 0 {
		opts.Transfer.Delay = tasks.NewLimiterDelay(time.Duration(delay) * time.Millisecond)
	}

	engine := r.engine(repo)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPage:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchRetry, tasks.RateLimitWait:
				r.writePlain("⏳ %s\n", update.Message)
			case tasks.OrderTracks:
				r.writePlain("\n🗂  %s\n\n", update.Message)
			case tasks.TransferTrack:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	var summary *tasks.TransferSummary
	if fromCache {
		tracks, listErr := repo.ListLibrary()
		if listErr != nil {
			close(progressCh)
			return fmt.Errorf("no usable snapshot, run 'spotitransfer fetch' first: %w", listErr)
		}
		r.writePlain("Transferring %d tracks from the cached snapshot...\n\n", len(tracks))
		job := tasks.NewTransferJob(tracks)
		summary, err = engine.Transfer(ctx, job, progressCh, opts.Transfer)
	} else {
		r.writePlain("Starting liked songs transfer...\n\n")
		summary, err = engine.Run(ctx, progressCh, opts)
	}
	close(progressCh)

	if summary == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Transfer " + statusHeadline(summary.Status))
	r.writePlain("Tracks: %d\n", summary.Total)
	r.writePlain("Succeeded: %d\n", summary.SucceededCount)
	r.writePlain("Failed: %d\n", summary.FailedCount)

	if summary.FailedCount > 0 {
		r.writePlain("\nFailed tracks (add these by hand):\n")
		for _, result := range summary.FailedTracks {
			r.writePlain("  - %s: %v\n", result.TrackID, result.Err)
		}
	}

	if err != nil {
		remaining := summary.Total - len(summary.FailedTracks) - summary.SucceededCount
		if remaining > 0 {
			r.writePlain("\n%d tracks were not attempted. Fix the cause and rerun;\n", remaining)
			r.writePlain("already-liked tracks are skipped by Spotify, so rerunning is safe.\n")
		}
		return err
	}

	return nil
}

func statusHeadline(status tasks.JobStatus) string {
	switch status {
	case tasks.StatusCompleted:
		return "Complete!"
	case tasks.StatusCompletedWithErrors:
		return "Complete (with errors)"
	case tasks.StatusAborted:
		return "Aborted"
	default:
		return status.String()
	}
}
