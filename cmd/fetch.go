package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotitransfer/internal/shared"
	"github.com/desertthunder/spotitransfer/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Fetch downloads the source account's full liked-songs library, orders it
// chronologically, and stores it in the local cache.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if _, err := r.serviceFor(roleSource); err != nil {
		return err
	}

	repo, closeDB, err := r.libraryRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	engine := r.engine(repo)
	opts := tasks.RunOptsFromConfig(r.config.Transfer)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			if update.Phase == tasks.FetchPage || update.Phase == tasks.FetchRetry {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	r.writePlain("Fetching liked songs from the source account...\n")

	tracks, err := engine.FetchLibrary(ctx, progressCh, opts.Fetch)
	close(progressCh)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	ordered := tasks.OrderChronologically(tracks)
	if err := repo.ReplaceLibrary(ordered); err != nil {
		return fmt.Errorf("failed to cache library: %w", err)
	}

	if useJSON {
		return r.writeJSON(ordered, pretty)
	}

	r.writePlainln("✓ Fetched %d liked songs", len(ordered))
	if len(ordered) > 0 {
		r.writePlain("  Oldest: %s (%s)\n", ordered[0].Label(), ordered[0].AddedAt.Format("2006-01-02"))
		r.writePlain("  Newest: %s (%s)\n", ordered[len(ordered)-1].Label(), ordered[len(ordered)-1].AddedAt.Format("2006-01-02"))
	}
	r.writePlain("\nRun 'spotitransfer transfer --from-cache' to replay this snapshot.\n")

	return nil
}
