package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/spotitransfer/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheShow prints the cached library snapshot.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	listTracks := cmd.Bool("list")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	repo, closeDB, err := r.libraryRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	tracks, err := repo.ListLibrary()
	if errors.Is(err, shared.ErrEmptyCache) {
		r.writePlain("No cached snapshot. Run 'spotitransfer fetch' first.\n")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	if useJSON {
		return r.writeJSON(tracks, pretty)
	}

	fetchedAt, err := repo.FetchedAt()
	if err != nil {
		return fmt.Errorf("failed to read snapshot age: %w", err)
	}

	r.writePlain("Cached snapshot: %d tracks (fetched %s)\n", len(tracks), fetchedAt.Format("2006-01-02 15:04"))

	if listTracks {
		r.writePlain("\n")
		for i, track := range tracks {
			r.writePlain("%d. %s (saved %s)\n", i+1, track.Label(), track.AddedAt.Format("2006-01-02"))
		}
	}

	return nil
}

// CacheClear drops the cached library snapshot.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.libraryRepo()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	r.logger.Info("library cache cleared")
	r.writePlain("✓ Cache cleared\n")
	return nil
}
