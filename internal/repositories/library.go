package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotitransfer/internal/models"
	"github.com/desertthunder/spotitransfer/internal/shared"
)

// LibraryRepository persists library snapshots in the library_tracks table.
//
// Implements tasks.LibraryCacher. A snapshot is always written as a whole:
// partial writes roll back so a failed fetch can never leave a truncated
// library behind.
type LibraryRepository struct {
	db *sql.DB
}

// NewLibraryRepository creates a new LibraryRepository with the given database connection
func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// ReplaceLibrary swaps the cached snapshot for the given track sequence.
//
// Tracks must already be in chronological order; their slice index becomes
// the stored position. The delete and all inserts run in one transaction.
func (r *LibraryRepository) ReplaceLibrary(tracks []models.SavedTrack) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM library_tracks"); err != nil {
		return fmt.Errorf("failed to clear library cache: %w", err)
	}

	query := `
		INSERT INTO library_tracks (id, track_id, title, artist, album, added_at, position, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	fetchedAt := time.Now().UTC()
	for position, track := range tracks {
		if err := track.Validate(); err != nil {
			return fmt.Errorf("validation failed at position %d: %w", position, err)
		}

		_, err := tx.Exec(query,
			shared.GenerateID(),
			track.ID,
			track.Title,
			track.Artist,
			track.Album,
			track.AddedAt,
			position,
			fetchedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track %s: %w", track.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit library snapshot: %w", err)
	}

	return nil
}

// ListLibrary returns the cached snapshot in stored position order.
//
// Returns shared.ErrEmptyCache when no snapshot has been written yet.
func (r *LibraryRepository) ListLibrary() ([]models.SavedTrack, error) {
	query := `
		SELECT track_id, title, artist, album, added_at
		FROM library_tracks
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query library cache: %w", err)
	}
	defer rows.Close()

	var tracks []models.SavedTrack
	for rows.Next() {
		var track models.SavedTrack
		if err := rows.Scan(&track.ID, &track.Title, &track.Artist, &track.Album, &track.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(tracks) == 0 {
		return nil, shared.ErrEmptyCache
	}

	return tracks, nil
}

// Count returns the number of tracks in the cached snapshot.
func (r *LibraryRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM library_tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count library cache: %w", err)
	}
	return count, nil
}

// FetchedAt returns when the current snapshot was written.
func (r *LibraryRepository) FetchedAt() (time.Time, error) {
	var fetchedAt time.Time
	err := r.db.QueryRow("SELECT fetched_at FROM library_tracks ORDER BY position LIMIT 1").Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, shared.ErrEmptyCache
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read snapshot age: %w", err)
	}
	return fetchedAt, nil
}

// Clear drops the cached snapshot.
func (r *LibraryRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM library_tracks"); err != nil {
		return fmt.Errorf("failed to clear library cache: %w", err)
	}
	return nil
}
