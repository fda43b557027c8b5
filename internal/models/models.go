// package models defines the data model for the liked songs transfer tool
package models

import (
	"fmt"
	"time"
)

// SavedTrack represents a single entry in a user's saved (liked) track library.
//
// ID is the service catalog identifier and is stable across accounts: the
// same ID on the destination account refers to the same underlying song.
// AddedAt is the moment the source account saved the track, to second
// precision.
type SavedTrack struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Artist  string    `json:"artist"`
	Album   string    `json:"album"`
	AddedAt time.Time `json:"added_at"`
}

// Validate checks the invariants required before a track may enter a transfer.
func (t SavedTrack) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("saved track has empty catalog ID")
	}
	if t.AddedAt.IsZero() {
		return fmt.Errorf("saved track %s has no added_at timestamp", t.ID)
	}
	return nil
}

// Label returns a display string for progress output.
func (t SavedTrack) Label() string {
	if t.Artist == "" {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}
