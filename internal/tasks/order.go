package tasks

import (
	"sort"

	"github.com/desertthunder/spotitransfer/internal/models"
)

// OrderChronologically returns the tracks sorted by original save
// timestamp, oldest first. The input slice is not modified.
//
// The sort is stable: tracks saved at the same second keep their relative
// input order, since the source API's page order is the only tiebreaker
// available.
func OrderChronologically(tracks []models.SavedTrack) []models.SavedTrack {
	ordered := make([]models.SavedTrack, len(tracks))
	copy(ordered, tracks)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].AddedAt.Before(ordered[j].AddedAt)
	})

	return ordered
}
