// Package models defines the domain values moved through the transfer pipeline.
//
// [SavedTrack] is the unit of work: one entry in a user's Liked Songs
// library, carrying the catalog ID that is stable across accounts and the
// timestamp the source account saved it at. Display metadata (title,
// artist, album) is passed through untouched for progress output and is
// never used to make transfer decisions.
package models
