// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI wraps the full library transfer in a three-view workflow:
//  1. [ConfirmView] : Show the source library size and ask for confirmation
//  2. [TransferView] : Monitor fetch and per-track progress in real time
//  3. [ResultView] : Display the final summary and any failed tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the TransferEngine, providing
// non-blocking status reporting while tracks are inserted.
//
// Keyboard navigation uses vim-style bindings (y/n, q) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
