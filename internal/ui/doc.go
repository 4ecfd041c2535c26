// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through one export:
//  1. [PlaylistListView] : Browse and select a Spotify playlist
//  2. [FormatView] : Pick M3U or CSV
//  3. [ExportView] : Spinner and live progress while tracks are matched
//  4. [ResultView] : Output path, match count and the tracks that had no match
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the PlaylistEngine, providing non-blocking status reporting during exports.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
