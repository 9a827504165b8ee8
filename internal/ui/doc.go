// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for shuffling a playlist:
//  1. [PlaylistListView] : Browse and select a playlist from the user's library
//  2. [ConfirmView] : Confirm the shuffle and show the destination name
//  3. [ShuffleView] : Monitor real-time progress with a spinner and a batch progress bar
//  4. [ResultView] : Show the notification text and, after a failure, what was left behind
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the Replicator, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
