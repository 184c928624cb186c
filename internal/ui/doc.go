// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view browser over the synchronized library:
//  1. [SongListView] : Browse the song catalog
//  2. [PlaylistListView] : Browse playlists
//  3. [PlaylistSongsView] : View a playlist's resolved songs
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Store notifications flow through a channel from [stores.ChannelNotifier],
// surfacing mutation outcomes in the status line without blocking the stores.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
