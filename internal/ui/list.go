package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tunebox/internal/models"
)

var (
	_ list.Item = songItem{}
	_ list.Item = playlistItem{}
)

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string {
	return fmt.Sprintf("%s %s %s %s", i.song.Title, i.song.Artist, i.song.Album, i.song.Genre)
}
func (i songItem) Title() string { return i.song.Title }
func (i songItem) Description() string {
	desc := i.song.Artist
	if i.song.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Album)
	}
	desc = fmt.Sprintf("%s • %s", desc, i.song.Duration)
	if i.song.Rating != nil {
		desc = fmt.Sprintf("%s • %d/5", desc, *i.song.Rating)
	}
	return desc
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	if i.playlist.Description != "" {
		return i.playlist.Description
	}
	return "No description"
}
