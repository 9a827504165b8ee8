package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/plshuffle/internal/models"
	"github.com/desertthunder/plshuffle/internal/shared"
)

var _ list.Item = playlistItem{}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string { return i.playlist.Summary() }

// uri returns the playlist URI, building one from the ID when the listing omitted it.
func (i playlistItem) uri() string {
	if i.playlist.URI != "" {
		return i.playlist.URI
	}
	return shared.URI{Type: shared.URITypePlaylist, ID: i.playlist.ID}.String()
}

func newPlaylistList(playlists []models.Playlist, width, height int) list.Model {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Your Playlists"
	l.SetSize(max(width-4, 0), max(height-8, 0))
	return l
}
