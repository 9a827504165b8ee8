// package services defines the Spotify clients for shuffle runs and playlist browsing
package services

import (
	"context"

	"github.com/desertthunder/plshuffle/internal/models"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

const (
	SpotifyBaseURL     = "https://api.spotify.com/v1"
	DefaultRedirectURI = "http://127.0.0.1:8080/callback"

	// PageSize is the most playlist rows the Web API returns per page.
	PageSize = 100

	// MaxPlaylistTracks caps the preallocation for a playlist's track IDs; the API limits playlists to this size.
	MaxPlaylistTracks = 10000
)

// Scopes lists the OAuth2 scopes needed to read a playlist and create its shuffled copy.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// Catalog lists what the current user can shuffle.
type Catalog interface {
	// Playlists retrieves every playlist in the current user's library.
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*models.User, error)
}

// playlistNameResponse is the shape of GET /playlists/{id}?fields=name.
type playlistNameResponse struct {
	Name *string `json:"name"`
}

// playlistTracksPage is one page of GET /playlists/{id}/tracks.
type playlistTracksPage struct {
	Items *[]playlistTrackRow `json:"items"`
	Next  *string             `json:"next"`
	Total int                 `json:"total"`
}

// playlistTrackRow is one playlist row; Track is null for tracks removed from the catalog.
type playlistTrackRow struct {
	IsLocal bool `json:"is_local"`
	Track   *struct {
		URI string `json:"uri"`
	} `json:"track"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Description string `json:"description"`
}

type createPlaylistResponse struct {
	ID *string `json:"id"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

type snapshotResponse struct {
	SnapshotID *string `json:"snapshot_id"`
}

// apiError is the error envelope of the Web API.
type apiError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}
