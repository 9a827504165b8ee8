package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/plshuffle/internal/models"
	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/zmb3/spotify/v2"
)

const catalogPageSize = 50

// SpotifyCatalog implements [Catalog] with the zmb3/spotify client.
type SpotifyCatalog struct {
	client *spotify.Client
}

// NewSpotifyCatalog creates a catalog over an authorized client.
//
// baseURL overrides the Web API root and may be empty.
func NewSpotifyCatalog(httpClient *http.Client, baseURL string) (*SpotifyCatalog, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("%w: no authorized client", shared.ErrNotAuthenticated)
	}

	var opts []spotify.ClientOption
	if baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/"))
	}
	return &SpotifyCatalog{client: spotify.New(httpClient, opts...)}, nil
}

// Playlists retrieves every playlist in the current user's library.
func (c *SpotifyCatalog) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	offset := 0

	for {
		page, err := c.client.CurrentUsersPlaylists(ctx, spotify.Limit(catalogPageSize), spotify.Offset(offset))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list playlists: %w", shared.ErrAPIRequest, err)
		}

		for _, p := range page.Playlists {
			playlists = append(playlists, models.Playlist{
				ID:          p.ID.String(),
				URI:         string(p.URI),
				Name:        p.Name,
				Description: p.Description,
				Owner:       p.Owner.DisplayName,
				TrackCount:  int(p.Tracks.Total),
				Public:      p.IsPublic,
			})
		}

		if len(page.Playlists) < catalogPageSize {
			break
		}
		offset += catalogPageSize
	}

	return playlists, nil
}

// CurrentUser retrieves the authenticated user's profile.
func (c *SpotifyCatalog) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get current user: %w", shared.ErrAPIRequest, err)
	}

	return &models.User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Country:     user.Country,
		Product:     user.Product,
	}, nil
}
