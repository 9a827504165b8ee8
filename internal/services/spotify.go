// Spotify Web API implementation of the replicator's remote
//
// Response shapes based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plshuffle/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// SpotifyOpts contains optional settings for [SpotifyService].
type SpotifyOpts struct {
	BaseURL           string                    // default: SpotifyBaseURL
	Transport         http.RoundTripper         // default: http.DefaultTransport
	RequestsPerSecond float64                   // 0 disables the limiter
	OnTokenRefresh    func(*oauth2.Token) error // called with each newly issued token
	Logger            *log.Logger               // default: discard
}

// SpotifyService talks to the Spotify Web API on behalf of one user.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config     *oauth2.Config
	baseClient *http.Client
	httpClient *http.Client
	baseURL    string
	onRefresh  func(*oauth2.Token) error
	logger     *log.Logger
	tokens     *persistingTokenSource
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(creds shared.SpotifyConfig, opts SpotifyOpts) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	baseURL := strings.TrimSuffix(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = SpotifyBaseURL
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		baseClient: &http.Client{Transport: NewRateLimitedTransport(opts.Transport, opts.RequestsPerSecond)},
		baseURL:    baseURL,
		onRefresh:  opts.OnTokenRefresh,
		logger:     logger,
	}, nil
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.clientContext(ctx), code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Authenticate builds the authorized client from a saved or freshly exchanged token.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: no saved token, run 'plshuffle auth login'", shared.ErrNotAuthenticated)
	}

	// the token source outlives this call, so it must not inherit a request-scoped cancel
	cctx := s.clientContext(context.WithoutCancel(ctx))
	src := &persistingTokenSource{
		src:    s.config.TokenSource(cctx, token),
		last:   token.AccessToken,
		save:   s.onRefresh,
		logger: s.logger,
	}
	s.tokens = src
	s.httpClient = oauth2.NewClient(cctx, src)
	return nil
}

// Logger returns the logger the service and its token source write to.
func (s *SpotifyService) Logger() *log.Logger {
	return s.logger
}

// SetLogger replaces the logger, including the one used for token refresh messages.
func (s *SpotifyService) SetLogger(logger *log.Logger) {
	if logger == nil {
		return
	}
	s.logger = logger
	if s.tokens != nil {
		s.tokens.setLogger(logger)
	}
}

// Authenticated reports whether Authenticate succeeded.
func (s *SpotifyService) Authenticated() bool {
	return s.httpClient != nil
}

// HTTPClient returns the authorized client, or nil before Authenticate.
func (s *SpotifyService) HTTPClient() *http.Client {
	return s.httpClient
}

// clientContext routes oauth2's own requests through the rate-limited client.
func (s *SpotifyService) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// endpoint is either a path under the base URL or an absolute URL such as a page's next link.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		apiURL = s.baseURL + endpoint
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return fmt.Errorf("%w: %w", shared.ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		var envelope apiError
		if data, err := io.ReadAll(resp.Body); err == nil && json.Unmarshal(data, &envelope) == nil && envelope.Error.Message != "" {
			msg = envelope.Error.Message
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", shared.ErrTokenExpired, msg)
		}
		return fmt.Errorf("%w: %s %s: status %d: %s", shared.ErrAPIRequest, method, endpoint, resp.StatusCode, msg)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// PlaylistName retrieves the name of a playlist.
func (s *SpotifyService) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	endpoint := fmt.Sprintf("/playlists/%s?fields=name", url.PathEscape(playlistID))

	var response playlistNameResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return "", err
	}
	if response.Name == nil || *response.Name == "" {
		return "", fmt.Errorf("%w: name", shared.ErrMissingField)
	}
	return *response.Name, nil
}

// PlaylistTrackIDs retrieves the bare ID of every track in a playlist, following pagination.
//
// Rows that don't hold a catalog track (local files, episodes, removed tracks) are skipped.
func (s *SpotifyService) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprint(PageSize))
	query.Set("offset", "0")
	query.Set("fields", "items(is_local,track(uri)),next,total")
	endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", url.PathEscape(playlistID), query.Encode())

	var ids []string
	skipped := 0
	for page := 1; endpoint != ""; page++ {
		var response playlistTracksPage
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}
		if response.Items == nil {
			return nil, fmt.Errorf("%w: items (page %d)", shared.ErrMissingField, page)
		}
		if ids == nil {
			ids = make([]string, 0, min(max(response.Total, 0), MaxPlaylistTracks))
		}

		for _, row := range *response.Items {
			if row.Track == nil {
				skipped++
				continue
			}
			id, ok := shared.TrackID(row.Track.URI)
			if !ok {
				skipped++
				s.logger.Debug("skipping row", "uri", row.Track.URI, "local", row.IsLocal)
				continue
			}
			ids = append(ids, id)
		}

		endpoint = ""
		if response.Next != nil {
			endpoint = *response.Next
		}
	}

	if skipped > 0 {
		s.logger.Warn("skipped rows without a catalog track", "playlist", playlistID, "count", skipped)
	}
	return ids, nil
}

// CreatePlaylist creates an empty playlist owned by the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	body := createPlaylistRequest{Name: name, Public: public, Description: description}

	var response createPlaylistResponse
	if err := s.doRequest(ctx, http.MethodPost, "/me/playlists", body, &response); err != nil {
		return "", err
	}
	if response.ID == nil || *response.ID == "" {
		return "", fmt.Errorf("%w: id", shared.ErrMissingField)
	}
	return *response.ID, nil
}

// AddTracks appends up to [PageSize] track URIs to a playlist and returns the new snapshot ID.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	if len(uris) == 0 {
		return "", fmt.Errorf("%w: no track URIs", shared.ErrMissingArgument)
	}
	if len(uris) > shared.MaxBatchSize {
		return "", fmt.Errorf("%w: at most %d track URIs per call, got %d", shared.ErrInvalidArgument, shared.MaxBatchSize, len(uris))
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	var response snapshotResponse
	if err := s.doRequest(ctx, http.MethodPost, endpoint, addTracksRequest{URIs: uris}, &response); err != nil {
		return "", err
	}
	if response.SnapshotID == nil || *response.SnapshotID == "" {
		return "", fmt.Errorf("%w: snapshot_id", shared.ErrMissingField)
	}
	return *response.SnapshotID, nil
}

// UnfollowPlaylist removes a playlist from the current user's library, which is how the Web API deletes one.
func (s *SpotifyService) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// persistingTokenSource reports each newly issued access token to save.
type persistingTokenSource struct {
	mu     sync.Mutex
	src    oauth2.TokenSource
	last   string
	save   func(*oauth2.Token) error
	logger *log.Logger
}

func (p *persistingTokenSource) setLogger(logger *log.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		p.logger.Debug("access token refreshed", "expiry", token.Expiry)
		if p.save != nil {
			if err := p.save(token); err != nil {
				p.logger.Warn("failed to save refreshed token", "err", err)
			}
		}
	}
	return token, nil
}
