// Package services implements the Spotify Web API clients used by the shuffle run and the host.
//
// # Spotify Service
//
// [SpotifyService] implements the replicator's remote with plain HTTP calls:
//   - PlaylistName: GET /playlists/{id}?fields=name
//   - PlaylistTrackIDs: GET /playlists/{id}/tracks, 100 rows per page, following next
//   - CreatePlaylist: POST /me/playlists
//   - AddTracks: POST /playlists/{id}/tracks, at most 100 URIs
//   - UnfollowPlaylist: DELETE /playlists/{id}/followers
//
// Responses are decoded into pointer fields so a missing field is told apart from an empty one.
// A response lacking the field a step depends on wraps [shared.ErrMissingField].
//
// # Catalog
//
// [SpotifyCatalog] lists the current user's playlists and profile through the zmb3/spotify client.
// It shares the authenticated [http.Client] of a [SpotifyService].
//
// # Authentication
//
// OAuth2 endpoints and scopes come from zmb3/spotify's auth package.
// The [oauth2] client refreshes expired tokens on its own; every new token is passed to
// [SpotifyOpts.OnTokenRefresh] so the host can persist it.
//
// # Rate Limiting
//
// Every request, token refreshes included, passes through [RateLimitedTransport].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : 401 response or failed refresh, reauthorization needed
//   - [shared.ErrAPIRequest] : non-2xx response or transport failure
//   - [shared.ErrMissingField] : response lacks an expected field
package services
