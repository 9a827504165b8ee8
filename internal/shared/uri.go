package shared

import (
	"fmt"
	"net/url"
	"strings"
)

// URI types recognized by [ParseURI].
const (
	URITypePlaylist = "playlist"
	URITypeTrack    = "track"
	URITypeLocal    = "local"
	URITypeEpisode  = "episode"
)

const (
	uriScheme   = "spotify"
	spotifyHost = "spotify.com"
)

// URI is a parsed colon-delimited catalog URI such as spotify:playlist:37i9dQZF1DXcBWIGoYBM5M.
type URI struct {
	Type string
	ID   string
}

func (u URI) String() string {
	return fmt.Sprintf("%s:%s:%s", uriScheme, u.Type, u.ID)
}

// ParseURI parses catalog URIs and open.spotify.com links.
//
// The legacy user-scoped form spotify:user:<name>:playlist:<id> is accepted.
func ParseURI(s string) (URI, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return URI{}, fmt.Errorf("%w: empty uri", ErrInvalidArgument)
	}

	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return parseURL(s)
	}

	parts := strings.Split(s, ":")
	if len(parts) == 5 && parts[1] == "user" {
		parts = []string{parts[0], parts[3], parts[4]}
	}
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return URI{}, fmt.Errorf("%w: malformed uri %q", ErrInvalidArgument, s)
	}

	return URI{Type: parts[1], ID: parts[2]}, nil
}

func parseURL(s string) (URI, error) {
	u, err := url.Parse(s)
	if err != nil {
		return URI{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if host := u.Hostname(); host != spotifyHost && !strings.HasSuffix(host, "."+spotifyHost) {
		return URI{}, fmt.Errorf("%w: unsupported host %q", ErrInvalidArgument, u.Host)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	// localized links look like /intl-de/playlist/<id>
	if len(segments) > 0 && strings.HasPrefix(segments[0], "intl-") {
		segments = segments[1:]
	}
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return URI{}, fmt.Errorf("%w: malformed link %q", ErrInvalidArgument, s)
	}

	return URI{Type: segments[0], ID: segments[1]}, nil
}

// PlaylistID extracts a playlist ID from a URI, an open.spotify.com link, or a bare ID.
func PlaylistID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s != "" && !strings.Contains(s, ":") && !strings.Contains(s, "/") {
		return s, nil
	}

	u, err := ParseURI(s)
	if err != nil {
		return "", err
	}
	if u.Type != URITypePlaylist {
		return "", fmt.Errorf("%w: %q is a %s, not a playlist", ErrInvalidArgument, s, u.Type)
	}
	return u.ID, nil
}

// TrackID returns the bare ID of a track link (the third colon-separated segment).
//
// ok is false for links that don't name a catalog track, such as local files or episodes.
func TrackID(link string) (id string, ok bool) {
	parts := strings.Split(link, ":")
	if len(parts) < 3 || parts[1] != URITypeTrack || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// TrackURI returns the fully-qualified URI for a bare track ID.
func TrackURI(id string) string {
	return URI{Type: URITypeTrack, ID: id}.String()
}

// CanShuffle reports whether a selection can be shuffled: exactly one URI, naming a playlist.
func CanShuffle(uris []string) bool {
	if len(uris) != 1 {
		return false
	}
	u, err := ParseURI(uris[0])
	return err == nil && u.Type == URITypePlaylist
}
