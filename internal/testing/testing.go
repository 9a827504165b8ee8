// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/plshuffle/internal/models"
)

// WriteCall is one accepted AddTracks call recorded by [FakeRemote].
type WriteCall struct {
	PlaylistID string
	URIs       []string
}

// CreateCall is one CreatePlaylist call recorded by [FakeRemote].
type CreateCall struct {
	Name        string
	Description string
	Public      bool
}

// FakeRemote is an in-memory test double for the replicator's remote.
//
// It also satisfies the replicator's Sleeper so delays land in the same call log as remote calls.
type FakeRemote struct {
	mu sync.Mutex

	Names  map[string]string   // playlist ID -> name; a missing or empty entry reads as a missing name
	Tracks map[string][]string // playlist ID -> bare track IDs

	NameErr     error
	TracksErr   error
	CreateErr   error
	UnfollowErr error
	EmptyID     bool  // CreatePlaylist answers without an ID
	FailBatch   int   // 1-based write attempt that fails; 0 never fails
	BatchErr    error // returned by the failing attempt; nil answers without a snapshot ID

	Calls      []string // ordered log: name, tracks, create, add, unfollow, sleep
	Delays     []time.Duration
	Created    []CreateCall
	Writes     []WriteCall
	Attempts   int
	Unfollowed []string
}

// NewFakeRemote creates a FakeRemote holding one playlist.
func NewFakeRemote(id, name string, tracks []string) *FakeRemote {
	return &FakeRemote{
		Names:  map[string]string{id: name},
		Tracks: map[string][]string{id: tracks},
	}
}

// TrackIDs returns n distinct track IDs.
func TrackIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("track%04d", i)
	}
	return ids
}

func (f *FakeRemote) record(call string) {
	f.Calls = append(f.Calls, call)
}

func (f *FakeRemote) PlaylistName(ctx context.Context, playlistID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("name")
	if f.NameErr != nil {
		return "", f.NameErr
	}
	return f.Names[playlistID], nil
}

func (f *FakeRemote) PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("tracks")
	if f.TracksErr != nil {
		return nil, f.TracksErr
	}
	return append([]string(nil), f.Tracks[playlistID]...), nil
}

func (f *FakeRemote) CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create")
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.Created = append(f.Created, CreateCall{Name: name, Description: description, Public: public})
	if f.EmptyID {
		return "", nil
	}
	return fmt.Sprintf("dest%d", len(f.Created)), nil
}

func (f *FakeRemote) AddTracks(ctx context.Context, playlistID string, uris []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("add")
	f.Attempts++
	if f.Attempts == f.FailBatch {
		return "", f.BatchErr
	}
	f.Writes = append(f.Writes, WriteCall{PlaylistID: playlistID, URIs: append([]string(nil), uris...)})
	return fmt.Sprintf("snapshot%d", f.Attempts), nil
}

func (f *FakeRemote) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("unfollow")
	if f.UnfollowErr != nil {
		return f.UnfollowErr
	}
	f.Unfollowed = append(f.Unfollowed, playlistID)
	return nil
}

// Sleep records d without waiting and reports ctx cancellation.
func (f *FakeRemote) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("sleep")
	f.Delays = append(f.Delays, d)
	return ctx.Err()
}

// Written returns the concatenation of every accepted write.
func (f *FakeRemote) Written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var uris []string
	for _, w := range f.Writes {
		uris = append(uris, w.URIs...)
	}
	return uris
}

// FakeCatalog is a test double for the host-side playlist catalog.
type FakeCatalog struct {
	Items []models.Playlist
	User  *models.User
	Err   error
}

func (c *FakeCatalog) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Items, nil
}

func (c *FakeCatalog) CurrentUser(ctx context.Context) (*models.User, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.User, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.Requests++
	return m.response, m.err
}

// NewResponse builds a response with the given status and body.
func NewResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
