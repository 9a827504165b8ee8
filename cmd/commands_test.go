package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plshuffle/internal/models"
	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/desertthunder/plshuffle/internal/tasks"
	tu "github.com/desertthunder/plshuffle/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func newTestRunner(remote *tu.FakeRemote, catalog *tu.FakeCatalog) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  shared.DefaultConfig(),
		Remote:  remote,
		Catalog: catalog,
		Sleeper: remote,
		Output:  output,
	})
	return runner, output
}

func TestShuffle(t *testing.T) {
	t.Run("writes every track to the new playlist", func(t *testing.T) {
		remote := tu.NewFakeRemote("37i9dQZF1DXcBWIGoYBM5M", "Road Trip", tu.TrackIDs(26))
		runner, output := newTestRunner(remote, &tu.FakeCatalog{})

		if err := runApp(runner, "shuffle", "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", "--seed", "7"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(remote.Created) != 1 || remote.Created[0].Name != "Road Trip (shuffled)" {
			t.Fatalf("expected one destination named 'Road Trip (shuffled)', got %+v", remote.Created)
		}
		if got := len(remote.Written()); got != 26 {
			t.Errorf("expected 26 tracks written, got %d", got)
		}
		out := output.String()
		if !strings.Contains(out, tasks.StartedMessage) {
			t.Errorf("expected started notice, got %q", out)
		}
		if !strings.Contains(out, tasks.SucceededMessage) {
			t.Errorf("expected success notice, got %q", out)
		}
		if !strings.Contains(out, "spotify:playlist:dest1") {
			t.Errorf("expected destination URI, got %q", out)
		}
	})

	t.Run("same seed gives the same order", func(t *testing.T) {
		orders := make([][]string, 2)
		for i := range orders {
			remote := tu.NewFakeRemote("src", "Focus", tu.TrackIDs(40))
			runner, _ := newTestRunner(remote, &tu.FakeCatalog{})
			if err := runApp(runner, "shuffle", "src", "--seed", "99"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			orders[i] = remote.Written()
		}
		if strings.Join(orders[0], ",") != strings.Join(orders[1], ",") {
			t.Error("expected identical orders for the same seed")
		}
	})

	t.Run("private flag creates a private playlist", func(t *testing.T) {
		remote := tu.NewFakeRemote("src", "Focus", tu.TrackIDs(3))
		runner, _ := newTestRunner(remote, &tu.FakeCatalog{})

		if err := runApp(runner, "shuffle", "https://open.spotify.com/playlist/src?si=x", "--private"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(remote.Created) != 1 || remote.Created[0].Public {
			t.Errorf("expected a private playlist, got %+v", remote.Created)
		}
	})

	t.Run("batch failure reports the partial playlist", func(t *testing.T) {
		remote := tu.NewFakeRemote("src", "Gym", tu.TrackIDs(250))
		remote.FailBatch = 2
		remote.BatchErr = errors.New("boom")
		runner, output := newTestRunner(remote, &tu.FakeCatalog{})

		err := runApp(runner, "shuffle", "src")
		if !errors.Is(err, errReported) {
			t.Fatalf("expected errReported, got %v", err)
		}
		if !errors.Is(err, shared.ErrBatchWrite) {
			t.Errorf("expected ErrBatchWrite in chain, got %v", err)
		}

		out := output.String()
		if !strings.Contains(out, tasks.FailedMessage) {
			t.Errorf("expected generic failure notice, got %q", out)
		}
		if !strings.Contains(out, "100 of 250") {
			t.Errorf("expected partial count, got %q", out)
		}
		if strings.Contains(out, "boom") {
			t.Errorf("expected details to stay out of the notice, got %q", out)
		}
	})

	t.Run("cleanup flag removes the partial playlist", func(t *testing.T) {
		remote := tu.NewFakeRemote("src", "Gym", tu.TrackIDs(150))
		remote.FailBatch = 2
		runner, output := newTestRunner(remote, &tu.FakeCatalog{})

		if err := runApp(runner, "shuffle", "src", "--cleanup-on-failure"); err == nil {
			t.Fatal("expected error")
		}
		if len(remote.Unfollowed) != 1 || remote.Unfollowed[0] != "dest1" {
			t.Errorf("expected dest1 to be unfollowed, got %v", remote.Unfollowed)
		}
		if !strings.Contains(output.String(), "was removed") {
			t.Errorf("expected removal note, got %q", output.String())
		}
	})

	t.Run("json output", func(t *testing.T) {
		remote := tu.NewFakeRemote("src", "Focus", tu.TrackIDs(120))
		runner, output := newTestRunner(remote, &tu.FakeCatalog{})

		if err := runApp(runner, "shuffle", "src", "--json", "--delay", "5ms"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var summary shuffleSummary
		if err := json.Unmarshal(output.Bytes(), &summary); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", output.String(), err)
		}
		if !summary.OK || summary.Total != 120 || summary.Written != 120 || summary.Batches != 2 {
			t.Errorf("unexpected summary %+v", summary)
		}
		if summary.DestName != "Focus (shuffled)" || summary.RunID == "" {
			t.Errorf("unexpected summary %+v", summary)
		}
		if summary.DelayMS != 5 {
			t.Errorf("expected 5ms delay, got %d", summary.DelayMS)
		}
	})

	t.Run("rejects input before touching the remote", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{name: "missing argument", args: []string{"shuffle"}, want: shared.ErrMissingArgument},
			{name: "track uri", args: []string{"shuffle", "spotify:track:abc"}, want: shared.ErrInvalidArgument},
			{name: "bad seed", args: []string{"shuffle", "src", "--seed", "x"}, want: shared.ErrInvalidArgument},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				remote := tu.NewFakeRemote("src", "Focus", tu.TrackIDs(3))
				runner, _ := newTestRunner(remote, &tu.FakeCatalog{})

				err := runApp(runner, tt.args...)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if len(remote.Calls) != 0 {
					t.Errorf("expected no remote calls, got %v", remote.Calls)
				}
			})
		}
	})
}

func TestPlaylists(t *testing.T) {
	catalog := &tu.FakeCatalog{Items: []models.Playlist{
		{ID: "a", URI: "spotify:playlist:a", Name: "Road Trip", Owner: "alex", TrackCount: 26},
		{ID: "b", URI: "spotify:playlist:b", Name: "Focus", Owner: "alex", TrackCount: 120},
	}}

	t.Run("plain output", func(t *testing.T) {
		runner, output := newTestRunner(tu.NewFakeRemote("a", "Road Trip", nil), catalog)

		if err := runApp(runner, "playlists"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := output.String()
		for _, want := range []string{"Found 2 playlists", "1. Road Trip", "26 tracks", "spotify:playlist:b"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}
	})

	t.Run("json output with limit", func(t *testing.T) {
		runner, output := newTestRunner(tu.NewFakeRemote("a", "Road Trip", nil), catalog)

		if err := runApp(runner, "playlists", "--json", "--limit", "1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []models.Playlist
		if err := json.Unmarshal(output.Bytes(), &got); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(got) != 1 || got[0].Name != "Road Trip" {
			t.Errorf("unexpected playlists %+v", got)
		}
	})

	t.Run("empty library", func(t *testing.T) {
		runner, output := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{})

		if err := runApp(runner, "playlists"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "No playlists found") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("catalog error", func(t *testing.T) {
		runner, _ := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{Err: shared.ErrAPIRequest})

		if err := runApp(runner, "playlists"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestAuthStatus(t *testing.T) {
	t.Run("prints the account", func(t *testing.T) {
		catalog := &tu.FakeCatalog{User: &models.User{ID: "alex1", DisplayName: "Alex", Product: "premium"}}
		runner, output := newTestRunner(tu.NewFakeRemote("a", "", nil), catalog)

		if err := runApp(runner, "auth", "status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(output.String(), "Authenticated as Alex (alex1)") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("rejected token", func(t *testing.T) {
		runner, _ := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{Err: shared.ErrTokenExpired})

		err := runApp(runner, "auth", "status")
		if !errors.Is(err, shared.ErrNotAuthenticated) || !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrNotAuthenticated wrapping ErrTokenExpired, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("creates the config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner, output := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{})

		if err := runApp(runner, "--config", path, "setup"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, path)

		out := output.String()
		if !strings.Contains(out, "Created") {
			t.Errorf("expected created notice, got %q", out)
		}
		if !strings.Contains(out, "auth login") {
			t.Errorf("expected login step, got %q", out)
		}
	})

	t.Run("validates an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = "id"
		config.Credentials.Spotify.ClientSecret = "secret"
		if err := shared.SaveConfig(path, config); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		runner, output := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{})

		if err := runApp(runner, "--config", path, "setup"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := output.String()
		if !strings.Contains(out, "is valid") {
			t.Errorf("expected validation notice, got %q", out)
		}
		if strings.Contains(out, "developer.spotify.com") {
			t.Errorf("expected no credential step, got %q", out)
		}
		if !strings.Contains(tu.MustReadFile(t, path), `client_id = "id"`) {
			t.Error("expected existing file to be left alone")
		}
	})

	t.Run("invalid existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[shuffle]\nbatch_size = 500\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		runner, _ := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{})

		if err := runApp(runner, "--config", path, "setup"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("force replaces the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[shuffle]\nbatch_size = 500\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		runner, _ := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{})

		if err := runApp(runner, "--config", path, "setup", "--force"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "base_delay_ms") {
			t.Error("expected template contents")
		}
	})
}

type fakeAuthorizer struct {
	token *oauth2.Token
	code  string
}

func (f *fakeAuthorizer) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeAuthorizer) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	f.code = code
	return f.token, nil
}

// freeRedirect returns a loopback redirect URI on a port that was free a moment ago.
func freeRedirect(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return "http://" + addr + "/callback"
}

func TestDoOAuth(t *testing.T) {
	t.Run("exchanges the callback code", func(t *testing.T) {
		redirect := freeRedirect(t)
		auth := &fakeAuthorizer{token: &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}}
		runner, _ := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{})
		runner.openBrowser = func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			resp, err := http.Get(redirect + "?code=abc&state=" + url.QueryEscape(u.Query().Get("state")))
			if err != nil {
				return err
			}
			return resp.Body.Close()
		}

		token, err := runner.doOAuth(context.Background(), auth, redirect, time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.AccessToken != "access" || auth.code != "abc" {
			t.Errorf("unexpected token %+v for code %q", token, auth.code)
		}
	})

	t.Run("state mismatch fails", func(t *testing.T) {
		redirect := freeRedirect(t)
		runner, _ := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{})
		runner.openBrowser = func(string) error {
			resp, err := http.Get(redirect + "?code=abc&state=forged")
			if err != nil {
				return err
			}
			return resp.Body.Close()
		}

		_, err := runner.doOAuth(context.Background(), &fakeAuthorizer{}, redirect, time.Second)
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("times out without a callback", func(t *testing.T) {
		redirect := freeRedirect(t)
		runner, output := newTestRunner(tu.NewFakeRemote("a", "", nil), &tu.FakeCatalog{})
		runner.openBrowser = func(string) error { return errors.New("no browser") }

		_, err := runner.doOAuth(context.Background(), &fakeAuthorizer{}, redirect, 50*time.Millisecond)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if !strings.Contains(output.String(), "accounts.example.com") {
			t.Errorf("expected the URL to be printed, got %q", output.String())
		}
	})
}

func TestCallbackAddr(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		wantAddr string
		wantPath string
		wantErr  bool
	}{
		{name: "loopback with port", uri: "http://127.0.0.1:8080/callback", wantAddr: "127.0.0.1:8080", wantPath: "/callback"},
		{name: "default port", uri: "http://localhost/cb", wantAddr: "localhost:80", wantPath: "/cb"},
		{name: "no host", uri: "/callback", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, path, err := callbackAddr(tt.uri)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if addr != tt.wantAddr || path != tt.wantPath {
				t.Errorf("got %s %s, want %s %s", addr, path, tt.wantAddr, tt.wantPath)
			}
		})
	}
}

func authorizedConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "id"
	config.Credentials.Spotify.ClientSecret = "secret"
	config.Credentials.Spotify.AccessToken = "access"
	config.Credentials.Spotify.RefreshToken = "refresh"
	config.Log.File = filepath.Join(t.TempDir(), "logs", "tui.log")
	return config
}

func TestTUILogging(t *testing.T) {
	t.Run("clients built afterwards log to the file", func(t *testing.T) {
		config := authorizedConfig(t)
		runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})
		runner.logLevel = "debug"

		fileLogger, err := runner.useFileLogger()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := runner.connect(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertFileExists(t, config.Log.File)
		if runner.logger != fileLogger {
			t.Error("expected runner logger to be the file logger")
		}
		if runner.spotify.Logger() != fileLogger {
			t.Error("expected Spotify service to log to the file")
		}
		if fileLogger.GetLevel() != log.DebugLevel {
			t.Errorf("expected the resolved debug level, got %v", fileLogger.GetLevel())
		}
	})

	t.Run("a service built earlier is switched over", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: authorizedConfig(t), Output: &bytes.Buffer{}})
		if err := runner.connect(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		fileLogger, err := runner.useFileLogger()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.spotify.Logger() != fileLogger {
			t.Error("expected Spotify service to log to the file")
		}
	})

	t.Run("config level applies without a resolved level", func(t *testing.T) {
		config := authorizedConfig(t)
		config.Log.Level = "warn"
		runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})

		fileLogger, err := runner.useFileLogger()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fileLogger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", fileLogger.GetLevel())
		}
	})

	t.Run("verbose flag is the resolved level", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})
		app := &cli.Command{
			Name:   "plshuffle",
			Flags:  rootFlags(),
			Before: runner.Before,
			Action: func(context.Context, *cli.Command) error { return nil },
		}

		path := filepath.Join(t.TempDir(), "config.toml")
		if err := app.Run(context.Background(), []string{"plshuffle", "--config", path, "--verbose"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.logLevel != "debug" {
			t.Errorf("expected debug, got %q", runner.logLevel)
		}
	})
}
