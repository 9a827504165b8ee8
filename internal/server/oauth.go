package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/plshuffle/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultCallbackPath is used when the redirect URI has no path.
const DefaultCallbackPath = "/callback"

// Exchanger trades an authorization code for a token.
type Exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ {{.}} is ready to shuffle</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`))

// OAuthHandler completes the authorization code flow for one login attempt.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string
	handled   atomic.Bool
	once      sync.Once
	results   chan OAuthResult
}

// NewOAuthHandler creates a handler for callbacks on path, which defaults to [DefaultCallbackPath].
// state should be unguessable; it is compared against the callback's state parameter.
func NewOAuthHandler(exchanger Exchanger, state, path string) *OAuthHandler {
	if path == "" || path == "/" {
		path = DefaultCallbackPath
	}
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		path:      path,
		results:   make(chan OAuthResult, 1),
	}
}

func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP accepts the first callback only; later requests get 400.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.handled.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	token, status, err := h.complete(r)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, http.StatusText(status), status)
		return
	}
	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = successPage.Execute(w, "plshuffle")
}

// complete checks the callback parameters and exchanges the code, returning the status to answer with on failure.
func (h *OAuthHandler) complete(r *http.Request) (*oauth2.Token, int, error) {
	query := r.URL.Query()
	if query.Get("state") != h.state {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)
	}

	code := query.Get("code")
	if code == "" {
		return nil, http.StatusBadRequest,
			fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description"))
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, 0, nil
}

// Send delivers result unless one was already delivered.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives exactly one [OAuthResult] and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}
