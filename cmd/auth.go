package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/plshuffle/internal/server"
	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// authorizer is the part of the Spotify service the browser login needs.
type authorizer interface {
	server.Exchanger
	AuthURL(state string) string
}

// AuthLogin runs the authorization code flow and saves the token to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.newSpotifyService()
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, svc, r.redirectURI(), cmd.Duration("timeout"))
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}
	if err := svc.Authenticate(ctx, token); err != nil {
		return err
	}
	r.spotify = svc

	r.writePlain("✓ Spotify authorization complete\n")
	if r.configPath != "" {
		r.writePlain("Token saved to: %s\n", r.configPath)
	}
	return nil
}

// AuthStatus shows which account the saved token belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	user, err := r.catalog.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	if user == nil {
		return fmt.Errorf("%w: empty profile", shared.ErrNotAuthenticated)
	}

	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	r.writePlain("✓ Authenticated as %s (%s)\n", name, user.ID)
	if user.Product != "" {
		r.writePlain("Plan: %s\n", user.Product)
	}
	if user.Country != "" {
		r.writePlain("Country: %s\n", user.Country)
	}
	return nil
}

// redirectURI returns the configured redirect URI, or one built from [server] host and port.
func (r *Runner) redirectURI() string {
	if uri := r.config.Credentials.Spotify.RedirectURI; uri != "" {
		return uri
	}
	host := r.config.Server.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := r.config.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(host, fmt.Sprint(port)), server.DefaultCallbackPath)
}

// callbackAddr splits a redirect URI into the address to listen on and the callback path.
func callbackAddr(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	addr = u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}
	return addr, u.Path, nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, auth authorizer, redirectURI string, timeout time.Duration) (*oauth2.Token, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	addr, path, err := callbackAddr(redirectURI)
	if err != nil {
		return nil, err
	}

	state := shared.GenerateID()
	authURL := auth.AuthURL(state)

	oauthHandler := server.NewOAuthHandler(auth, state, path)
	router := server.NewBasicRouter(server.LoggingMiddleware(r.logger))
	router.Handler(oauthHandler)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", listener.Addr())
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
