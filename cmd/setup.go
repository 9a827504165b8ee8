package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the embedded template, or validates the one already there.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = r.configPath
	}

	_, statErr := os.Stat(configPath)
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", statErr)
	}

	if exists && cmd.Bool("force") {
		r.logger.Warn("overwriting existing config file", "path", configPath)
		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("failed to remove existing config: %w", err)
		}
		exists = false
	}

	if !exists {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Created %s\n", configPath)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return err
	}
	config.ApplyEnv()
	r.config = config
	r.configPath = configPath

	if exists {
		r.writePlain("✓ %s is valid\n", configPath)
	}

	r.writePlainln("Next steps:")
	step := 1
	if !config.Credentials.Spotify.HasClient() {
		r.writePlain("%d. Create an app at https://developer.spotify.com/dashboard with redirect URI %s\n", step, r.redirectURI())
		step++
		r.writePlain("%d. Set client_id and client_secret in %s (or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET in .env)\n", step, configPath)
		step++
	}
	if config.Credentials.Spotify.Token() == nil {
		r.writePlain("%d. Run 'plshuffle auth login' to authorize\n", step)
		step++
	}
	r.writePlain("%d. Run 'plshuffle shuffle <playlist>' or 'plshuffle tui'\n", step)
	return nil
}
