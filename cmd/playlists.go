package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Playlists prints the playlists in the user's library.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	playlists, err := r.catalog.Playlists(ctx)
	if err != nil {
		return err
	}

	if limit := int(cmd.Int("limit")); limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		return r.writePlain("No playlists found\n")
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   %s\n", p.Summary())
		r.writePlain("   %s\n", p.URI)
	}
	return nil
}
