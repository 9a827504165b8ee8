// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// rootFlags are shared by every command and read in [Runner.Before].
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("PLSHUFFLE_CONFIG"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log at debug level",
		},
	}
}

// setupCommand writes a starter config file
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml from the bundled template",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Spotify in the browser and save the token",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 2 * time.Minute,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the account the saved token belongs to",
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistsCommand lists the user's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List playlists in your library",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to show (0 shows all)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		},
		Action: r.Playlists,
	}
}

// shuffleCommand copies a playlist into a new one in random order
func shuffleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "shuffle",
		Usage:     "Create '<name> (shuffled)' with the playlist's tracks in random order",
		ArgsUsage: "<playlist uri, link or id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "seed",
				Usage: "Seed the shuffle for a reproducible order",
			},
			&cli.BoolFlag{
				Name:  "private",
				Usage: "Create the new playlist as private",
			},
			&cli.DurationFlag{
				Name:  "delay",
				Usage: "Base delay between API calls (doubled for playlists of 1000+ tracks)",
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Description of the new playlist",
			},
			&cli.BoolFlag{
				Name:  "cleanup-on-failure",
				Usage: "Remove the partially filled playlist if a batch fails",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the run result as JSON",
			},
		},
		Action: r.Shuffle,
	}
}

// tuiCommand returns the top-level TUI command for interactive shuffling.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Pick a playlist to shuffle in an interactive TUI",
		Action:  r.TUI,
	}
}
