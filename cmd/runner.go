package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plshuffle/internal/services"
	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/desertthunder/plshuffle/internal/shuffle"
	"github.com/desertthunder/plshuffle/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// errReported marks failures whose user-facing message was already written.
var errReported = errors.New("already reported")

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	mu         sync.Mutex
	config     *shared.Config
	configPath string
	spotify    *services.SpotifyService
	catalog    services.Catalog
	remote     tasks.Remote
	sleeper    tasks.Sleeper
	logger     *log.Logger
	logLevel   string
	output     io.Writer

	openBrowser func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog and Remote are built from the Spotify service on first use when left nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService
	Catalog    services.Catalog
	Remote     tasks.Remote
	Sleeper    tasks.Sleeper
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		catalog:    opts.Catalog,
		remote:     opts.Remote,
		sleeper:    opts.Sleeper,
		logger:     opts.Logger,
		output:     opts.Output,

		openBrowser: shared.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, shuffleCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
// A Spotify service that was already built is switched over too.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	if r.spotify != nil {
		r.spotify.SetLogger(logger)
	}
}

// Before loads the configuration named by --config, applies environment overrides and sets the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return ctx, err
	}
	config.ApplyEnv()

	r.config = config
	r.configPath = path

	level := config.Log.Level
	if cmd.Bool("verbose") {
		level = "debug"
	}
	r.logLevel = level
	shared.SetLogLevel(r.logger, level)
	r.logger.Debug("configuration loaded", "path", path)

	return ctx, nil
}

// connect builds and authenticates the Spotify clients unless they were injected.
func (r *Runner) connect(ctx context.Context) error {
	if r.remote != nil && r.catalog != nil {
		return nil
	}

	if r.spotify == nil {
		svc, err := r.newSpotifyService()
		if err != nil {
			return err
		}
		r.spotify = svc
	}

	if !r.spotify.Authenticated() {
		if err := r.spotify.Authenticate(ctx, r.config.Credentials.Spotify.Token()); err != nil {
			return err
		}
	}

	if r.remote == nil {
		r.remote = r.spotify
	}
	if r.catalog == nil {
		catalog, err := services.NewSpotifyCatalog(r.spotify.HTTPClient(), "")
		if err != nil {
			return err
		}
		r.catalog = catalog
	}
	return nil
}

func (r *Runner) newSpotifyService() (*services.SpotifyService, error) {
	creds := r.config.Credentials.Spotify
	if !creds.HasClient() {
		return nil, fmt.Errorf("%w: set client_id and client_secret in %s or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET",
			shared.ErrMissingCredentials, r.configPath)
	}

	creds.RedirectURI = r.redirectURI()

	return services.NewSpotifyService(creds, services.SpotifyOpts{
		RequestsPerSecond: r.config.Shuffle.RequestsPerSecond,
		OnTokenRefresh:    r.saveTokens,
		Logger:            r.logger,
	})
}

// saveTokens stores token in the config and writes it to configPath when one is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Debug("tokens saved", "path", r.configPath)
	return nil
}

// replicatorOpts merges the [shuffle] config with any flags set on cmd.
func (r *Runner) replicatorOpts(cmd *cli.Command) (tasks.ReplicatorOpts, error) {
	cfg := r.config.Shuffle
	opts := tasks.ReplicatorOpts{
		BaseDelay:        cfg.BaseDelay(),
		LargeThreshold:   cfg.LargeThreshold,
		BatchSize:        cfg.BatchSize,
		Private:          !cfg.Public,
		Description:      cfg.Description,
		CleanupOnFailure: cfg.CleanupOnFailure,
		Sleeper:          r.sleeper,
		Logger:           r.logger,
	}

	if cmd == nil {
		return opts, nil
	}
	if cmd.IsSet("private") {
		opts.Private = cmd.Bool("private")
	}
	if cmd.IsSet("cleanup-on-failure") {
		opts.CleanupOnFailure = cmd.Bool("cleanup-on-failure")
	}
	if cmd.IsSet("delay") {
		opts.BaseDelay = cmd.Duration("delay")
	}
	if cmd.IsSet("description") {
		opts.Description = cmd.String("description")
	}
	if cmd.IsSet("seed") {
		seed, err := strconv.ParseUint(cmd.String("seed"), 10, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: --seed must be a non-negative integer", shared.ErrInvalidArgument)
		}
		opts.Rand = shuffle.NewRand(&seed)
	}
	return opts, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
