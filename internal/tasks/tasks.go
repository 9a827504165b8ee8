package tasks

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/desertthunder/plshuffle/internal/shuffle"
)

const (
	DefaultBaseDelay      = time.Second
	DefaultLargeThreshold = 1000
	DefaultDescription    = "Created with plshuffle"

	// NameSuffix is appended to the source name to build the destination name.
	NameSuffix = " (shuffled)"
)

// Remote defines the playlist API the [Replicator] reads from and writes to.
//
// Implementations report a response that lacks its expected field as an error wrapping [shared.ErrMissingField].
type Remote interface {
	// PlaylistName returns the name of a playlist.
	PlaylistName(ctx context.Context, playlistID string) (string, error)

	// PlaylistTrackIDs returns the bare IDs of every track in a playlist, in playlist order.
	PlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)

	// CreatePlaylist creates an empty playlist for the current user and returns its ID.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (string, error)

	// AddTracks appends up to 100 track URIs to a playlist and returns the snapshot ID acknowledging the write.
	AddTracks(ctx context.Context, playlistID string, uris []string) (string, error)

	// UnfollowPlaylist removes a playlist from the current user's library.
	UnfollowPlaylist(ctx context.Context, playlistID string) error
}

// Sleeper waits between remote calls.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to [Sleeper].
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// TimerSleeper blocks for d or until ctx is done.
var TimerSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// ReplicatorOpts contains configuration for shuffle runs.
type ReplicatorOpts struct {
	BaseDelay        time.Duration // Delay before the first fetch and before each batch (default: 1s)
	LargeThreshold   int           // Track count at which the batch delay doubles (default: 1000)
	BatchSize        int           // Tracks per write call, capped at 100 (default: 100)
	Private          bool          // Create the destination as private instead of public
	Description      string        // Destination description (default: DefaultDescription)
	CleanupOnFailure bool          // Unfollow a partially written destination when the run fails
	Rand             *rand.Rand    // Shuffle source; nil uses the auto-seeded global generator
	Sleeper          Sleeper       // default: TimerSleeper
	Logger           *log.Logger   // default: discard
}

// ReplicateResult contains all data from a shuffle run, complete or not.
type ReplicateResult struct {
	RunID      string        // Correlates log lines for this run
	SourceID   string        // Source playlist ID
	SourceName string        // Source playlist name
	DestID     string        // Created playlist ID (empty if creation never happened)
	DestName   string        // Created playlist name
	Total      int           // Tracks fetched from the source
	Written    int           // Tracks acknowledged by the destination
	Batches    int           // Successful write calls
	Snapshots  []string      // Snapshot ID per successful write call
	Delay      time.Duration // Delay used before each batch
	CleanedUp  bool          // Partial destination was unfollowed after a failure
}

// Complete reports whether every fetched track was written.
func (r *ReplicateResult) Complete() bool {
	return r != nil && r.DestID != "" && r.Written == r.Total
}

// Replicator copies a playlist's tracks into a new playlist in shuffled order.
type Replicator struct {
	remote Remote
	opts   ReplicatorOpts
	locks  sync.Map // playlist ID -> *sync.Mutex
}

// NewReplicator creates a new Replicator over remote, filling unset options with defaults.
func NewReplicator(remote Remote, opts ReplicatorOpts) *Replicator {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.LargeThreshold <= 0 {
		opts.LargeThreshold = DefaultLargeThreshold
	}
	if opts.BatchSize <= 0 || opts.BatchSize > shared.MaxBatchSize {
		opts.BatchSize = shared.MaxBatchSize
	}
	if opts.Description == "" {
		opts.Description = DefaultDescription
	}
	if opts.Sleeper == nil {
		opts.Sleeper = TimerSleeper
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Replicator{remote: remote, opts: opts}
}

// InterCallDelay returns the wait before each batch for a source of n tracks.
func (r *Replicator) InterCallDelay(n int) time.Duration {
	if n >= r.opts.LargeThreshold {
		return r.opts.BaseDelay * 2
	}
	return r.opts.BaseDelay
}

// sendProgress sends a progress update through the channel without blocking.
func (r *Replicator) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// lock serializes runs against the same source playlist.
func (r *Replicator) lock(playlistID string) func() {
	v, _ := r.locks.LoadOrStore(playlistID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Replicate shuffles the playlist named by uris[0] into a new playlist.
//
// Only the first URI is used. On failure the returned result is non-nil once the
// source ID is known, so callers can see whether a partial destination exists.
func (r *Replicator) Replicate(ctx context.Context, uris []string, progress chan<- ProgressUpdate) (*ReplicateResult, error) {
	if r.remote == nil {
		return nil, fmt.Errorf("%w: remote not initialized", shared.ErrServiceUnavailable)
	}
	if len(uris) == 0 {
		return nil, fmt.Errorf("%w: no playlist selected", shared.ErrMissingArgument)
	}

	sourceID, err := shared.PlaylistID(uris[0])
	if err != nil {
		return nil, err
	}

	unlock := r.lock(sourceID)
	defer unlock()

	result := &ReplicateResult{RunID: shared.GenerateID(), SourceID: sourceID}
	logger := shared.WithLogger(r.opts.Logger, "run", result.RunID, "playlist", sourceID)
	if len(uris) > 1 {
		logger.Warn("multiple playlists selected, using the first", "count", len(uris))
	}

	r.sendProgress(progress, startedUpdate(sourceID))

	if err := r.run(ctx, logger, result, progress); err != nil {
		logger.Error("shuffle failed",
			"err", err, "destination", result.DestID, "written", result.Written, "total", result.Total)

		if r.opts.CleanupOnFailure && result.DestID != "" {
			r.cleanup(ctx, logger, result)
		}

		r.sendProgress(progress, failedUpdate(result))
		return result, err
	}

	logger.Info("shuffle complete",
		"destination", result.DestID, "tracks", result.Written, "batches", result.Batches)
	r.sendProgress(progress, succeededUpdate(result))
	return result, nil
}

func (r *Replicator) run(ctx context.Context, logger *log.Logger, result *ReplicateResult, progress chan<- ProgressUpdate) error {
	// keep the first fetch from landing right behind whatever call the caller just made
	if err := r.opts.Sleeper.Sleep(ctx, r.opts.BaseDelay); err != nil {
		return err
	}

	r.sendProgress(progress, fetchMetadataUpdate(result.SourceID))
	name, err := r.remote.PlaylistName(ctx, result.SourceID)
	if err == nil && name == "" {
		err = fmt.Errorf("%w: name", shared.ErrMissingField)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrMetadataFetch, err)
	}
	result.SourceName = name
	logger.Debug("fetched playlist name", "name", name)

	r.sendProgress(progress, fetchItemsUpdate(name))
	ids, err := r.remote.PlaylistTrackIDs(ctx, result.SourceID)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrItemFetch, err)
	}
	result.Total = len(ids)
	logger.Debug("fetched tracks", "count", len(ids))

	destName := name + NameSuffix
	r.sendProgress(progress, createPlaylistUpdate(destName))
	destID, err := r.remote.CreatePlaylist(ctx, destName, r.opts.Description, !r.opts.Private)
	if err == nil && destID == "" {
		err = fmt.Errorf("%w: id", shared.ErrMissingField)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrCreate, err)
	}
	result.DestID = destID
	result.DestName = destName
	logger.Debug("playlist created", "destination", destID, "name", destName)

	shuffle.Shuffle(ids, r.opts.Rand)
	r.sendProgress(progress, shuffledUpdate(len(ids)))

	return r.writeBatches(ctx, logger, result, ids, progress)
}

// writeBatches takes up to BatchSize IDs at a time from the front of ids and writes each batch
// after waiting the inter-call delay.
func (r *Replicator) writeBatches(ctx context.Context, logger *log.Logger, result *ReplicateResult, ids []string, progress chan<- ProgressUpdate) error {
	result.Delay = r.InterCallDelay(len(ids))
	totalBatches := (len(ids) + r.opts.BatchSize - 1) / r.opts.BatchSize

	remaining := ids
	for len(remaining) > 0 {
		if err := r.opts.Sleeper.Sleep(ctx, result.Delay); err != nil {
			return err
		}

		n := min(r.opts.BatchSize, len(remaining))
		batch := remaining[:n]
		remaining = remaining[n:]

		uris := make([]string, len(batch))
		for i, id := range batch {
			uris[i] = shared.TrackURI(id)
		}

		snapshot, err := r.remote.AddTracks(ctx, result.DestID, uris)
		if err == nil && snapshot == "" {
			err = fmt.Errorf("%w: snapshot_id", shared.ErrMissingField)
		}
		if err != nil {
			return fmt.Errorf("%w: batch %d of %d: %w", shared.ErrBatchWrite, result.Batches+1, totalBatches, err)
		}

		result.Batches++
		result.Written += n
		result.Snapshots = append(result.Snapshots, snapshot)
		logger.Debug("added a batch", "batch", result.Batches, "of", totalBatches, "snapshot", snapshot)
		r.sendProgress(progress, writeBatchUpdate(result.Batches, totalBatches, result.Written, result.Total))
	}

	return nil
}

// cleanup unfollows a partially written destination, even when ctx was cancelled.
func (r *Replicator) cleanup(ctx context.Context, logger *log.Logger, result *ReplicateResult) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := r.remote.UnfollowPlaylist(cctx, result.DestID); err != nil {
		logger.Warn("failed to remove partial playlist", "destination", result.DestID, "err", err)
		return
	}
	result.CleanedUp = true
	logger.Info("removed partial playlist", "destination", result.DestID)
}
