package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/plshuffle/internal/shared"
	"github.com/desertthunder/plshuffle/internal/tasks"
	"github.com/desertthunder/plshuffle/internal/ui"
	"github.com/urfave/cli/v3"
)

// shuffleSummary is the --json rendering of a run.
type shuffleSummary struct {
	RunID      string   `json:"run_id"`
	OK         bool     `json:"ok"`
	Error      string   `json:"error,omitempty"`
	SourceID   string   `json:"source_id"`
	SourceName string   `json:"source_name,omitempty"`
	DestID     string   `json:"dest_id,omitempty"`
	DestName   string   `json:"dest_name,omitempty"`
	Total      int      `json:"total"`
	Written    int      `json:"written"`
	Batches    int      `json:"batches"`
	Snapshots  []string `json:"snapshots,omitempty"`
	DelayMS    int64    `json:"delay_ms"`
	CleanedUp  bool     `json:"cleaned_up,omitempty"`
}

func newShuffleSummary(res *tasks.ReplicateResult, err error) shuffleSummary {
	s := shuffleSummary{OK: err == nil && res.Complete()}
	if err != nil {
		s.Error = err.Error()
	}
	if res != nil {
		s.RunID = res.RunID
		s.SourceID = res.SourceID
		s.SourceName = res.SourceName
		s.DestID = res.DestID
		s.DestName = res.DestName
		s.Total = res.Total
		s.Written = res.Written
		s.Batches = res.Batches
		s.Snapshots = res.Snapshots
		s.DelayMS = res.Delay.Milliseconds()
		s.CleanedUp = res.CleanedUp
	}
	return s
}

// Shuffle creates "<name> (shuffled)" holding the source playlist's tracks in random order.
func (r *Runner) Shuffle(ctx context.Context, cmd *cli.Command) error {
	source := cmd.StringArg("playlist")
	if source == "" {
		return fmt.Errorf("%w: playlist URI, link or ID", shared.ErrMissingArgument)
	}
	if _, err := shared.PlaylistID(source); err != nil {
		return err
	}

	opts, err := r.replicatorOpts(cmd)
	if err != nil {
		return err
	}

	if err := r.connect(ctx); err != nil {
		return err
	}

	asJSON := cmd.Bool("json")
	replicator := tasks.NewReplicator(r.remote, opts)

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Debug("progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
			if asJSON {
				continue
			}
			switch update.Phase {
			case tasks.Started:
				r.writePlain("→ %s\n", update.Message)
			case tasks.WriteBatch:
				r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.Succeeded, tasks.Failed:
			default:
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	res, err := replicator.Replicate(ctx, []string{source}, progress)
	close(progress)
	wg.Wait()

	if asJSON {
		if werr := r.writeJSON(newShuffleSummary(res, err), true); werr != nil {
			return werr
		}
		if err != nil {
			return fmt.Errorf("%w: %w", errReported, err)
		}
		return nil
	}

	if err != nil {
		r.logger.Error("shuffle failed", "err", err)
		r.reportFailure(res)
		return fmt.Errorf("%w: %w", errReported, err)
	}

	palette := ui.Styles()
	r.writePlainln(palette.OK("✓ " + tasks.SucceededMessage))
	r.writePlain("Source: %s (%d tracks)\n", res.SourceName, res.Total)
	r.writePlain("New playlist: %s\n", res.DestName)
	r.writePlain("URI: %s\n", shared.URI{Type: shared.URITypePlaylist, ID: res.DestID})
	r.writePlain("Batches: %d\n", res.Batches)
	return nil
}

// reportFailure prints the generic failure notice plus what happened to a partial destination.
func (r *Runner) reportFailure(res *tasks.ReplicateResult) {
	palette := ui.Styles()
	r.writePlainln(palette.Err("✗ " + tasks.FailedMessage))
	if res == nil || res.DestID == "" {
		return
	}
	if res.CleanedUp {
		r.writePlain("%s\n", palette.Help(fmt.Sprintf("The partial playlist '%s' was removed.", res.DestName)))
		return
	}
	r.writePlain("%s\n", palette.Warn(fmt.Sprintf("'%s' was kept with %d of %d tracks.", res.DestName, res.Written, res.Total)))
}
