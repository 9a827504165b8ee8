package tasks

import "fmt"

// ProgressUpdate represents a progress event during a shuffle run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Notification messages shown to the person who started the run.
const (
	StartedMessage   = "Shuffling to new playlist (may take a minute)..."
	SucceededMessage = "Playlist shuffled successfully! You may need to refresh or reload your playlist."
	FailedMessage    = "Something went wrong shuffling the playlist. Please try again."
)

// Operation phase enumeration
type Phase int

const (
	Started Phase = iota
	FetchMetadata
	FetchItems
	CreatePlaylist
	ShuffleItems
	WriteBatch
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Started:
		return "started"
	case FetchMetadata:
		return "fetch_metadata"
	case FetchItems:
		return "fetch_items"
	case CreatePlaylist:
		return "create_playlist"
	case ShuffleItems:
		return "shuffle_items"
	case WriteBatch:
		return "write_batch"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether no further updates follow this phase.
func (p Phase) Terminal() bool {
	return p == Succeeded || p == Failed
}

func startedUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{Phase: Started, Message: StartedMessage, Data: playlistID}
}

func fetchMetadataUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMetadata,
		Message: fmt.Sprintf("Fetching playlist %s...", playlistID),
	}
}

func fetchItemsUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchItems,
		Message: fmt.Sprintf("Fetching tracks from %s...", name),
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Message: fmt.Sprintf("Creating %s...", name),
	}
}

func shuffledUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ShuffleItems,
		Total:   count,
		Message: fmt.Sprintf("Shuffled %d tracks", count),
	}
}

func writeBatchUpdate(batch, batches, written, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteBatch,
		Step:    batch,
		Total:   batches,
		Message: fmt.Sprintf("[%d/%d] Added %d of %d tracks", batch, batches, written, total),
	}
}

func succeededUpdate(result *ReplicateResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Succeeded,
		Step:    result.Written,
		Total:   result.Total,
		Message: SucceededMessage,
		Data:    result,
	}
}

func failedUpdate(result *ReplicateResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Step:    result.Written,
		Total:   result.Total,
		Message: FailedMessage,
		Data:    result,
	}
}
