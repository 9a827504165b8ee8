// Package tasks orchestrates the shuffle-to-new-playlist operation with real-time progress reporting.
//
// # Core Operation
//
// [Replicator.Replicate] copies a playlist into a new one in random order:
//
//  1. Notifies the caller that the run started, then waits one base delay
//  2. Fetches the source playlist name
//  3. Fetches every track ID in the source (paginated by the [Remote])
//  4. Creates an empty destination named "<name> (shuffled)"
//  5. Shuffles the IDs with [shuffle.Shuffle]
//  6. Writes the IDs in batches of at most 100, strictly one at a time, waiting a fixed delay before each batch
//
// The delay doubles for sources with at least [DefaultLargeThreshold] tracks.
//
// # Failure Handling
//
// Every remote step fails fast and aborts the run; nothing is retried.
// Errors wrap one of [shared.ErrMetadataFetch], [shared.ErrItemFetch], [shared.ErrCreate] or [shared.ErrBatchWrite].
// A failed batch leaves the destination partially populated. The [ReplicateResult] returned alongside the error
// names the destination and how many tracks landed; [ReplicatorOpts.CleanupOnFailure] unfollows it instead.
//
// # Progress Reporting
//
// Updates are sent on a caller-owned channel with select/default, so a slow or absent reader never blocks a run.
// The Started, Succeeded and Failed phases carry the user-facing notification text; diagnostic detail goes to the logger.
package tasks
