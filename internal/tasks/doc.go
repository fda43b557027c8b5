// Package tasks implements the liked-songs transfer pipeline.
//
// # Core Operations
//
// The [TransferEngine] composes three sequential stages:
//
//  1. [TransferEngine.FetchLibrary] : paginated extraction of every saved
//     track from the source account, with bounded per-page retries. A page
//     that still fails after retries aborts the whole fetch; a truncated
//     library would corrupt ordering downstream, so extraction fails closed.
//
//  2. [OrderChronologically] : stable sort of the fetched set by original
//     save timestamp, oldest first.
//
//  3. [TransferEngine.Transfer] : sequential insertion into the destination
//     account, one track per call, pacing each insertion through a
//     [DelayStrategy]. A failing track is retried a bounded number of
//     times, then recorded and skipped past; credential expiry, an
//     unauthorized destination, or rate-limit exhaustion abort the job.
//
// The full list is fetched and sorted before any insertion so a single
// consistent order is ever written. Insertions are deliberately not
// concurrent: the destination API gives no ordering guarantee, and the
// inter-insertion delay is the only lever biasing its internal order
// toward insertion order.
//
// # Job State Machine
//
// [TransferJob] moves Pending → Running → one of Completed,
// CompletedWithErrors, or Aborted. Terminal states have no transitions
// out. The cursor advances monotonically, once per processed track,
// regardless of per-track outcome. Cancellation is honored at each loop
// boundary, never mid-item.
//
// # Progress Reporting
//
// All operations send [ProgressUpdate] values through a caller-provided
// channel using a non-blocking send; a slow or absent consumer never
// affects job state. Every run ends with a single summary update listing
// each failed track and why.
package tasks
