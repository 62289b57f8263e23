// Package tracker turns player telemetry into per-segment watch progress, synchronizes it with the
// progress server and drives a [Projection].
//
// # Pipeline
//
//  1. [Adapter] normalizes [player.Event] values into [Tick] values, dropping timeupdates while paused.
//  2. [Gate] throttles playing ticks, marks the segment under the playhead, recomputes the percent and, when
//     the percent differs from the last synced value, fires one asynchronous sync and persists the snapshot.
//  3. [Projection] receives every visible change; it is only ever written, never read.
//
// [SeekController] runs the opposite direction: a "jump to segment" request becomes pause → seek → play
// against the player, one request at a time in arrival order.
//
// # Concurrency
//
// [Engine.Run] owns the segment store, the gate and the projection. Telemetry and seek-controller messages
// are consumed from channels by that single goroutine, so none of them need locks. Sync calls are the only
// work left in flight between ticks; [Engine.Run] waits for them before returning.
//
// # Failure Handling
//
// Nothing in this package surfaces errors to the viewer. Sync and cache failures are logged and local state
// is kept; seek failures are logged and the processing flag is always cleared.
package tracker
