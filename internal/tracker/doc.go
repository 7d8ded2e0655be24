// Package tracker turns a live sequence of decoded events into tracked
// events.
//
// ARCHITECTURE:
//
// Single-consumer pipeline:
//  1. A reader goroutine pulls frames from the protocol.Decoder and
//     enqueues them, in stream order, into one FIFO queue.
//  2. Session.Run dequeues events one at a time and feeds the Engine.
//  3. Every TrackedEvent the Engine emits goes straight to the Sink.
//
// The Engine is a plain state machine with no locking. Only the Run loop
// goroutine touches it, so pending events are never mutated concurrently.
//
// Correlation rules, per incoming event e:
//   - event_processing_start: the most recently pending submit whose first
//     field equals e's first field is removed from pending and becomes the
//     open pair.
//   - event_processing_end: if the open pair has the same identity, emit it
//     with its start and end times and clear it. Otherwise e is dropped.
//   - trackable type: e joins pending.
//   - anything else: e is emitted immediately without a processing window.
//
// Bracket loss is an expected consequence of capture start/stop races, so
// unmatched brackets and never-started submits are dropped silently (debug
// log only).
package tracker
