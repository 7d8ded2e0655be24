// Package event defines the emtrace data model shared by the decoder, the
// correlation engine, the persistent store and the synchronizer.
//
// # Model
//
//   - EventType: device-declared descriptor (id, name, field types and
//     field descriptions). A type whose descriptions contain MemAddressTag is
//     trackable: its first field is the identity used for correlation.
//   - Event: one decoded frame with a reconstructed timestamp in seconds.
//   - TrackedEvent: the lifecycle of one occurrence. Submit is always set,
//     ProcStartTime/ProcEndTime only when processing brackets were matched.
//   - Dataset: a registry plus the ordered tracked events of one recording
//     (or one merged result). Every submit type id must be registered.
//
// Errors raised by the pipeline share one Error type with a Code, see
// errors.go.
package event
