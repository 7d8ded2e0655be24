// Package protocol turns the raw byte stream of a traced device into typed
// events.
//
// A session starts with a textual descriptor handshake, one line per event
// type, terminated by an empty line:
//
//	name,id,type_1,...,type_k,desc_1,...,desc_k
//
// followed by an unbounded sequence of binary frames:
//
//	[type_id:1][ticks:4][field_1]...[field_k]
//
// Field widths follow the type tags (see event.FieldType). Device ticks wrap
// at a configured maximum; TickClock rebuilds a monotonic timestamp in
// seconds from them.
//
// Bytes come from a Transport. The decoder buffers short reads and never
// retries a failing transport: the error is surfaced to the caller, which
// owns the session lifecycle.
package protocol
