// Package app contains the method table and call semantics of the
// gateway, independent of transport protocols.
//
// Responsibilities:
// - Validate call envelopes and dispatch them by method name to the
//   backend chain service.
// - Encode results so unbounded integers never lose precision on the wire.
// - Serve addressed messages arriving for persistent stream sessions.
//
// Non-responsibilities:
// - HTTP protocol handling and endpoint-level mapping.
// - Session registration and stream lifecycle.
package app
