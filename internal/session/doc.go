// Package session correlates short-lived addressed messages with the
// long-lived server-push streams they belong to.
//
// Responsibilities:
// - Mint session identifiers and keep the registry of open streams.
// - Drive one stream through Connecting, Attaching, Open and Closed.
// - Resolve an addressed message to its stream and forward it to the
//   message handler.
//
// Non-responsibilities:
// - HTTP parsing, CORS and rate limiting (see internal/adapters/rpc).
// - Executing backend operations (see internal/app).
package session
