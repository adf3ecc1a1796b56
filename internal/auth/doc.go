// Package auth authenticates tool callers and enforces scope-based
// authorization.
//
// Two verifier implementations exist behind the Verifier interface: a
// mock allow-list for development and testing, and a JWKS-backed JWT
// verifier for identity-provider tokens. Both return the same Identity
// shape, so the dispatch pipeline is unaware of the mode.
//
// Verification failures surface the same "invalid token" message
// regardless of which check failed; the detail goes to the log.
package auth
