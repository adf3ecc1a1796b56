// Package servicenow implements the authenticated client for the
// upstream ServiceNow REST API.
//
// It has three layers:
//
//   - TokenManager owns the OAuth2 client-credentials lifecycle: it
//     exchanges the configured client id/secret for an access token,
//     caches it with an expiry safety margin, and coalesces concurrent
//     refreshes into a single exchange.
//   - Transport executes individual requests with per-call timeout,
//     exponential-backoff retry on transient failures, Retry-After
//     handling for throttling, and a single forced token refresh when
//     the upstream rejects a previously valid token.
//   - Client exposes the typed ITSM operations (incidents, change
//     requests, incident tasks) on top of Transport. Record payloads
//     are passed through as opaque JSON objects; the client only knows
//     the path layout and the result-unwrapping convention.
//
// All failures are classified into the internal/apierr taxonomy before
// leaving the package.
package servicenow
