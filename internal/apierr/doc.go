// Package apierr defines the error taxonomy shared across the server.
//
// Every failure that can reach a caller is classified into one of a
// small set of kinds (auth, authorization, not found, rate limit,
// validation, API, internal). The ServiceNow client classifies
// upstream HTTP failures, the auth layer produces auth/authorization
// kinds, and the envelope formatter in internal/server is the single
// place that translates kinds into the wire-level response shape.
package apierr
