// Package logging provides the process-wide structured logger.
//
// It is a thin wrapper over log/slog with a subsystem-tagged API:
//
//	logging.Info("ServiceNow", "fetched incident %s", number)
//	logging.Error("Auth", err, "token verification failed")
//
// Init must be called once at startup. Log output goes to the writer
// passed to Init (stderr in practice, keeping stdout free for the
// stdio MCP transport).
package logging
