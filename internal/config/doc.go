// Package config loads and validates the process-wide configuration.
//
// Configuration is layered: built-in defaults, an optional YAML file,
// then environment variables (SERVICENOW_*, MCP_*, MCP_AUTH_*). The
// resulting Config is validated once at startup and treated as
// immutable for the process lifetime; components receive it by value
// or pointer but never mutate it.
package config
