// Package server hosts the MCP server: transport setup (stdio, SSE,
// streamable HTTP), the tool registry, and the dispatch pipeline that
// runs every invocation through authentication, scope authorization,
// the tool handler, and the uniform result envelope, in that order.
package server
