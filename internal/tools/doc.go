// Package tools defines the ServiceNow MCP tools and prompts:
// incident, change request, and incident task operations, the field
// catalogs, and the display formatting applied to records before they
// reach the caller.
//
// Every tool validates its arguments up front and returns classified
// errors; the dispatch pipeline in internal/server turns those into
// the uniform result envelope.
package tools
