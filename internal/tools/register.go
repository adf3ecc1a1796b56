package tools

import (
	"context"

	"github.com/aviro092/servicenow-mcp-server/internal/config"
	"github.com/aviro092/servicenow-mcp-server/internal/server"
	"github.com/aviro092/servicenow-mcp-server/internal/servicenow"
)

// Client is the upstream surface the tools depend on. Satisfied by
// *servicenow.Client; tests substitute a fake.
type Client interface {
	GetIncident(ctx context.Context, number string) (servicenow.Record, error)
	CreateIncident(ctx context.Context, fields servicenow.Record) (servicenow.Record, error)
	UpdateIncident(ctx context.Context, number string, fields servicenow.Record) (servicenow.Record, error)
	SearchIncidents(ctx context.Context, params map[string]interface{}) ([]servicenow.Record, error)

	GetChangeRequest(ctx context.Context, number string) (servicenow.Record, error)
	SearchChangeRequests(ctx context.Context, params map[string]interface{}) ([]servicenow.Record, error)
	UpdateChangeRequest(ctx context.Context, number string, fields servicenow.Record) (servicenow.Record, error)
	ApproveChangeRequest(ctx context.Context, number string, fields servicenow.Record) (servicenow.Record, error)

	GetIncidentTask(ctx context.Context, number string) (servicenow.Record, error)
	CreateIncidentTask(ctx context.Context, fields servicenow.Record) (servicenow.Record, error)
	UpdateIncidentTask(ctx context.Context, number string, fields servicenow.Record) (servicenow.Record, error)
}

// RegisterAll wires every tool and prompt onto the server.
func RegisterAll(srv *server.Server, client Client, scopes config.ScopeConfig) {
	registerIncidentTools(srv, client, scopes)
	registerChangeRequestTools(srv, client, scopes)
	registerIncidentTaskTools(srv, client, scopes)
	registerPrompts(srv, client)
}
