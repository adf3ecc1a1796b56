package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aviro092/servicenow-mcp-server/internal/config"
	"github.com/aviro092/servicenow-mcp-server/internal/server"
	"github.com/aviro092/servicenow-mcp-server/internal/servicenow"
)

func registerIncidentTaskTools(srv *server.Server, client Client, scopes config.ScopeConfig) {
	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("get_incident_task",
			mcp.WithDescription("Get incident task record details by task number, including the parent incident, assignment, and status."),
			mcp.WithString("incident_task_number", mcp.Required(), mcp.Description("The incident task number (e.g., TASK0133364)")),
		),
		RequiredScope: scopes.IncidentTaskRead,
		Handler:       getIncidentTaskHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("create_incident_task",
			mcp.WithDescription("Create a new incident task under an existing incident. Required fields: incident_number, short_description, service_name, company_name, configuration_item."),
			mcp.WithString("incident_number", mcp.Required(), mcp.Description("Parent incident number (e.g., INC0012345)")),
			mcp.WithString("short_description", mcp.Required(), mcp.Description("Task short description (max 120 chars)")),
			mcp.WithString("service_name", mcp.Required(), mcp.Description("Agreement id mapped to cmdb_ci_service table")),
			mcp.WithString("company_name", mcp.Required(), mcp.Description("Associated account details")),
			mcp.WithString("configuration_item", mcp.Required(), mcp.Description("Configuration item mapped to cmdb_ci table entry")),
			mcp.WithString("description", mcp.Description("Task description details (max 4000 chars)")),
			mcp.WithNumber("priority", mcp.Description("Priority level (1=Critical, 2=High, 3=Medium, 4=Low)")),
			mcp.WithString("assignment_group", mcp.Description("Assignment group mapped to sys_user_group table entries")),
			mcp.WithString("assigned_to", mcp.Description("Assigned user mapped to sys_user table entries")),
		),
		RequiredScope: scopes.IncidentTaskWrite,
		Handler:       createIncidentTaskHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("update_incident_task",
			mcp.WithDescription("Update incident task record by task number. Short description and state are required; all other fields are optional."),
			mcp.WithString("incident_task_number", mcp.Required(), mcp.Description("The incident task number to update (e.g., TASK0133364)")),
			mcp.WithString("short_description", mcp.Required(), mcp.Description("Task short description (max 120 chars)")),
			mcp.WithNumber("state", mcp.Required(), mcp.Description("Task state (1=New, 2=In Progress, 3=On Hold, 6=Resolved, 7=Closed, 8=Canceled)")),
			mcp.WithString("description", mcp.Description("Task description details (max 4000 chars)")),
			mcp.WithNumber("priority", mcp.Description("Priority level (1=Critical, 2=High, 3=Medium, 4=Low)")),
			mcp.WithString("assignment_group", mcp.Description("Assignment group mapped to sys_user_group table entries")),
			mcp.WithString("assigned_to", mcp.Description("Assigned user mapped to sys_user table entries")),
		),
		RequiredScope: scopes.IncidentTaskWrite,
		Handler:       updateIncidentTaskHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("list_incident_task_fields",
			mcp.WithDescription("List all available incident task fields with descriptions and examples."),
		),
		RequiredScope: scopes.IncidentTaskRead,
		Handler: func(context.Context, map[string]interface{}) (interface{}, error) {
			return incidentTaskFieldsInfo(), nil
		},
	})
}

func getIncidentTaskHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		number, err := requiredString(args, "incident_task_number")
		if err != nil {
			return nil, err
		}
		rec, err := client.GetIncidentTask(ctx, number)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"incident_task": rec,
			"display":       FormatIncidentTask(rec),
		}, nil
	}
}

func createIncidentTaskHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		fields := servicenow.Record{}
		for _, key := range []string{
			"incident_number", "short_description", "service_name",
			"company_name", "configuration_item",
		} {
			v, err := requiredString(args, key)
			if err != nil {
				return nil, err
			}
			fields[key] = v
		}
		if err := checkMaxLen("short_description", fields["short_description"].(string), maxShortDescriptionLen); err != nil {
			return nil, err
		}
		if err := applyTaskOptionals(args, fields); err != nil {
			return nil, err
		}

		rec, err := client.CreateIncidentTask(ctx, fields)
		if err != nil {
			return nil, err
		}
		number := field(rec, "task_number")
		if number == "" {
			number = field(rec, "number")
		}
		return map[string]interface{}{
			"message":       fmt.Sprintf("Incident task %s created successfully", number),
			"incident_task": rec,
			"display":       FormatIncidentTask(rec),
		}, nil
	}
}

func updateIncidentTaskHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		number, err := requiredString(args, "incident_task_number")
		if err != nil {
			return nil, err
		}
		short, err := requiredString(args, "short_description")
		if err != nil {
			return nil, err
		}
		if err := checkMaxLen("short_description", short, maxShortDescriptionLen); err != nil {
			return nil, err
		}
		state, err := requiredInt(args, "state")
		if err != nil {
			return nil, err
		}
		if err := checkRange("state", state, 1, 8); err != nil {
			return nil, err
		}

		fields := servicenow.Record{
			"short_description": short,
			"state":             state,
		}
		if err := applyTaskOptionals(args, fields); err != nil {
			return nil, err
		}

		rec, err := client.UpdateIncidentTask(ctx, number, fields)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"message":       fmt.Sprintf("Incident task %s updated successfully", number),
			"incident_task": rec,
			"display":       FormatIncidentTask(rec),
		}, nil
	}
}

func applyTaskOptionals(args map[string]interface{}, fields servicenow.Record) error {
	if err := copyStrings(args, fields, "description", "assignment_group", "assigned_to"); err != nil {
		return err
	}
	if v, ok := fields["description"].(string); ok {
		if err := checkMaxLen("description", v, maxDescriptionLen); err != nil {
			return err
		}
	}
	if priority, ok, err := optionalInt(args, "priority"); err != nil {
		return err
	} else if ok {
		if err := checkRange("priority", priority, 1, 4); err != nil {
			return err
		}
		fields["priority"] = priority
	}
	return nil
}
