package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/internal/config"
	"github.com/aviro092/servicenow-mcp-server/internal/server"
	"github.com/aviro092/servicenow-mcp-server/internal/servicenow"
)

func registerIncidentTools(srv *server.Server, client Client, scopes config.ScopeConfig) {
	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("get_incident",
			mcp.WithDescription("Get incident record details by incident number, including status, assignment, resolution information, and associated tasks."),
			mcp.WithString("incident_number", mcp.Required(), mcp.Description("The incident number (e.g., INC654321)")),
		),
		RequiredScope: scopes.IncidentRead,
		Handler:       getIncidentHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("create_incident",
			mcp.WithDescription("Create a new incident record. Required fields: short_description, description, service_name, urgency."),
			mcp.WithString("short_description", mcp.Required(), mcp.Description("Brief description (max 120 chars)")),
			mcp.WithString("description", mcp.Required(), mcp.Description("Full description (max 4000 chars)")),
			mcp.WithString("service_name", mcp.Required(), mcp.Description("Service name mapped to cmdb_ci_service table")),
			mcp.WithNumber("urgency", mcp.Required(), mcp.Description("Urgency level (1=Critical, 2=High, 3=Medium, 4=Low)")),
			mcp.WithNumber("impact", mcp.Description("Impact level (1=Critical, 2=High, 3=Medium, 4=Low)")),
			mcp.WithString("category", mcp.Description("Category (e.g., Performance)")),
			mcp.WithString("subcategory", mcp.Description("Subcategory (e.g., Timeout)")),
			mcp.WithString("configuration_item", mcp.Description("Configuration item sys_id")),
			mcp.WithString("assigned_to", mcp.Description("Assigned user sys_id")),
			mcp.WithString("assignment_group", mcp.Description("Assignment group")),
			mcp.WithString("contact_type", mcp.Description("Interface type (e.g., Self-Service)")),
			mcp.WithString("customer_reference_id", mcp.Description("Customer ticket ID")),
		),
		RequiredScope: scopes.IncidentWrite,
		Handler:       createIncidentHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("update_incident",
			mcp.WithDescription("Update incident record by incident number. All fields are optional except incident_number; at least one update field is required."),
			mcp.WithString("incident_number", mcp.Required(), mcp.Description("The incident number to update (e.g., INC654321)")),
			mcp.WithNumber("state", mcp.Description("Incident state (1=New, 2=In Progress, 3=On Hold, 6=Resolved, 7=Closed, 8=Canceled)")),
			mcp.WithNumber("impact", mcp.Description("Impact level (1=Critical, 2=High, 3=Medium, 4=Low)")),
			mcp.WithNumber("urgency", mcp.Description("Urgency level (1=Critical, 2=High, 3=Medium, 4=Low)")),
			mcp.WithString("category", mcp.Description("Category (e.g., Performance)")),
			mcp.WithString("subcategory", mcp.Description("Subcategory (e.g., Slow Response)")),
			mcp.WithString("short_description", mcp.Description("Brief description (max 120 chars)")),
			mcp.WithString("description", mcp.Description("Full description (max 4000 chars)")),
			mcp.WithString("holdreason", mcp.Description("Reason for hold state")),
			mcp.WithString("service_impacting", mcp.Description("Service impact details")),
			mcp.WithString("comments", mcp.Description("Add comments to incident")),
			mcp.WithString("notes", mcp.Description("Add notes to incident")),
			mcp.WithString("customer_reference_id", mcp.Description("Customer ticket ID")),
		),
		RequiredScope: scopes.IncidentWrite,
		Handler:       updateIncidentHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("search_incidents",
			mcp.WithDescription("Search incident records based on query parameters. All parameters are optional; with none given, returns active incidents."),
			mcp.WithBoolean("active", mcp.Description("Select active records (default true)")),
			mcp.WithString("requested_by", mcp.Description("Search by incident requestor name")),
			mcp.WithString("company", mcp.Description("Search by company value")),
			mcp.WithString("service_name", mcp.Description("Search by service name")),
			mcp.WithString("category", mcp.Description("Search by category (e.g., Performance)")),
			mcp.WithString("subcategory", mcp.Description("Search by subcategory (e.g., Timeout)")),
			mcp.WithString("configuration_item", mcp.Description("Search by configuration item sys_id")),
			mcp.WithNumber("state", mcp.Description("Search by incident state (1=New, 2=In Progress, 3=On Hold, 6=Resolved, 7=Closed, 8=Canceled)")),
			mcp.WithNumber("priority", mcp.Description("Search by priority (1=Critical, 2=High, 3=Medium, 4=Low)")),
			mcp.WithString("assignment_group", mcp.Description("Search by assignment group")),
			mcp.WithString("assigned_to", mcp.Description("Search by assigned user")),
		),
		RequiredScope: scopes.IncidentRead,
		Handler:       searchIncidentsHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("list_incident_fields",
			mcp.WithDescription("List all available incident fields with descriptions and examples."),
		),
		RequiredScope: scopes.IncidentRead,
		Handler: func(context.Context, map[string]interface{}) (interface{}, error) {
			return incidentFieldsInfo(), nil
		},
	})
}

func getIncidentHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		number, err := requiredString(args, "incident_number")
		if err != nil {
			return nil, err
		}
		rec, err := client.GetIncident(ctx, number)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"incident": rec,
			"display":  FormatIncident(rec),
		}, nil
	}
}

func createIncidentHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		fields := servicenow.Record{}
		for _, key := range []string{"short_description", "description", "service_name"} {
			v, err := requiredString(args, key)
			if err != nil {
				return nil, err
			}
			fields[key] = v
		}
		if err := checkMaxLen("short_description", fields["short_description"].(string), maxShortDescriptionLen); err != nil {
			return nil, err
		}
		if err := checkMaxLen("description", fields["description"].(string), maxDescriptionLen); err != nil {
			return nil, err
		}

		urgency, err := requiredInt(args, "urgency")
		if err != nil {
			return nil, err
		}
		if err := checkRange("urgency", urgency, 1, 4); err != nil {
			return nil, err
		}
		fields["urgency"] = urgency

		if impact, ok, err := optionalInt(args, "impact"); err != nil {
			return nil, err
		} else if ok {
			if err := checkRange("impact", impact, 1, 4); err != nil {
				return nil, err
			}
			fields["impact"] = impact
		}
		if err := copyStrings(args, fields,
			"category", "subcategory", "configuration_item", "assigned_to",
			"assignment_group", "contact_type", "customer_reference_id"); err != nil {
			return nil, err
		}

		rec, err := client.CreateIncident(ctx, fields)
		if err != nil {
			return nil, err
		}
		number := field(rec, "number")
		return map[string]interface{}{
			"message":  fmt.Sprintf("Incident %s created successfully", number),
			"incident": rec,
			"display":  FormatIncident(rec),
		}, nil
	}
}

func updateIncidentHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		number, err := requiredString(args, "incident_number")
		if err != nil {
			return nil, err
		}

		fields := servicenow.Record{}
		for key, bound := range map[string][2]int{
			"state":   {1, 8},
			"impact":  {1, 4},
			"urgency": {1, 4},
		} {
			if v, ok, err := optionalInt(args, key); err != nil {
				return nil, err
			} else if ok {
				if err := checkRange(key, v, bound[0], bound[1]); err != nil {
					return nil, err
				}
				fields[key] = v
			}
		}
		if err := copyStrings(args, fields,
			"category", "subcategory", "short_description", "description",
			"holdreason", "service_impacting", "comments", "notes",
			"customer_reference_id"); err != nil {
			return nil, err
		}
		if v, ok := fields["short_description"].(string); ok {
			if err := checkMaxLen("short_description", v, maxShortDescriptionLen); err != nil {
				return nil, err
			}
		}
		if v, ok := fields["description"].(string); ok {
			if err := checkMaxLen("description", v, maxDescriptionLen); err != nil {
				return nil, err
			}
		}
		if len(fields) == 0 {
			return nil, apierr.New(apierr.KindValidation, "no update fields provided, at least one field must be specified")
		}

		rec, err := client.UpdateIncident(ctx, number, fields)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"message":  fmt.Sprintf("Incident %s updated successfully", number),
			"incident": rec,
			"display":  FormatIncident(rec),
		}, nil
	}
}

func searchIncidentsHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		params := map[string]interface{}{"active": true}
		if active, ok, err := optionalBool(args, "active"); err != nil {
			return nil, err
		} else if ok {
			params["active"] = active
		}

		for key, max := range map[string]int{"state": 8, "priority": 4} {
			if v, ok, err := optionalInt(args, key); err != nil {
				return nil, err
			} else if ok {
				if err := checkRange(key, v, 1, max); err != nil {
					return nil, err
				}
				params[key] = v
			}
		}
		for _, key := range []string{
			"requested_by", "company", "service_name", "category", "subcategory",
			"configuration_item", "assignment_group", "assigned_to",
		} {
			if v, ok, err := optionalString(args, key); err != nil {
				return nil, err
			} else if ok && v != "" {
				params[key] = v
			}
		}

		records, err := client.SearchIncidents(ctx, params)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"count":     len(records),
			"incidents": records,
			"display":   summarizeIncidents(records, len(records)),
		}, nil
	}
}

func copyStrings(args map[string]interface{}, fields servicenow.Record, keys ...string) error {
	for _, key := range keys {
		v, ok, err := optionalString(args, key)
		if err != nil {
			return err
		}
		if ok && v != "" {
			fields[key] = v
		}
	}
	return nil
}
