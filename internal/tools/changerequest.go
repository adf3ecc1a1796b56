package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/internal/config"
	"github.com/aviro092/servicenow-mcp-server/internal/server"
	"github.com/aviro092/servicenow-mcp-server/internal/servicenow"
)

func registerChangeRequestTools(srv *server.Server, client Client, scopes config.ScopeConfig) {
	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("get_change_request",
			mcp.WithDescription("Get change request record details by change request number, including status, plans, and assignment."),
			mcp.WithString("changerequest_number", mcp.Required(), mcp.Description("The change request number (e.g., CHG0035060)")),
		),
		RequiredScope: scopes.ChangeRequestRead,
		Handler:       getChangeRequestHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("search_change_requests",
			mcp.WithDescription("Search change request records based on query parameters. All parameters are optional; with none given, returns active change requests."),
			mcp.WithBoolean("active", mcp.Description("Select active records (default true)")),
			mcp.WithString("requested_by", mcp.Description("Search by requestor name")),
			mcp.WithString("agreement_id", mcp.Description("Search by agreement id")),
			mcp.WithString("company", mcp.Description("Search by company")),
			mcp.WithString("category", mcp.Description("Search by category")),
			mcp.WithString("cmdb_ci", mcp.Description("Search by CMDB CI")),
			mcp.WithString("type", mcp.Description("Search by type (Standard, Emergency, Normal)")),
			mcp.WithNumber("priority", mcp.Description("Search by priority (1=Critical, 2=High, 3=Medium, 4=Low)")),
			mcp.WithNumber("risk", mcp.Description("Search by risk (1=Very Low, 2=Low, 3=Medium, 4=High, 5=Very High)")),
			mcp.WithNumber("impact", mcp.Description("Search by impact (1=Critical, 2=High, 3=Medium, 4=Low)")),
			mcp.WithNumber("state", mcp.Description("Search by state (1=New, 2=Assess, 3=Authorize, 4=Scheduled, 5=Implement, 6=Review, 7=Closed, 8=Canceled)")),
			mcp.WithString("assignment_group", mcp.Description("Search by assignment group")),
			mcp.WithString("assigned_to", mcp.Description("Search by assigned user")),
		),
		RequiredScope: scopes.ChangeRequestRead,
		Handler:       searchChangeRequestsHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("update_change_request",
			mcp.WithDescription("Update change request record by change request number. Company name is required; all other fields are optional."),
			mcp.WithString("changerequest_number", mcp.Required(), mcp.Description("The change request number to update (e.g., CHG0035060)")),
			mcp.WithString("company_name", mcp.Required(), mcp.Description("Company name from company record")),
			mcp.WithString("description", mcp.Description("Description for change request")),
			mcp.WithString("comments", mcp.Description("New comment to be added to change request")),
			mcp.WithBoolean("on_hold", mcp.Description("Whether to put change request on hold")),
			mcp.WithString("on_hold_reason", mcp.Description("Reason for putting change request on hold")),
			mcp.WithBoolean("resolved", mcp.Description("Whether to mark change request as resolved")),
			mcp.WithString("customer_reference_id", mcp.Description("Customer change request number")),
		),
		RequiredScope: scopes.ChangeRequestWrite,
		Handler:       updateChangeRequestHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("approve_change_request",
			mcp.WithDescription("Approve or reject a change request that is in Authorize state. The decision is recorded with approver details."),
			mcp.WithString("changerequest_number", mcp.Required(), mcp.Description("The change request number to approve/reject (e.g., CHG0035060)")),
			mcp.WithString("state", mcp.Required(), mcp.Description("Either 'approved' or 'rejected'")),
			mcp.WithString("approver_email", mcp.Required(), mcp.Description("Email id of the approver user")),
			mcp.WithString("approver_name", mcp.Description("User name who approved/rejected the change request")),
			mcp.WithString("on_behalf", mcp.Description("API service account used for approving the change request")),
		),
		RequiredScope: scopes.ChangeRequestWrite,
		Handler:       approveChangeRequestHandler(client),
	})

	srv.RegisterTool(server.ToolDescriptor{
		Tool: mcp.NewTool("list_change_request_fields",
			mcp.WithDescription("List all available change request fields with descriptions and examples."),
		),
		RequiredScope: scopes.ChangeRequestRead,
		Handler: func(context.Context, map[string]interface{}) (interface{}, error) {
			return changeRequestFieldsInfo(), nil
		},
	})
}

func getChangeRequestHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		number, err := requiredString(args, "changerequest_number")
		if err != nil {
			return nil, err
		}
		rec, err := client.GetChangeRequest(ctx, number)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"change_request": rec,
			"display":        FormatChangeRequest(rec),
		}, nil
	}
}

func searchChangeRequestsHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		params := map[string]interface{}{"active": true}
		if active, ok, err := optionalBool(args, "active"); err != nil {
			return nil, err
		} else if ok {
			params["active"] = active
		}

		for key, max := range map[string]int{"priority": 4, "impact": 4, "risk": 5, "state": 8} {
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
			"requested_by", "agreement_id", "company", "category", "cmdb_ci",
			"type", "assignment_group", "assigned_to",
		} {
			if v, ok, err := optionalString(args, key); err != nil {
				return nil, err
			} else if ok && v != "" {
				params[key] = v
			}
		}

		records, err := client.SearchChangeRequests(ctx, params)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"count":           len(records),
			"change_requests": records,
			"display":         summarizeChangeRequests(records, len(records)),
		}, nil
	}
}

func updateChangeRequestHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		number, err := requiredString(args, "changerequest_number")
		if err != nil {
			return nil, err
		}
		company, err := requiredString(args, "company_name")
		if err != nil {
			return nil, err
		}

		fields := servicenow.Record{"company_name": company}
		if err := copyStrings(args, fields,
			"description", "comments", "on_hold_reason", "customer_reference_id"); err != nil {
			return nil, err
		}
		// Upstream expects booleans as lowercase strings in the payload.
		for _, key := range []string{"on_hold", "resolved"} {
			if v, ok, err := optionalBool(args, key); err != nil {
				return nil, err
			} else if ok {
				fields[key] = strconv.FormatBool(v)
			}
		}
		if fields["on_hold"] == "true" {
			if _, present := fields["on_hold_reason"]; !present {
				return nil, apierr.New(apierr.KindValidation, "on_hold_reason is required when placing a change request on hold")
			}
		}

		rec, err := client.UpdateChangeRequest(ctx, number, fields)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"message":        fmt.Sprintf("Change request %s updated successfully", number),
			"change_request": rec,
			"display":        FormatChangeRequest(rec),
		}, nil
	}
}

func approveChangeRequestHandler(client Client) server.HandlerFunc {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		number, err := requiredString(args, "changerequest_number")
		if err != nil {
			return nil, err
		}
		state, err := requiredString(args, "state")
		if err != nil {
			return nil, err
		}
		if state != "approved" && state != "rejected" {
			return nil, apierr.New(apierr.KindValidation, "argument %q must be 'approved' or 'rejected', got %q", "state", state)
		}
		email, err := requiredString(args, "approver_email")
		if err != nil {
			return nil, err
		}

		fields := servicenow.Record{
			"state":          state,
			"approver_email": email,
		}
		if err := copyStrings(args, fields, "approver_name", "on_behalf"); err != nil {
			return nil, err
		}

		rec, err := client.ApproveChangeRequest(ctx, number, fields)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"message":        fmt.Sprintf("Change request %s has been %s", number, state),
			"approval_state": state,
			"approver_email": email,
			"change_request": rec,
		}, nil
	}
}
