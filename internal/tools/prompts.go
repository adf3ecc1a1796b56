package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aviro092/servicenow-mcp-server/internal/server"
)

func registerPrompts(srv *server.Server, client Client) {
	srv.RegisterPrompt(mcp.Prompt{
		Name:        "incident_analysis",
		Description: "Generate an analysis prompt for an incident: root cause, impact assessment, or resolution guidance.",
		Arguments: []mcp.PromptArgument{
			{Name: "incident_number", Description: "The incident to analyze (e.g., INC9243406)", Required: true},
			{Name: "analysis_type", Description: "Type of analysis: root_cause, impact, or resolution (default root_cause)"},
		},
	}, incidentAnalysisPrompt(client))

	srv.RegisterPrompt(mcp.Prompt{
		Name:        "daily_incidents_summary",
		Description: "Generate a trend analysis prompt over the currently active incidents, optionally filtered.",
		Arguments: []mcp.PromptArgument{
			{Name: "state", Description: "Filter by state code (e.g., 2 for In Progress)"},
			{Name: "priority", Description: "Filter by priority code (1=Critical, 2=High, 3=Medium, 4=Low)"},
			{Name: "assignment_group", Description: "Filter by assignment group"},
		},
	}, dailyIncidentsSummaryPrompt(client))

	srv.RegisterPrompt(mcp.Prompt{
		Name:        "change_request_approval",
		Description: "Generate a Change Advisory Board evaluation prompt for a change request approval decision.",
		Arguments: []mcp.PromptArgument{
			{Name: "changerequest_number", Description: "The change request to evaluate (e.g., CHG0035060)", Required: true},
		},
	}, changeRequestApprovalPrompt(client))

	srv.RegisterPrompt(mcp.Prompt{
		Name:        "automation_suggestions",
		Description: "Generate an automation opportunity analysis prompt from recently resolved incidents.",
	}, automationSuggestionsPrompt(client))
}

func promptResult(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.TextContent{Type: "text", Text: text},
			},
		},
	}
}

func incidentAnalysisPrompt(client Client) func(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		number := req.Params.Arguments["incident_number"]
		if number == "" {
			return nil, fmt.Errorf("incident_number argument is required")
		}
		analysisType := req.Params.Arguments["analysis_type"]
		if analysisType == "" {
			analysisType = "root_cause"
		}

		rec, err := client.GetIncident(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("could not fetch incident %s: %w", number, err)
		}
		display := FormatIncident(rec)

		var text string
		switch analysisType {
		case "root_cause":
			text = fmt.Sprintf(`You are a ServiceNow incident analyst. Analyze the following incident and provide root cause analysis.

## Incident Details:
%s

## Analysis Tasks:
1. **Identify Root Cause**: Based on the symptoms and description, what is the likely root cause?
2. **Contributing Factors**: What system conditions or events may have contributed?
3. **Similar Patterns**: Does this match any known issue patterns?
4. **Prevention Strategy**: How can similar incidents be prevented?
5. **Immediate Actions**: What should be done right now to mitigate impact?

Provide specific, technical, and actionable recommendations based on the incident details.`, display)

		case "impact":
			text = fmt.Sprintf(`You are a ServiceNow incident analyst. Assess the business impact of the following incident.

## Incident Details:
%s

## Impact Assessment Tasks:
1. **Service Impact**: Which services and systems are affected?
2. **User Impact**: How many users are likely affected? Which departments?
3. **Business Impact**: What is the revenue/operational impact?
4. **Risk Assessment**: What are the risks if this escalates?
5. **Priority Recommendation**: Should the priority be adjusted?

Provide specific metrics and quantifiable impact where possible.`, display)

		case "resolution":
			text = fmt.Sprintf(`You are a ServiceNow incident resolver. Provide resolution guidance for the following incident.

## Incident Details:
%s

## Resolution Tasks:
1. **Resolution Steps**: Provide step-by-step resolution procedure
2. **Verification Steps**: How to verify the issue is resolved
3. **Communication Plan**: Who should be notified and when
4. **Documentation**: What should be documented for future reference
5. **Follow-up Actions**: Any preventive measures or monitoring needed

Provide clear, actionable steps that a technician can follow.`, display)

		default:
			text = fmt.Sprintf(`Analyze the following ServiceNow incident:

## Incident Details:
%s

Provide comprehensive analysis and recommendations.`, display)
		}

		return promptResult(fmt.Sprintf("%s analysis for %s", analysisType, number), text), nil
	}
}

func dailyIncidentsSummaryPrompt(client Client) func(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		params := map[string]interface{}{"active": true}
		filters := map[string]string{"State": "All", "Priority": "All", "Assignment Group": "All"}
		if v := req.Params.Arguments["state"]; v != "" {
			params["state"] = v
			filters["State"] = v
		}
		if v := req.Params.Arguments["priority"]; v != "" {
			params["priority"] = v
			filters["Priority"] = v
		}
		if v := req.Params.Arguments["assignment_group"]; v != "" {
			params["assignment_group"] = v
			filters["Assignment Group"] = v
		}

		records, err := client.SearchIncidents(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("searching incidents: %w", err)
		}

		var summary strings.Builder
		fmt.Fprintf(&summary, "Found %d incidents matching criteria:\n- Active: true\n- State: %s\n- Priority: %s\n- Assignment Group: %s\n\n## Incidents List:\n",
			len(records), filters["State"], filters["Priority"], filters["Assignment Group"])
		for i, rec := range records {
			if i == 20 {
				break
			}
			fmt.Fprintf(&summary, "\n### %d. %s\n- State: %s\n- Priority: %s\n- Short Description: %s\n- Assignment Group: %s\n- Created: %s\n",
				i+1, field(rec, "number"), field(rec, "state"), field(rec, "priority"),
				field(rec, "short_description"), field(rec, "assignment_group"), field(rec, "created_date"))
		}

		text := fmt.Sprintf(`You are a ServiceNow operations manager. Analyze the following incidents and provide insights.

## Incident Summary:
%s

## Analysis Tasks:
1. **Trend Analysis**: Identify patterns in incident types, categories, or services
2. **Volume Analysis**: Are incident volumes normal, increasing, or decreasing?
3. **Hot Spots**: Which services or components have the most issues?
4. **Team Performance**: How are assignment groups performing?
5. **Priority Assessment**: Are incidents correctly prioritized?
6. **Action Items**: Top 3 immediate actions to improve service quality

Provide data-driven insights and specific recommendations.`, summary.String())

		return promptResult(fmt.Sprintf("Summary of %d active incidents", len(records)), text), nil
	}
}

func changeRequestApprovalPrompt(client Client) func(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		number := req.Params.Arguments["changerequest_number"]
		if number == "" {
			return nil, fmt.Errorf("changerequest_number argument is required")
		}

		rec, err := client.GetChangeRequest(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("could not fetch change request %s: %w", number, err)
		}

		text := fmt.Sprintf(`You are a Change Advisory Board (CAB) member. Evaluate the following change request for approval.

## Change Request Details:
%s

## Evaluation Criteria:
1. **Risk Assessment**:
   - What is the risk level (Low/Medium/High/Critical)?
   - What could go wrong?
   - What is the blast radius if it fails?

2. **Implementation Review**:
   - Is the implementation plan complete and clear?
   - Are all dependencies identified?
   - Is the timeline realistic?

3. **Testing Assessment**:
   - Is the test plan adequate?
   - Have similar changes been tested before?
   - What testing gaps exist?

4. **Rollback Plan**:
   - Is the backout plan comprehensive?
   - How quickly can we rollback if needed?
   - What data might be lost in rollback?

5. **Business Impact**:
   - What is the business benefit?
   - What is the cost of NOT doing this change?
   - Are stakeholders informed and ready?

## Final Recommendation:
- **Decision**: APPROVE / REJECT / DEFER
- **Conditions**: Any conditions for approval
- **Risk Mitigations**: Required safeguards
- **Follow-up**: Post-implementation requirements

Provide detailed justification for your recommendation.`, FormatChangeRequest(rec))

		return promptResult(fmt.Sprintf("Approval evaluation for %s", number), text), nil
	}
}

func automationSuggestionsPrompt(client Client) func(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		// Recently resolved incidents carry the patterns worth automating.
		records, err := client.SearchIncidents(ctx, map[string]interface{}{"active": false, "state": 6})
		if err != nil {
			return nil, fmt.Errorf("searching incidents: %w", err)
		}

		categories := map[string][]string{}
		var order []string
		for i, rec := range records {
			if i == 50 {
				break
			}
			cat := field(rec, "category")
			if cat == "" {
				cat = "Unknown"
			}
			if _, seen := categories[cat]; !seen {
				order = append(order, cat)
			}
			categories[cat] = append(categories[cat], field(rec, "short_description"))
		}

		var patterns strings.Builder
		fmt.Fprintf(&patterns, "Analyzed %d recently resolved incidents.\n\n## Common Incident Categories:\n", len(records))
		for _, cat := range order {
			descriptions := categories[cat]
			fmt.Fprintf(&patterns, "\n### %s (%d incidents)\nSample issues:\n", cat, len(descriptions))
			for i, desc := range descriptions {
				if i == 3 {
					break
				}
				fmt.Fprintf(&patterns, "- %s\n", desc)
			}
		}

		text := fmt.Sprintf(`You are an IT automation specialist. Identify automation opportunities from these ServiceNow incidents.

## Incident Pattern Analysis:
%s

## Automation Analysis Tasks:

1. **Repeatable Patterns**: Which incident types occur frequently and could be automated?
2. **Self-Healing Opportunities**: Which issues could be automatically detected and resolved?
3. **Automated Diagnostics**: What diagnostic data collection could be automated?
4. **Proactive Monitoring**: What monitoring could prevent these incidents?
5. **Workflow Automation**: Which manual processes could be automated?

## Deliverables:
1. **Top 5 Automation Opportunities** (ranked by impact)
2. **Implementation Approach** for each opportunity
3. **Expected Benefits** (time saved, incidents prevented)
4. **Required Tools/Technologies**
5. **Quick Wins** (can be implemented in <1 week)

Focus on practical, high-impact automation that can be implemented with existing ServiceNow capabilities.`, patterns.String())

		return promptResult("Automation opportunity analysis", text), nil
	}
}
