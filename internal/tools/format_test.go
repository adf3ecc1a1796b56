package tools

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aviro092/servicenow-mcp-server/internal/servicenow"
)

func TestFormatIncidentLabelsChoiceFields(t *testing.T) {
	out := FormatIncident(servicenow.Record{
		"number":            "INC0010001",
		"state":             "2",
		"priority":          "1",
		"urgency":           "4",
		"short_description": "Printer down",
	})

	assert.Contains(t, out, "Number: INC0010001")
	assert.Contains(t, out, "State: 2 - In Progress")
	assert.Contains(t, out, "Priority: 1 - Critical")
	assert.Contains(t, out, "Urgency: 4 - Low")
}

func TestFormatIncidentKeepsUnknownCodes(t *testing.T) {
	out := FormatIncident(servicenow.Record{"number": "INC1", "state": "In Progress"})
	assert.Contains(t, out, "State: In Progress")
}

func TestFormatIncidentResolutionAndTasks(t *testing.T) {
	out := FormatIncident(servicenow.Record{
		"number": "INC1",
		"resolution_info": map[string]interface{}{
			"resolution_code": "Solved (Permanently)",
			"resolved_by":     "resolver@company.com",
		},
		"incident_tasks": []interface{}{
			map[string]interface{}{
				"task_number":       "TASK1",
				"short_description": "Check logs",
				"state":             "Open",
			},
		},
	})

	assert.Contains(t, out, "Code: Solved (Permanently)")
	assert.Contains(t, out, "Incident Tasks (1)")
	assert.Contains(t, out, "TASK1")
	assert.Contains(t, out, "Assigned to: Unassigned")
}

func TestFormatChangeRequestPlans(t *testing.T) {
	out := FormatChangeRequest(servicenow.Record{
		"number":              "CHG0035060",
		"state":               "3",
		"risk":                "5",
		"implementation_plan": "Step 1: back up config",
		"backout_plan":        "Restore backup",
	})

	assert.Contains(t, out, "State: 3 - Authorize")
	assert.Contains(t, out, "Risk: 5 - Very High")
	assert.Contains(t, out, "Implementation Plan:")
	assert.Contains(t, out, "Restore backup")
}

func TestFormatIncidentTask(t *testing.T) {
	out := FormatIncidentTask(servicenow.Record{
		"task_number":     "TASK0133364",
		"incident_number": "INC0134292",
		"state":           "1",
		"url":             "https://acme.service-now.com/task.do?sys_id=abc",
	})

	assert.Contains(t, out, "Task Number: TASK0133364")
	assert.Contains(t, out, "Incident Number: INC0134292")
	assert.Contains(t, out, "State: 1 - New")
	assert.Contains(t, out, "URL: https://acme.service-now.com/task.do?sys_id=abc")
}

func TestSummarizeIncidentsCapsAtTen(t *testing.T) {
	var records []servicenow.Record
	for i := 0; i < 15; i++ {
		records = append(records, servicenow.Record{"number": fmt.Sprintf("INC%04d", i)})
	}

	out := summarizeIncidents(records, len(records))
	assert.Contains(t, out, "Found 15 incident(s)")
	assert.Contains(t, out, "INC0009")
	assert.NotContains(t, out, "INC0010")
	assert.Contains(t, out, "... and 5 more incidents")
	assert.Equal(t, 10, strings.Count(out, "Short Description:"))
}
