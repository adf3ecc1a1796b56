package tools

import (
	"fmt"
	"strings"

	"github.com/aviro092/servicenow-mcp-server/internal/servicenow"
)

// Label maps for the numeric choice fields. Records usually arrive
// with display values already resolved; these cover the raw codes.
var (
	incidentStateLabels = map[string]string{
		"1": "New",
		"2": "In Progress",
		"3": "On Hold",
		"6": "Resolved",
		"7": "Closed",
		"8": "Canceled",
	}

	changeStateLabels = map[string]string{
		"1": "New",
		"2": "Assess",
		"3": "Authorize",
		"4": "Scheduled",
		"5": "Implement",
		"6": "Review",
		"7": "Closed",
		"8": "Canceled",
	}

	priorityLabels = map[string]string{
		"1": "Critical",
		"2": "High",
		"3": "Medium",
		"4": "Low",
	}

	riskLabels = map[string]string{
		"1": "Very Low",
		"2": "Low",
		"3": "Medium",
		"4": "High",
		"5": "Very High",
	}
)

func label(labels map[string]string, raw string) string {
	if l, ok := labels[raw]; ok {
		return fmt.Sprintf("%s - %s", raw, l)
	}
	return raw
}

// withLabels returns a copy of the record with raw choice codes
// replaced by "<code> - <label>" renderings.
func withLabels(rec servicenow.Record, labels map[string]map[string]string) servicenow.Record {
	out := make(servicenow.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	for key, m := range labels {
		if raw := field(rec, key); raw != "" {
			out[key] = label(m, raw)
		}
	}
	return out
}

func field(rec servicenow.Record, key string) string {
	if v, ok := rec[key]; ok && v != nil {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

type section struct {
	title  string
	fields [][2]string // label, record key
}

func renderSections(rec servicenow.Record, header string, sections []section) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("=", 60))

	for _, s := range sections {
		var lines []string
		for _, f := range s.fields {
			if v := field(rec, f[1]); v != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", f[0], v))
			}
		}
		if len(lines) == 0 {
			continue
		}
		b.WriteString("\n\n" + s.title + ":\n")
		b.WriteString(strings.Repeat("-", len(s.title)+1))
		for _, l := range lines {
			b.WriteString("\n" + l)
		}
	}
	return b.String()
}

// FormatIncident renders an incident record for human-readable
// display, including resolution details and child tasks when present.
func FormatIncident(rec servicenow.Record) string {
	rec = withLabels(rec, map[string]map[string]string{
		"state":    incidentStateLabels,
		"priority": priorityLabels,
		"impact":   priorityLabels,
		"urgency":  priorityLabels,
	})
	out := renderSections(rec, "Incident Details:", []section{
		{"Basic Information", [][2]string{
			{"Number", "number"},
			{"State", "state"},
			{"Priority", "priority"},
			{"Impact", "impact"},
			{"Urgency", "urgency"},
			{"Short Description", "short_description"},
		}},
		{"Contact & Classification", [][2]string{
			{"Requested By", "requested_by"},
			{"Company", "company"},
			{"Service", "service_name"},
			{"Category", "category"},
			{"Subcategory", "subcategory"},
		}},
		{"Assignment", [][2]string{
			{"Assignment Group", "assignment_group"},
			{"Assigned To", "assigned_to"},
			{"Configuration Item", "configuration_item"},
		}},
		{"Timestamps", [][2]string{
			{"Created Date", "created_date"},
			{"Created By", "created_by"},
			{"Modified Date", "modified_date"},
			{"Modified By", "modified_by"},
			{"Closed Date", "closed_date"},
			{"Closed By", "closed_by"},
		}},
	})

	if desc := field(rec, "description"); desc != "" {
		out += "\n\nDescription:\n" + strings.Repeat("-", 12) + "\n" + desc
	}

	if res, ok := rec["resolution_info"].(map[string]interface{}); ok {
		var lines []string
		for _, f := range [][2]string{
			{"Code", "resolution_code"},
			{"Resolved At", "resolved_at"},
			{"Resolved By", "resolved_by"},
			{"Notes", "resolution_notes"},
			{"Knowledge Article", "knowledge"},
		} {
			if v := field(res, f[1]); v != "" {
				lines = append(lines, fmt.Sprintf("%s: %s", f[0], v))
			}
		}
		if len(lines) > 0 {
			out += "\n\nResolution:\n" + strings.Repeat("-", 11) + "\n" + strings.Join(lines, "\n")
		}
	}

	if tasks, ok := rec["incident_tasks"].([]interface{}); ok && len(tasks) > 0 {
		out += fmt.Sprintf("\n\nIncident Tasks (%d):\n%s", len(tasks), strings.Repeat("-", 20))
		for i, t := range tasks {
			task, ok := t.(map[string]interface{})
			if !ok {
				continue
			}
			assigned := field(task, "assigned_to")
			if assigned == "" {
				assigned = "Unassigned"
			}
			out += fmt.Sprintf("\n%d. %s\n   Description: %s\n   State: %s\n   Assigned to: %s",
				i+1, field(task, "task_number"), field(task, "short_description"), field(task, "state"), assigned)
		}
	}
	return out
}

// FormatChangeRequest renders a change request record for display.
func FormatChangeRequest(rec servicenow.Record) string {
	rec = withLabels(rec, map[string]map[string]string{
		"state":    changeStateLabels,
		"priority": priorityLabels,
		"impact":   priorityLabels,
		"risk":     riskLabels,
	})
	out := renderSections(rec, "Change Request Details:", []section{
		{"Basic Information", [][2]string{
			{"Number", "number"},
			{"State", "state"},
			{"Type", "type"},
			{"Priority", "priority"},
			{"Risk", "risk"},
			{"Impact", "impact"},
			{"Short Description", "short_description"},
		}},
		{"Request Details", [][2]string{
			{"Requested By", "requested_by"},
			{"Company", "company"},
			{"Agreement", "agreement_id"},
			{"Category", "category"},
		}},
		{"Assignment", [][2]string{
			{"Assignment Group", "assignment_group"},
			{"Assigned To", "assigned_to"},
			{"CMDB CI", "cmdb_ci"},
		}},
		{"Schedule", [][2]string{
			{"Created Date", "created_date"},
			{"Start Date", "start_date"},
			{"End Date", "end_date"},
		}},
	})

	for _, plan := range [][2]string{
		{"Description", "description"},
		{"Implementation Plan", "implementation_plan"},
		{"Test Plan", "test_plan"},
		{"Backout Plan", "backout_plan"},
	} {
		if v := field(rec, plan[1]); v != "" {
			out += fmt.Sprintf("\n\n%s:\n%s\n%s", plan[0], strings.Repeat("-", len(plan[0])+1), v)
		}
	}
	return out
}

// FormatIncidentTask renders an incident task record for display.
func FormatIncidentTask(rec servicenow.Record) string {
	rec = withLabels(rec, map[string]map[string]string{
		"state":    incidentStateLabels,
		"priority": priorityLabels,
	})
	out := renderSections(rec, "Incident Task Details:", []section{
		{"Basic Information", [][2]string{
			{"Task Number", "task_number"},
			{"Incident Number", "incident_number"},
			{"State", "state"},
			{"Priority", "priority"},
			{"Short Description", "short_description"},
		}},
		{"Assignment", [][2]string{
			{"Assignment Group", "assignment_group"},
			{"Assigned To", "assigned_to"},
			{"Configuration Item", "configuration_item"},
			{"Business Service", "business_service"},
		}},
		{"Timestamps", [][2]string{
			{"Created Date", "created_date"},
			{"Updated Date", "updated_date"},
			{"Closed Date", "closed_date"},
		}},
	})

	if desc := field(rec, "description"); desc != "" {
		out += "\n\nDescription:\n" + strings.Repeat("-", 12) + "\n" + desc
	}
	if u := field(rec, "url"); u != "" {
		out += "\n\nURL: " + u
	}
	return out
}

// summarizeIncidents renders a capped list overview for search
// results.
func summarizeIncidents(records []servicenow.Record, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d incident(s):\n%s", count, strings.Repeat("=", 60))
	for i, rec := range records {
		if i == 10 {
			fmt.Fprintf(&b, "\n\n... and %d more incidents", count-10)
			break
		}
		fmt.Fprintf(&b, "\n\n%d. %s\n   State: %s\n   Priority: %s\n   Requested By: %s\n   Company: %s\n   Short Description: %s\n   Assignment Group: %s",
			i+1, field(rec, "number"), field(rec, "state"), field(rec, "priority"),
			field(rec, "requested_by"), field(rec, "company"),
			field(rec, "short_description"), field(rec, "assignment_group"))
	}
	return b.String()
}

func summarizeChangeRequests(records []servicenow.Record, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d change request(s):\n%s", count, strings.Repeat("=", 60))
	for i, rec := range records {
		if i == 10 {
			fmt.Fprintf(&b, "\n\n... and %d more change requests", count-10)
			break
		}
		fmt.Fprintf(&b, "\n\n%d. %s\n   State: %s\n   Type: %s\n   Priority: %s\n   Risk: %s\n   Requested By: %s\n   Company: %s\n   Short Description: %s\n   Assignment Group: %s",
			i+1, field(rec, "number"), field(rec, "state"), field(rec, "type"),
			field(rec, "priority"), field(rec, "risk"), field(rec, "requested_by"),
			field(rec, "company"), field(rec, "short_description"), field(rec, "assignment_group"))
	}
	return b.String()
}
