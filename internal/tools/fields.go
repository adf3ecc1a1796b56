package tools

import (
	"fmt"
	"strings"
)

type fieldInfo struct {
	name, description, example string
}

func renderFieldCatalog(title string, groups map[string][]fieldInfo, order []string) string {
	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", 60))
	for _, group := range order {
		b.WriteString("\n\n" + group + ":\n")
		b.WriteString(strings.Repeat("-", len(group)+1))
		for _, f := range groups[group] {
			fmt.Fprintf(&b, "\n%s:\n  Description: %s\n  Example: %s", f.name, f.description, f.example)
		}
	}
	return b.String()
}

func incidentFieldsInfo() string {
	return renderFieldCatalog("ServiceNow Incident Fields", map[string][]fieldInfo{
		"Record Fields": {
			{"number", "ServiceNow ticket number", "INC654321"},
			{"requested_by", "Creator of the ServiceNow ticket", "John Doe"},
			{"company", "Account mapped in ServiceNow", "Snow World"},
			{"service_name", "Service name mapped to cmdb_ci_service table", "test SNSR"},
			{"category", "Category details from sys_choice table", "Performance"},
			{"subcategory", "Incident sub-category details", "Timeout"},
			{"configuration_item", "Configuration item sys_id", "000297901469B"},
			{"source", "Incident creation source", "self-service"},
			{"state", "Incident current state (1=New, 2=In Progress, 3=On Hold, 6=Resolved, 7=Closed, 8=Canceled)", "In Progress"},
			{"impact", "Incident impact value (1=Critical, 2=High, 3=Medium, 4=Low)", "3 - Medium"},
			{"urgency", "Incident urgency value (1=Critical, 2=High, 3=Medium, 4=Low)", "2 - High"},
			{"priority", "Incident priority value (1=Critical, 2=High, 3=Medium, 4=Low)", "3 - Medium"},
			{"assignment_group", "Assignment group", "NGCS-ADSS-Support-Engineer"},
			{"assigned_to", "Assigned user", "John Doe"},
			{"short_description", "Incident short description (max 120 chars)", "Brief issue summary"},
			{"description", "Incident description (max 4000 chars)", "Detailed issue description"},
			{"comments", "Last updated comments", "Latest comment details"},
			{"notes", "Last updated notes", "Latest note details"},
			{"created_by", "Created user email", "john.doe@company.com"},
			{"created_date", "Incident created date", "2022-01-06 07:10:04"},
			{"modified_by", "Last modified user", "jane.smith@company.com"},
			{"modified_date", "Last modified date", "2022-02-09 09:07:24"},
			{"closed_by", "Incident closed user (if closed)", "admin@company.com"},
			{"closed_date", "Incident closed date (if closed)", "2022-02-10 15:30:00"},
			{"customer_reference_id", "Customer incident ticket ID", "INC9054378"},
		},
		"Resolution Information Fields": {
			{"resolution_code", "Incident closed code", "Solved (Permanently)"},
			{"resolution_notes", "Incident resolution notes", "Restarted the service"},
			{"resolved_at", "Incident resolved date", "2022-02-10 14:30:00"},
			{"resolved_by", "User who resolved the incident", "resolver@company.com"},
			{"knowledge", "Mapped knowledge article info", "KB0010042"},
		},
		"Incident Task Fields": {
			{"task_number", "Incident task number", "TASK0131780"},
			{"state", "Incident task current state", "Open"},
			{"short_description", "Task short description (max 120 chars)", "Task summary"},
			{"configuration_item", "Configuration item sys_id", "000297901469B"},
			{"business_service", "Service name", "test SNSR"},
			{"assignment_group", "Assignment group sys_id", "NGCS-ADSS-Support-Engineer"},
			{"assigned_to", "Assigned user", "John Doe"},
		},
	}, []string{"Record Fields", "Resolution Information Fields", "Incident Task Fields"})
}

func changeRequestFieldsInfo() string {
	out := renderFieldCatalog("ServiceNow Change Request Fields", map[string][]fieldInfo{
		"Record Fields": {
			{"number", "Change request number", "CHG0000001"},
			{"state", "Change request state (1=New, 2=Assess, 3=Authorize, 4=Scheduled, 5=Implement, 6=Review, 7=Closed, 8=Canceled)", "1"},
			{"type", "Change request type", "Standard, Emergency, Normal"},
			{"category", "Category", "Hardware, Software, Network"},
			{"priority", "Priority (1=Critical, 2=High, 3=Medium, 4=Low)", "2"},
			{"risk", "Risk level (1=Very Low, 2=Low, 3=Medium, 4=High, 5=Very High)", "3"},
			{"impact", "Impact (1=Critical, 2=High, 3=Medium, 4=Low)", "2"},
			{"requested_by", "Person who requested the change", "user@company.com"},
			{"company", "Company associated with the change", "ACME Corp"},
			{"assignment_group", "Group assigned to handle the change", "Change Management"},
			{"assigned_to", "Individual assigned to the change", "John Doe"},
			{"short_description", "Brief description of the change", "Update server configuration"},
			{"description", "Detailed description of the change", "Full details of the change"},
			{"cmdb_ci", "Configuration item affected", "Server001"},
			{"agreement_id", "Service agreement identifier", "SLA001"},
			{"start_date", "Planned start date", "2023-12-01 09:00:00"},
			{"end_date", "Planned end date", "2023-12-01 17:00:00"},
			{"implementation_plan", "How the change will be implemented", "Step by step plan"},
			{"test_plan", "How the change will be tested", "Testing procedures"},
			{"backout_plan", "How to reverse the change if needed", "Rollback procedures"},
			{"work_notes", "Internal work notes", "Progress updates"},
			{"comments", "Comments and communication", "Additional information"},
			{"phase", "Current phase of the change", "Planning, Implementation"},
			{"approval", "Approval status", "Approved, Pending, Rejected"},
			{"reason", "Reason for the change", "Performance improvement"},
		},
	}, []string{"Record Fields"})
	out += "\n\n" + strings.Repeat("=", 60)
	out += "\nSearch Parameters:\nAll fields above can be used as search criteria."
	out += "\nMultiple criteria can be combined for more specific searches."
	return out
}

func incidentTaskFieldsInfo() string {
	return renderFieldCatalog("ServiceNow Incident Task Fields", map[string][]fieldInfo{
		"Basic Fields": {
			{"task_number", "Task identifier", "TASK0133364"},
			{"incident_number", "Parent incident number", "INC0134292"},
			{"state", "Task current state (1=New, 2=In Progress, 3=On Hold, 6=Resolved, 7=Closed, 8=Canceled)", "2"},
			{"severity", "Severity level (1-4)", "3"},
			{"priority", "Priority level (1=Critical, 2=High, 3=Medium, 4=Low)", "2"},
		},
		"Descriptive Fields": {
			{"incident_short_description", "Parent incident description", "Brief incident summary"},
			{"short_description", "Task short description (max 120 chars)", "Task summary"},
			{"description", "Full task description (max 4000 chars)", "Detailed task description"},
		},
		"Technical Fields": {
			{"configuration_item", "CI sys_id from cmdb_ci table", "000297901469B"},
			{"business_service", "Service name", "test SNSR"},
			{"sys_id", "System identifier", "9d385017c611228701d22104cc95c371"},
		},
		"Assignment Fields": {
			{"assignment_group", "Group responsible for task", "NGCS-ADSS-Support-Engineer"},
			{"assigned_to", "Individual assigned to task", "John Doe"},
		},
		"Timestamp Fields": {
			{"created_date", "Task creation timestamp", "2022-01-06 07:10:04"},
			{"updated_date", "Last update timestamp", "2022-02-09 09:07:24"},
			{"closed_date", "Task closure timestamp", "2022-02-10 15:30:00"},
		},
		"Additional Fields": {
			{"work_notes", "Internal work notes", "Progress updates"},
			{"comments", "Customer-visible comments", "Additional information"},
			{"url", "Direct link to task in ServiceNow", "https://acme.service-now.com/task.do?sys_id=..."},
		},
	}, []string{
		"Basic Fields", "Descriptive Fields", "Technical Fields",
		"Assignment Fields", "Timestamp Fields", "Additional Fields",
	})
}
