package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/internal/servicenow"
)

// fakeClient records the last call and returns canned records.
type fakeClient struct {
	lastMethod string
	lastNumber string
	lastFields servicenow.Record
	lastParams map[string]interface{}

	record  servicenow.Record
	records []servicenow.Record
	err     error
}

func (f *fakeClient) call(method, number string, fields servicenow.Record, params map[string]interface{}) {
	f.lastMethod = method
	f.lastNumber = number
	f.lastFields = fields
	f.lastParams = params
}

func (f *fakeClient) GetIncident(_ context.Context, number string) (servicenow.Record, error) {
	f.call("GetIncident", number, nil, nil)
	return f.record, f.err
}

func (f *fakeClient) CreateIncident(_ context.Context, fields servicenow.Record) (servicenow.Record, error) {
	f.call("CreateIncident", "", fields, nil)
	return f.record, f.err
}

func (f *fakeClient) UpdateIncident(_ context.Context, number string, fields servicenow.Record) (servicenow.Record, error) {
	f.call("UpdateIncident", number, fields, nil)
	return f.record, f.err
}

func (f *fakeClient) SearchIncidents(_ context.Context, params map[string]interface{}) ([]servicenow.Record, error) {
	f.call("SearchIncidents", "", nil, params)
	return f.records, f.err
}

func (f *fakeClient) GetChangeRequest(_ context.Context, number string) (servicenow.Record, error) {
	f.call("GetChangeRequest", number, nil, nil)
	return f.record, f.err
}

func (f *fakeClient) SearchChangeRequests(_ context.Context, params map[string]interface{}) ([]servicenow.Record, error) {
	f.call("SearchChangeRequests", "", nil, params)
	return f.records, f.err
}

func (f *fakeClient) UpdateChangeRequest(_ context.Context, number string, fields servicenow.Record) (servicenow.Record, error) {
	f.call("UpdateChangeRequest", number, fields, nil)
	return f.record, f.err
}

func (f *fakeClient) ApproveChangeRequest(_ context.Context, number string, fields servicenow.Record) (servicenow.Record, error) {
	f.call("ApproveChangeRequest", number, fields, nil)
	return f.record, f.err
}

func (f *fakeClient) GetIncidentTask(_ context.Context, number string) (servicenow.Record, error) {
	f.call("GetIncidentTask", number, nil, nil)
	return f.record, f.err
}

func (f *fakeClient) CreateIncidentTask(_ context.Context, fields servicenow.Record) (servicenow.Record, error) {
	f.call("CreateIncidentTask", "", fields, nil)
	return f.record, f.err
}

func (f *fakeClient) UpdateIncidentTask(_ context.Context, number string, fields servicenow.Record) (servicenow.Record, error) {
	f.call("UpdateIncidentTask", number, fields, nil)
	return f.record, f.err
}

func payload(t *testing.T, v interface{}, err error) map[string]interface{} {
	t.Helper()
	require.NoError(t, err)
	out, ok := v.(map[string]interface{})
	require.True(t, ok)
	return out
}

func TestGetIncidentHandler(t *testing.T) {
	fake := &fakeClient{record: servicenow.Record{"number": "INC0010001", "state": "2"}}
	handler := getIncidentHandler(fake)

	v, err := handler(context.Background(), map[string]interface{}{"incident_number": "INC0010001"})
	out := payload(t, v, err)
	assert.Equal(t, "GetIncident", fake.lastMethod)
	assert.Equal(t, "INC0010001", fake.lastNumber)
	assert.Contains(t, out["display"], "INC0010001")
	assert.Contains(t, out["display"], "2 - In Progress")
}

func TestGetIncidentHandlerMissingArgument(t *testing.T) {
	handler := getIncidentHandler(&fakeClient{})

	_, err := handler(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
	// Validation failures never reach the upstream.
	assert.Empty(t, (&fakeClient{}).lastMethod)
}

func TestCreateIncidentHandler(t *testing.T) {
	fake := &fakeClient{record: servicenow.Record{"number": "INC0010002"}}
	handler := createIncidentHandler(fake)

	v, err := handler(context.Background(), map[string]interface{}{
		"short_description": "Printer down",
		"description":       "The 3rd floor printer is down",
		"service_name":      "Print Services",
		"urgency":           float64(2),
		"category":          "Hardware",
	})
	out := payload(t, v, err)
	assert.Equal(t, "CreateIncident", fake.lastMethod)
	assert.Equal(t, "Printer down", fake.lastFields["short_description"])
	assert.Equal(t, 2, fake.lastFields["urgency"])
	assert.Equal(t, "Hardware", fake.lastFields["category"])
	assert.Equal(t, "Incident INC0010002 created successfully", out["message"])
}

func TestCreateIncidentHandlerValidation(t *testing.T) {
	handler := createIncidentHandler(&fakeClient{})

	cases := map[string]map[string]interface{}{
		"missing short_description": {
			"description":  "d",
			"service_name": "s",
			"urgency":      float64(2),
		},
		"urgency out of range": {
			"short_description": "s",
			"description":       "d",
			"service_name":      "s",
			"urgency":           float64(9),
		},
		"fractional urgency": {
			"short_description": "s",
			"description":       "d",
			"service_name":      "s",
			"urgency":           2.5,
		},
		"short_description too long": {
			"short_description": strings.Repeat("x", 121),
			"description":       "d",
			"service_name":      "s",
			"urgency":           float64(2),
		},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := handler(context.Background(), args)
			require.Error(t, err)
			assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
		})
	}
}

func TestUpdateIncidentHandlerRequiresFields(t *testing.T) {
	fake := &fakeClient{}
	handler := updateIncidentHandler(fake)

	_, err := handler(context.Background(), map[string]interface{}{"incident_number": "INC1"})
	require.Error(t, err)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
	assert.Empty(t, fake.lastMethod)
}

func TestUpdateIncidentHandler(t *testing.T) {
	fake := &fakeClient{record: servicenow.Record{"number": "INC1", "state": "6"}}
	handler := updateIncidentHandler(fake)

	v, err := handler(context.Background(), map[string]interface{}{
		"incident_number": "INC1",
		"state":           float64(6),
		"comments":        "Resolved by restart",
	})
	out := payload(t, v, err)
	assert.Equal(t, "UpdateIncident", fake.lastMethod)
	assert.Equal(t, "INC1", fake.lastNumber)
	assert.Equal(t, 6, fake.lastFields["state"])
	assert.Equal(t, "Resolved by restart", fake.lastFields["comments"])
	assert.Contains(t, out["message"], "updated successfully")
}

func TestSearchIncidentsHandlerDefaults(t *testing.T) {
	fake := &fakeClient{records: []servicenow.Record{{"number": "INC1"}, {"number": "INC2"}}}
	handler := searchIncidentsHandler(fake)

	v, err := handler(context.Background(), map[string]interface{}{})
	out := payload(t, v, err)
	assert.Equal(t, true, fake.lastParams["active"])
	assert.Equal(t, 2, out["count"])
	assert.Contains(t, out["display"], "INC2")
}

func TestSearchIncidentsHandlerFilters(t *testing.T) {
	fake := &fakeClient{}
	handler := searchIncidentsHandler(fake)

	_, err := handler(context.Background(), map[string]interface{}{
		"active":   false,
		"state":    float64(2),
		"priority": float64(1),
		"company":  "ACME",
	})
	require.NoError(t, err)
	assert.Equal(t, false, fake.lastParams["active"])
	assert.Equal(t, 2, fake.lastParams["state"])
	assert.Equal(t, 1, fake.lastParams["priority"])
	assert.Equal(t, "ACME", fake.lastParams["company"])
}

func TestApproveChangeRequestHandler(t *testing.T) {
	fake := &fakeClient{record: servicenow.Record{"number": "CHG1", "approval": "approved"}}
	handler := approveChangeRequestHandler(fake)

	v, err := handler(context.Background(), map[string]interface{}{
		"changerequest_number": "CHG1",
		"state":                "approved",
		"approver_email":       "jane@acme.com",
		"approver_name":        "Jane Doe",
	})
	out := payload(t, v, err)
	assert.Equal(t, "ApproveChangeRequest", fake.lastMethod)
	assert.Equal(t, "approved", fake.lastFields["state"])
	assert.Equal(t, "jane@acme.com", fake.lastFields["approver_email"])
	assert.Equal(t, "Change request CHG1 has been approved", out["message"])
}

func TestApproveChangeRequestHandlerRejectsBadState(t *testing.T) {
	handler := approveChangeRequestHandler(&fakeClient{})

	_, err := handler(context.Background(), map[string]interface{}{
		"changerequest_number": "CHG1",
		"state":                "maybe",
		"approver_email":       "jane@acme.com",
	})
	require.Error(t, err)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestUpdateChangeRequestHandlerOnHoldNeedsReason(t *testing.T) {
	handler := updateChangeRequestHandler(&fakeClient{})

	_, err := handler(context.Background(), map[string]interface{}{
		"changerequest_number": "CHG1",
		"company_name":         "ACME",
		"on_hold":              true,
	})
	require.Error(t, err)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestUpdateChangeRequestHandler(t *testing.T) {
	fake := &fakeClient{record: servicenow.Record{"number": "CHG1"}}
	handler := updateChangeRequestHandler(fake)

	_, err := handler(context.Background(), map[string]interface{}{
		"changerequest_number": "CHG1",
		"company_name":         "ACME",
		"on_hold":              true,
		"on_hold_reason":       "Awaiting approval window",
	})
	require.NoError(t, err)
	assert.Equal(t, "ACME", fake.lastFields["company_name"])
	assert.Equal(t, "true", fake.lastFields["on_hold"])
}

func TestCreateIncidentTaskHandlerRequiredFields(t *testing.T) {
	handler := createIncidentTaskHandler(&fakeClient{})

	_, err := handler(context.Background(), map[string]interface{}{
		"incident_number":   "INC1",
		"short_description": "Check disk",
		// service_name, company_name, configuration_item missing
	})
	require.Error(t, err)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestUpdateIncidentTaskHandler(t *testing.T) {
	fake := &fakeClient{record: servicenow.Record{"task_number": "TASK1", "state": "3"}}
	handler := updateIncidentTaskHandler(fake)

	v, err := handler(context.Background(), map[string]interface{}{
		"incident_task_number": "TASK1",
		"short_description":    "Check disk",
		"state":                float64(3),
		"priority":             float64(2),
	})
	out := payload(t, v, err)
	assert.Equal(t, "UpdateIncidentTask", fake.lastMethod)
	assert.Equal(t, "TASK1", fake.lastNumber)
	assert.Equal(t, 3, fake.lastFields["state"])
	assert.Equal(t, 2, fake.lastFields["priority"])
	assert.Contains(t, out["display"], "3 - On Hold")
}

func TestHandlerPropagatesUpstreamError(t *testing.T) {
	fake := &fakeClient{err: apierr.New(apierr.KindNotFound, "resource not found")}
	handler := getIncidentHandler(fake)

	_, err := handler(context.Background(), map[string]interface{}{"incident_number": "INC404"})
	require.Error(t, err)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestFieldCatalogs(t *testing.T) {
	assert.Contains(t, incidentFieldsInfo(), "customer_reference_id")
	assert.Contains(t, incidentFieldsInfo(), "resolution_code")
	assert.Contains(t, changeRequestFieldsInfo(), "backout_plan")
	assert.Contains(t, incidentTaskFieldsInfo(), "task_number")
}
