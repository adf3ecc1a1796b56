package servicenow

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/internal/config"
)

// Record is a ServiceNow record as returned by the API, with field
// names preserved verbatim.
type Record = map[string]interface{}

// Client exposes the ITSM operations of a ServiceNow instance.
type Client struct {
	transport *Transport
}

// NewClient builds a client from instance configuration. One
// underlying HTTP client serves both API calls and token exchanges.
func NewClient(cfg config.ServiceNowConfig) *Client {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.VerifySSL},
		},
	}
	return &Client{
		transport: &Transport{
			baseURL:    cfg.APIBasePath(),
			httpClient: httpClient,
			tokens:     NewTokenManager(cfg, httpClient),
			maxRetries: cfg.MaxRetries,
		},
	}
}

const (
	incidentPath      = "/itsm/incident"
	changeRequestPath = "/itsm/changerequest"
	incidentTaskPath  = "/itsm/incident_task"
)

// GetIncident fetches a single incident by number.
func (c *Client) GetIncident(ctx context.Context, number string) (Record, error) {
	return c.getRecord(ctx, incidentPath+"/"+url.PathEscape(number))
}

// CreateIncident creates an incident from the given field values and
// returns the created record.
func (c *Client) CreateIncident(ctx context.Context, fields Record) (Record, error) {
	return c.writeRecord(ctx, http.MethodPost, incidentPath, fields)
}

// UpdateIncident applies field values to an existing incident.
func (c *Client) UpdateIncident(ctx context.Context, number string, fields Record) (Record, error) {
	return c.writeRecord(ctx, http.MethodPut, incidentPath+"/"+url.PathEscape(number), fields)
}

// SearchIncidents queries incidents with the given filter parameters.
func (c *Client) SearchIncidents(ctx context.Context, params map[string]interface{}) ([]Record, error) {
	return c.searchRecords(ctx, incidentPath, params)
}

// GetChangeRequest fetches a single change request by number.
func (c *Client) GetChangeRequest(ctx context.Context, number string) (Record, error) {
	return c.getRecord(ctx, changeRequestPath+"/"+url.PathEscape(number))
}

// SearchChangeRequests queries change requests with the given filter
// parameters. A 404 from the search endpoint means no matches and is
// returned as an empty slice.
func (c *Client) SearchChangeRequests(ctx context.Context, params map[string]interface{}) ([]Record, error) {
	records, err := c.searchRecords(ctx, changeRequestPath, params)
	if apierr.Is(err, apierr.KindNotFound) {
		return []Record{}, nil
	}
	return records, err
}

// UpdateChangeRequest applies field values to an existing change
// request.
func (c *Client) UpdateChangeRequest(ctx context.Context, number string, fields Record) (Record, error) {
	return c.writeRecord(ctx, http.MethodPut, changeRequestPath+"/"+url.PathEscape(number), fields)
}

// ApproveChangeRequest records an approval decision on a change
// request.
func (c *Client) ApproveChangeRequest(ctx context.Context, number string, fields Record) (Record, error) {
	return c.writeRecord(ctx, http.MethodPatch, changeRequestPath+"/"+url.PathEscape(number)+"/approve", fields)
}

// GetIncidentTask fetches a single incident task by number.
func (c *Client) GetIncidentTask(ctx context.Context, number string) (Record, error) {
	return c.getRecord(ctx, incidentTaskPath+"/"+url.PathEscape(number))
}

// CreateIncidentTask creates a task under an incident.
func (c *Client) CreateIncidentTask(ctx context.Context, fields Record) (Record, error) {
	return c.writeRecord(ctx, http.MethodPost, incidentTaskPath, fields)
}

// UpdateIncidentTask applies field values to an existing incident
// task.
func (c *Client) UpdateIncidentTask(ctx context.Context, number string, fields Record) (Record, error) {
	return c.writeRecord(ctx, http.MethodPut, incidentTaskPath+"/"+url.PathEscape(number), fields)
}

func (c *Client) getRecord(ctx context.Context, path string) (Record, error) {
	raw, err := c.transport.Execute(ctx, RequestSpec{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw, path)
}

func (c *Client) writeRecord(ctx context.Context, method, path string, fields Record) (Record, error) {
	raw, err := c.transport.Execute(ctx, RequestSpec{Method: method, Path: path, Body: fields})
	if err != nil {
		return nil, err
	}
	return decodeRecord(raw, path)
}

func (c *Client) searchRecords(ctx context.Context, path string, params map[string]interface{}) ([]Record, error) {
	raw, err := c.transport.Execute(ctx, RequestSpec{Method: http.MethodGet, Path: path, Query: encodeQuery(params)})
	if err != nil {
		return nil, err
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apierr.Wrap(apierr.KindAPI, err, "decoding response from %s", path)
	}
	return collectRecords(unwrapResult(decoded)), nil
}

// encodeQuery stringifies filter values the way the API expects:
// booleans lowercase, integers without exponent notation.
func encodeQuery(params map[string]interface{}) url.Values {
	q := url.Values{}
	for k, v := range params {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t == "" {
				continue
			}
			q.Set(k, t)
		case bool:
			q.Set(k, strconv.FormatBool(t))
		case int:
			q.Set(k, strconv.Itoa(t))
		case float64:
			q.Set(k, strconv.FormatFloat(t, 'f', -1, 64))
		default:
			q.Set(k, fmt.Sprintf("%v", t))
		}
	}
	return q
}

// unwrapResult strips the standard {"result": ...} wrapper when
// present. Some scripted endpoints return the payload bare.
func unwrapResult(v interface{}) interface{} {
	if obj, ok := v.(map[string]interface{}); ok {
		if inner, ok := obj["result"]; ok {
			return inner
		}
	}
	return v
}

func collectRecords(v interface{}) []Record {
	switch t := v.(type) {
	case []interface{}:
		records := make([]Record, 0, len(t))
		for _, item := range t {
			if rec, ok := item.(map[string]interface{}); ok {
				records = append(records, rec)
			}
		}
		return records
	case map[string]interface{}:
		return []Record{t}
	default:
		return []Record{}
	}
}

func decodeRecord(raw []byte, path string) (Record, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apierr.Wrap(apierr.KindAPI, err, "decoding response from %s", path)
	}
	switch t := unwrapResult(decoded).(type) {
	case map[string]interface{}:
		return t, nil
	case []interface{}:
		if len(t) > 0 {
			if rec, ok := t[0].(map[string]interface{}); ok {
				return rec, nil
			}
		}
		return nil, apierr.New(apierr.KindAPI, "empty result from %s", path)
	default:
		return Record{}, nil
	}
}
