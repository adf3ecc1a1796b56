package server

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
)

// Envelope is the uniform result shape every tool invocation returns,
// success or failure.
type Envelope struct {
	Success bool         `json:"success"`
	Payload interface{}  `json:"payload,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed invocation to the caller.
type ErrorDetail struct {
	Kind              string `json:"kind"`
	Message           string `json:"message"`
	Status            int    `json:"status"`
	Retriable         bool   `json:"retriable"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

func SuccessEnvelope(payload interface{}) Envelope {
	return Envelope{Success: true, Payload: payload}
}

// FailureEnvelope classifies err into the error taxonomy. Internal
// faults get a generic message so implementation detail never reaches
// the caller.
func FailureEnvelope(err error) Envelope {
	kind := apierr.KindOf(err)
	detail := &ErrorDetail{
		Kind:      string(kind),
		Message:   "internal server error",
		Status:    kind.HTTPStatus(),
		Retriable: kind.Retriable(),
	}
	if e := apierr.As(err); e != nil && kind != apierr.KindInternal {
		detail.Message = e.Message
		if e.RetryAfter > 0 {
			detail.RetryAfterSeconds = int64(e.RetryAfter.Seconds())
		}
	}
	return Envelope{Success: false, Error: detail}
}

// MCPResult renders the envelope as a tool call result. Failures are
// flagged with the protocol-level error marker so clients can branch
// without parsing the body.
func (e Envelope) MCPResult() *mcp.CallToolResult {
	raw, err := json.Marshal(e)
	if err != nil {
		return mcp.NewToolResultError(`{"success":false,"error":{"kind":"internal_error","message":"internal server error","status":500,"retriable":false}}`)
	}
	if e.Success {
		return mcp.NewToolResultText(string(raw))
	}
	return mcp.NewToolResultError(string(raw))
}
