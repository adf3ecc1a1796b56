package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/pkg/logging"
)

const (
	retryInitialInterval = 500 * time.Millisecond
	retryMaxInterval     = 10 * time.Second
)

// newBackOff returns the shared retry delay policy. Randomization is
// disabled so consecutive delays never shrink.
func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return b
}

// RequestSpec describes one upstream API call. Path is relative to the
// instance API base path. A nil Body sends no request body.
type RequestSpec struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
}

// Transport executes RequestSpecs against the ServiceNow instance with
// bearer authentication and bounded retries.
type Transport struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenManager
	maxRetries int
}

type upstreamResponse struct {
	status     int
	body       []byte
	retryAfter time.Duration
}

// Execute runs the request and returns the raw response body on any
// 2xx status. Failures come back classified as *apierr.Error. The
// total number of attempts is bounded by the configured retry limit;
// one extra attempt is allowed when a cached token turns out to be
// rejected upstream.
func (t *Transport) Execute(ctx context.Context, spec RequestSpec) ([]byte, error) {
	policy := newBackOff()
	refreshed := false
	var lastErr error

	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		token, err := t.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := t.do(ctx, spec, token)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apierr.Wrap(apierr.KindAPI, ctx.Err(), "%s %s canceled", spec.Method, spec.Path)
			}
			lastErr = apierr.Wrap(apierr.KindAPI, err, "%s %s failed", spec.Method, spec.Path)
		} else {
			switch {
			case resp.status < 300:
				return resp.body, nil

			case resp.status == http.StatusUnauthorized:
				t.tokens.Invalidate(token)
				if !refreshed {
					refreshed = true
					logging.Debug("ServiceNow", "Upstream rejected token on %s %s, refreshing once", spec.Method, spec.Path)
					attempt--
					continue
				}
				return nil, apierr.New(apierr.KindAuth, "upstream authentication failed (status 401)")

			case resp.status == http.StatusForbidden:
				return nil, apierr.New(apierr.KindAuth, "upstream denied access (status 403)")

			case resp.status == http.StatusNotFound:
				return nil, apierr.New(apierr.KindNotFound, "resource not found: %s", spec.Path)

			case resp.status == http.StatusTooManyRequests:
				lastErr = &apierr.Error{
					Kind:       apierr.KindRateLimit,
					Message:    fmt.Sprintf("upstream throttled %s %s", spec.Method, spec.Path),
					StatusCode: resp.status,
					RetryAfter: resp.retryAfter,
				}

			case resp.status >= 500:
				lastErr = &apierr.Error{
					Kind:       apierr.KindAPI,
					Message:    fmt.Sprintf("upstream error on %s %s (status %d)", spec.Method, spec.Path, resp.status),
					StatusCode: resp.status,
				}

			default:
				return nil, &apierr.Error{
					Kind:       apierr.KindAPI,
					Message:    fmt.Sprintf("upstream rejected %s %s (status %d): %s", spec.Method, spec.Path, resp.status, summarize(resp.body)),
					StatusCode: resp.status,
				}
			}
		}

		if attempt == t.maxRetries {
			break
		}
		delay := policy.NextBackOff()
		if e := apierr.As(lastErr); e != nil && e.RetryAfter > delay {
			delay = e.RetryAfter
		}
		logging.Debug("ServiceNow", "Retrying %s %s in %s (attempt %d/%d)", spec.Method, spec.Path, delay, attempt+1, t.maxRetries)
		select {
		case <-ctx.Done():
			return nil, apierr.Wrap(apierr.KindAPI, ctx.Err(), "%s %s canceled", spec.Method, spec.Path)
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (t *Transport) do(ctx context.Context, spec RequestSpec, token string) (*upstreamResponse, error) {
	u := t.baseURL + spec.Path
	if len(spec.Query) > 0 {
		u += "?" + spec.Query.Encode()
	}

	var body io.Reader
	if spec.Body != nil {
		raw, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if spec.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return &upstreamResponse{
		status:     resp.StatusCode,
		body:       raw,
		retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}, nil
}

// parseRetryAfter handles the delay-seconds form of the header. The
// HTTP-date form is rare on ServiceNow and treated as absent.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func summarize(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
