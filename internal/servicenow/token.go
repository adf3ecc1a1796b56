package servicenow

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/internal/config"
	"github.com/aviro092/servicenow-mcp-server/pkg/logging"
)

const (
	// tokenExpirySkew is subtracted from the token lifetime so a token
	// is refreshed before it actually expires mid-request.
	tokenExpirySkew = 30 * time.Second

	// defaultTokenTTL applies when the token endpoint omits expires_in.
	defaultTokenTTL = 30 * time.Minute
)

type cachedToken struct {
	value     string
	expiresAt time.Time
}

// TokenManager caches a ServiceNow OAuth2 access token and refreshes
// it on demand. Concurrent callers that find the cache stale share a
// single credential exchange.
type TokenManager struct {
	conf       *clientcredentials.Config
	httpClient *http.Client
	maxRetries int
	skew       time.Duration

	current atomic.Pointer[cachedToken]
	group   singleflight.Group
}

// NewTokenManager builds a token manager for the configured instance.
// The supplied HTTP client is used for the token endpoint as well, so
// timeout and TLS settings apply uniformly.
func NewTokenManager(cfg config.ServiceNowConfig, httpClient *http.Client) *TokenManager {
	return &TokenManager{
		conf: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL(),
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		maxRetries: cfg.MaxRetries,
		skew:       tokenExpirySkew,
	}
}

// Token returns a currently valid access token, exchanging credentials
// with the token endpoint if the cached one is missing or about to
// expire.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if t := m.current.Load(); t != nil && m.fresh(t) {
		return t.value, nil
	}

	v, err, _ := m.group.Do("exchange", func() (interface{}, error) {
		// A concurrent caller may have refreshed while we waited.
		if t := m.current.Load(); t != nil && m.fresh(t) {
			return t.value, nil
		}
		tok, err := m.exchange(ctx)
		if err != nil {
			return nil, err
		}
		m.current.Store(tok)
		logging.Debug("ServiceNow", "Obtained access token, valid until %s", tok.expiresAt.Format(time.RFC3339))
		return tok.value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token if it still matches value. A stale
// invalidation from a request that raced a refresh is a no-op.
func (m *TokenManager) Invalidate(value string) {
	if t := m.current.Load(); t != nil && t.value == value {
		m.current.CompareAndSwap(t, nil)
	}
}

func (m *TokenManager) fresh(t *cachedToken) bool {
	return time.Now().Before(t.expiresAt.Add(-m.skew))
}

func (m *TokenManager) exchange(ctx context.Context) (*cachedToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	policy := backoff.WithContext(newBackOff(), ctx)
	attempts := 0
	tok, err := backoff.RetryWithData(func() (*oauth2.Token, error) {
		attempts++
		if attempts > m.maxRetries {
			return nil, backoff.Permanent(errExchangeExhausted)
		}
		tok, err := m.conf.Token(ctx)
		if err != nil {
			return nil, classifyExchangeError(err)
		}
		return tok, nil
	}, policy)
	if err != nil {
		if e := apierr.As(err); e != nil {
			return nil, e
		}
		return nil, apierr.Wrap(apierr.KindAuth, err, "OAuth2 token exchange failed")
	}

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultTokenTTL)
	}
	return &cachedToken{value: tok.AccessToken, expiresAt: expiresAt}, nil
}

var errExchangeExhausted = apierr.New(apierr.KindAuth, "OAuth2 token exchange failed after retries")

// classifyExchangeError decides whether a token endpoint failure is
// worth retrying. Rejected credentials never are.
func classifyExchangeError(err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		code := rErr.Response.StatusCode
		if code == http.StatusTooManyRequests || code >= 500 {
			return err
		}
		return backoff.Permanent(apierr.Wrap(apierr.KindAuth, err, "token endpoint rejected credentials (status %d)", code))
	}
	// Network-level failures are transient.
	return err
}
