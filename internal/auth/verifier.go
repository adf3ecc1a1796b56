package auth

import (
	"context"
	"strings"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/internal/config"
	"github.com/aviro092/servicenow-mcp-server/pkg/logging"
)

// Identity is an authenticated caller.
type Identity struct {
	Subject string
	Scopes  []string
	Claims  map[string]interface{}
}

// HasScope reports whether the identity carries the given scope.
func (id *Identity) HasScope(scope string) bool {
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Verifier turns a raw bearer token into an Identity or an auth error.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// NewVerifier builds the verifier selected by configuration.
func NewVerifier(cfg config.AuthConfig) (Verifier, error) {
	switch cfg.Mode {
	case config.AuthModeMock:
		return NewMockVerifier(cfg.MockTokens, cfg.Scopes.All()), nil
	case config.AuthModeIdentityProvider:
		return NewJWKSVerifier(cfg.JWKSURI, cfg.APIIdentifier), nil
	default:
		return nil, apierr.New(apierr.KindInternal, "unknown auth mode %q", cfg.Mode)
	}
}

// errInvalidToken is the uniform rejection returned to callers
// regardless of which verification step failed.
func errInvalidToken() error {
	return apierr.New(apierr.KindAuth, "invalid token")
}

// MockVerifier accepts tokens from a fixed allow-list, matched
// case-insensitively, and grants every configured scope.
type MockVerifier struct {
	allowed map[string]struct{}
	scopes  []string
}

func NewMockVerifier(tokens, scopes []string) *MockVerifier {
	allowed := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		allowed[strings.ToLower(t)] = struct{}{}
	}
	return &MockVerifier{allowed: allowed, scopes: scopes}
}

func (v *MockVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if _, ok := v.allowed[strings.ToLower(token)]; !ok {
		logging.Warn("Auth", "Rejected token not on the mock allow-list")
		return nil, errInvalidToken()
	}
	return &Identity{
		Subject: "mock-user",
		Scopes:  append([]string(nil), v.scopes...),
		Claims: map[string]interface{}{
			"sub": "mock-user",
			"iss": "mock-verifier",
		},
	}, nil
}

// DevelopmentIdentity is the synthetic caller used when authentication
// is disabled. It carries every scope so no tool is gated.
func DevelopmentIdentity(scopes []string) *Identity {
	return &Identity{
		Subject: "development",
		Scopes:  append([]string(nil), scopes...),
		Claims: map[string]interface{}{
			"sub": "development",
			"iss": "auth-disabled",
		},
	}
}
