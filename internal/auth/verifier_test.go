package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
	"github.com/aviro092/servicenow-mcp-server/internal/config"
)

func TestMockVerifierAcceptsAllowListed(t *testing.T) {
	v := NewMockVerifier([]string{"valid_auth_token", "mock_token"}, []string{"servicenow.incident.read"})

	id, err := v.Verify(context.Background(), "valid_auth_token")
	require.NoError(t, err)
	assert.Equal(t, "mock-user", id.Subject)
	assert.True(t, id.HasScope("servicenow.incident.read"))
}

func TestMockVerifierCaseInsensitive(t *testing.T) {
	v := NewMockVerifier([]string{"Valid_Auth_Token"}, nil)

	_, err := v.Verify(context.Background(), "VALID_AUTH_token")
	assert.NoError(t, err)
}

func TestMockVerifierRejectsUnknown(t *testing.T) {
	v := NewMockVerifier([]string{"valid_auth_token"}, nil)

	_, err := v.Verify(context.Background(), "some_other_token")
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
	assert.EqualError(t, err, "auth_error: invalid token")
}

func TestNewVerifierSelectsMode(t *testing.T) {
	mock, err := NewVerifier(config.AuthConfig{Mode: config.AuthModeMock, MockTokens: []string{"x"}})
	require.NoError(t, err)
	assert.IsType(t, &MockVerifier{}, mock)

	idp, err := NewVerifier(config.AuthConfig{
		Mode:          config.AuthModeIdentityProvider,
		JWKSURI:       "https://idp.example.com/.well-known/jwks.json",
		APIIdentifier: "ServiceNowMCPServerAPI",
	})
	require.NoError(t, err)
	assert.IsType(t, &JWKSVerifier{}, idp)

	_, err = NewVerifier(config.AuthConfig{Mode: "bogus"})
	assert.Error(t, err)
}

func TestRequireScope(t *testing.T) {
	id := &Identity{Subject: "u", Scopes: []string{"servicenow.incident.read"}}

	assert.NoError(t, RequireScope(id, "servicenow.incident.read"))
	assert.NoError(t, RequireScope(id, ""))

	err := RequireScope(id, "servicenow.incident.write")
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))

	err = RequireScope(nil, "servicenow.incident.read")
	assert.Equal(t, apierr.KindAuthorization, apierr.KindOf(err))
}

func TestDevelopmentIdentityCarriesAllScopes(t *testing.T) {
	scopes := config.Default().Auth.Scopes.All()
	id := DevelopmentIdentity(scopes)

	for _, s := range scopes {
		assert.True(t, id.HasScope(s), s)
	}
}

func TestBearerTokenContext(t *testing.T) {
	ctx := context.Background()

	_, ok := BearerFromContext(ctx)
	assert.False(t, ok)

	ctx = WithBearerToken(ctx, "abc123")
	token, ok := BearerFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "abc123", token)
}
