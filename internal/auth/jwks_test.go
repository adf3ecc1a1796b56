package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviro092/servicenow-mcp-server/internal/apierr"
)

const testAudience = "ServiceNowMCPServerAPI"

type testIDP struct {
	key     *rsa.PrivateKey
	kid     string
	srv     *httptest.Server
	fetches atomic.Int64
}

func newTestIDP(t *testing.T) *testIDP {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idp := &testIDP{key: key, kid: "test-key-1"}
	idp.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idp.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"keys":[{"kty":"RSA","kid":%q,"use":"sig","n":%q,"e":%q}]}`,
			idp.kid,
			base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()))
	}))
	t.Cleanup(idp.srv.Close)
	return idp
}

func (idp *testIDP) sign(t *testing.T, claims jwt.MapClaims, kid string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(idp.key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-42",
		"aud":   testAudience,
		"scope": "servicenow.incident.read servicenow.incident.write",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func TestJWKSVerifierAcceptsValidToken(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	id, err := v.Verify(context.Background(), idp.sign(t, validClaims(), idp.kid))
	require.NoError(t, err)
	assert.Equal(t, "user-42", id.Subject)
	assert.Equal(t, []string{"servicenow.incident.read", "servicenow.incident.write"}, id.Scopes)
	assert.True(t, id.HasScope("servicenow.incident.write"))
}

func TestJWKSVerifierCachesKeySet(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	for i := 0; i < 3; i++ {
		_, err := v.Verify(context.Background(), idp.sign(t, validClaims(), idp.kid))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), idp.fetches.Load())
}

func TestJWKSVerifierRejectsExpired(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()

	_, err := v.Verify(context.Background(), idp.sign(t, claims, idp.kid))
	require.Error(t, err)
	assert.Equal(t, apierr.KindAuth, apierr.KindOf(err))
	assert.EqualError(t, err, "auth_error: invalid token")
}

func TestJWKSVerifierRejectsNotYetValid(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	claims := validClaims()
	claims["nbf"] = time.Now().Add(time.Hour).Unix()

	_, err := v.Verify(context.Background(), idp.sign(t, claims, idp.kid))
	assert.Error(t, err)
}

func TestJWKSVerifierRejectsWrongAudience(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	claims := validClaims()
	claims["aud"] = "SomeOtherAPI"

	_, err := v.Verify(context.Background(), idp.sign(t, claims, idp.kid))
	require.Error(t, err)
	assert.EqualError(t, err, "auth_error: invalid token")
}

func TestJWKSVerifierAcceptsMissingAudience(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	claims := validClaims()
	delete(claims, "aud")

	_, err := v.Verify(context.Background(), idp.sign(t, claims, idp.kid))
	assert.NoError(t, err)
}

func TestJWKSVerifierRejectsUnknownKid(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	_, err := v.Verify(context.Background(), idp.sign(t, validClaims(), "rogue-kid"))
	require.Error(t, err)
	assert.EqualError(t, err, "auth_error: invalid token")
}

func TestJWKSVerifierRejectsWrongSigningKey(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	rogue, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims())
	token.Header["kid"] = idp.kid
	signed, err := token.SignedString(rogue)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	assert.Error(t, err)
}

func TestJWKSVerifierRejectsUnsignedAlg(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	token.Header["kid"] = idp.kid
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	assert.Error(t, err)
}

func TestScopesFromArrayClaim(t *testing.T) {
	idp := newTestIDP(t)
	v := NewJWKSVerifier(idp.srv.URL, testAudience)

	claims := validClaims()
	claims["scope"] = []string{"servicenow.task.read", "servicenow.task.write"}

	id, err := v.Verify(context.Background(), idp.sign(t, claims, idp.kid))
	require.NoError(t, err)
	assert.Equal(t, []string{"servicenow.task.read", "servicenow.task.write"}, id.Scopes)
}

func TestHTTPContextFuncExtractsBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer my-token")

	ctx := HTTPContextFunc(context.Background(), req)
	token, ok := BearerFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "my-token", token)

	// Basic credentials are not bearer tokens.
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	_, ok = BearerFromContext(HTTPContextFunc(context.Background(), req))
	assert.False(t, ok)
}
